package llm

import (
	"errors"
	"testing"

	"github.com/jdoyin/textmill/internal/common"
)

func TestRenderPrompt(t *testing.T) {
	got, err := RenderPrompt("Translate to French:\n\n{text}", "good morning")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "Translate to French:\n\ngood morning" {
		t.Fatalf("unexpected prompt: %q", got)
	}
}

func TestRenderPromptReplacesEveryOccurrence(t *testing.T) {
	got, err := RenderPrompt("{text} --- {text}", "x")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "x --- x" {
		t.Fatalf("unexpected prompt: %q", got)
	}
}

func TestRenderPromptRejectsMissingPlaceholder(t *testing.T) {
	_, err := RenderPrompt("no placeholder here", "chunk")
	if !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

package llm

import (
	"strings"

	"github.com/jdoyin/textmill/internal/common"
)

// Placeholder marks where chunk text is substituted into a prompt template.
const Placeholder = "{text}"

// RenderPrompt substitutes the chunk text into the template. A template
// without the placeholder would silently send the same prompt for every
// chunk, so it is rejected as a configuration error.
func RenderPrompt(template, text string) (string, error) {
	if !strings.Contains(template, Placeholder) {
		return "", common.NewAppError("PROMPT_ERROR",
			"prompt template is missing the "+Placeholder+" placeholder", common.ErrInvalidInput)
	}
	return strings.ReplaceAll(template, Placeholder, text), nil
}

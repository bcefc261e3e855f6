package pipeline

import (
	"errors"
	"testing"

	"github.com/jdoyin/textmill/internal/job"
)

func TestRebuildConcatenatesDoneInOrder(t *testing.T) {
	j := job.New("doc", []string{"x", "y", "z"}, 10)
	j.Chunks[0].MarkDone("A")
	j.Chunks[1].MarkError("boom")
	j.Chunks[2].MarkDone("B")

	res, err := Rebuild(j)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if res.Output != "AB" {
		t.Fatalf("output: got %q want %q", res.Output, "AB")
	}
	if res.DoneCount != 2 {
		t.Fatalf("done count: got %d", res.DoneCount)
	}
	if len(res.ErrorIndices) != 1 || res.ErrorIndices[0] != 1 {
		t.Fatalf("error indices: %v", res.ErrorIndices)
	}
	if res.Complete() {
		t.Fatal("partial rebuild reported complete")
	}
	if res.Missing() != 1 {
		t.Fatalf("missing: got %d", res.Missing())
	}
}

func TestRebuildReportsPendingGaps(t *testing.T) {
	j := job.New("doc", []string{"x", "y", "z"}, 10)
	j.Chunks[1].MarkDone("middle")

	res, err := Rebuild(j)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if res.Output != "middle" {
		t.Fatalf("output: %q", res.Output)
	}
	if len(res.PendingIndices) != 2 || res.PendingIndices[0] != 0 || res.PendingIndices[1] != 2 {
		t.Fatalf("pending indices: %v", res.PendingIndices)
	}
}

func TestRebuildNothingDone(t *testing.T) {
	j := job.New("doc", []string{"x", "y"}, 10)
	j.Chunks[0].MarkError("boom")

	_, err := Rebuild(j)
	if !errors.Is(err, ErrNothingToRebuild) {
		t.Fatalf("expected ErrNothingToRebuild, got %v", err)
	}
}

func TestRebuildCompleteJob(t *testing.T) {
	j := job.New("doc", []string{"x", "y"}, 10)
	j.Chunks[0].MarkDone("left-")
	j.Chunks[1].MarkDone("right")

	res, err := Rebuild(j)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if res.Output != "left-right" {
		t.Fatalf("output: %q", res.Output)
	}
	if !res.Complete() || res.Missing() != 0 {
		t.Fatalf("complete job flagged incomplete: %+v", res)
	}
}

func TestRebuildDoesNotMutateJob(t *testing.T) {
	j := job.New("doc", []string{"x"}, 10)
	j.Chunks[0].MarkDone("out")

	if _, err := Rebuild(j); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if err := j.Validate(); err != nil {
		t.Fatalf("job mutated by rebuild: %v", err)
	}
	if j.Chunks[0].Status != job.StatusDone || *j.Chunks[0].Result != "out" {
		t.Fatalf("chunk changed: %+v", j.Chunks[0])
	}
}

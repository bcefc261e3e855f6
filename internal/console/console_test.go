package console

import (
	"strings"
	"testing"

	"github.com/jdoyin/textmill/internal/pipeline"
)

func TestBarWidth(t *testing.T) {
	cases := []struct {
		current, total, filled int
	}{
		{0, 10, 0},
		{5, 10, 10},
		{10, 10, 20},
		{15, 10, 20}, // clamped
		{3, 0, 0},    // degenerate total
	}
	for _, c := range cases {
		bar := Bar(c.current, c.total)
		if got := strings.Count(bar, "█"); got != c.filled {
			t.Errorf("Bar(%d, %d): %d filled cells, want %d", c.current, c.total, got, c.filled)
		}
		if got := strings.Count(bar, "█") + strings.Count(bar, "░"); got != 20 {
			t.Errorf("Bar(%d, %d): width %d, want 20", c.current, c.total, got)
		}
	}
}

func TestGapReportListsIndices(t *testing.T) {
	res := pipeline.RebuildResult{
		DoneCount:      3,
		ErrorIndices:   []int{1, 4},
		PendingIndices: []int{5},
	}
	report := GapReport(res, 6)
	for _, want := range []string{"Completed: 3", "Errors: 2", "Pending: 1", "1, 4"} {
		if !strings.Contains(report, want) {
			t.Errorf("gap report missing %q:\n%s", want, report)
		}
	}
}

func TestStatusLinesCarryMessage(t *testing.T) {
	for name, fn := range map[string]func(string) string{
		"Success": Success,
		"Warn":    Warn,
		"Error":   Error,
	} {
		if got := fn("the message"); !strings.Contains(got, "the message") {
			t.Errorf("%s dropped its message: %q", name, got)
		}
	}
}

func TestSummaryListsFailedChunks(t *testing.T) {
	s := &pipeline.Summary{Total: 5, Succeeded: 3, Failed: 2, FailedIndices: []int{0, 3}}
	out := Summary(s)
	for _, want := range []string{"Total chunks: 5", "Succeeded: 3", "Failed: 2", "0, 3"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

// Package console renders pipeline progress and summaries for the CLI
// binaries. Core packages never import it; they emit plain observations
// and this package decides how they look.
package console

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jdoyin/textmill/internal/pipeline"
)

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	faintStyle = lipgloss.NewStyle().Faint(true)
	titleStyle = lipgloss.NewStyle().Bold(true)
)

const barWidth = 20

// Bar renders a fixed-width block-character progress bar.
func Bar(current, total int) string {
	if total <= 0 {
		return strings.Repeat("░", barWidth)
	}
	filled := current * barWidth / total
	if filled > barWidth {
		filled = barWidth
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

// ProgressLine formats one observation from a processing run.
func ProgressLine(o pipeline.Observation) string {
	status := okStyle.Render("ok")
	if !o.OK {
		status = errStyle.Render("err: " + o.Err)
	}
	eta := "calculating..."
	if o.HasETA {
		eta = o.ETA.Truncate(time.Second).String()
	}
	return fmt.Sprintf("[%s] %d/%d chunk %d %s %s | %.1f/min | ETA %s",
		Bar(o.Position, o.Pending), o.Position, o.Pending, o.ChunkIndex,
		faintStyle.Render(fmt.Sprintf("%q", o.Preview)), status, o.Speed, eta)
}

// Summary formats the end-of-run report.
func Summary(s *pipeline.Summary) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Summary:"))
	fmt.Fprintf(&b, "\n- Total chunks: %d", s.Total)
	fmt.Fprintf(&b, "\n- Already done: %d", s.AlreadyDone)
	fmt.Fprintf(&b, "\n- Succeeded: %d", s.Succeeded)
	fmt.Fprintf(&b, "\n- Failed: %d", s.Failed)
	if len(s.FailedIndices) > 0 {
		fmt.Fprintf(&b, " (chunks: %s)", joinInts(s.FailedIndices))
	}
	if len(s.Exhausted) > 0 {
		b.WriteString("\n- ")
		b.WriteString(warnStyle.Render(fmt.Sprintf(
			"Gave up on %d chunk(s) past the attempt cap: %s", len(s.Exhausted), joinInts(s.Exhausted))))
	}
	fmt.Fprintf(&b, "\n- Elapsed: %s", s.Elapsed.Truncate(time.Millisecond))
	return b.String()
}

// GapReport describes which chunks are missing from a rebuilt document.
func GapReport(res pipeline.RebuildResult, total int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Chunk statistics:"))
	fmt.Fprintf(&b, "\n- Total chunks: %d", total)
	fmt.Fprintf(&b, "\n- Completed: %d", res.DoneCount)
	fmt.Fprintf(&b, "\n- Errors: %d", len(res.ErrorIndices))
	fmt.Fprintf(&b, "\n- Pending: %d", len(res.PendingIndices))
	if len(res.ErrorIndices) > 0 {
		b.WriteString("\n")
		b.WriteString(warnStyle.Render(fmt.Sprintf(
			"Warning: %d chunk(s) in error: %s", len(res.ErrorIndices), joinInts(res.ErrorIndices))))
	}
	if len(res.PendingIndices) > 0 {
		b.WriteString("\n")
		b.WriteString(warnStyle.Render(fmt.Sprintf(
			"Warning: %d chunk(s) still pending: %s", len(res.PendingIndices), joinInts(res.PendingIndices))))
	}
	return b.String()
}

// Success renders msg as a success line.
func Success(msg string) string { return okStyle.Render(msg) }

// Warn renders msg as a warning line.
func Warn(msg string) string { return warnStyle.Render(msg) }

// Error renders msg as an error line.
func Error(msg string) string { return errStyle.Render(msg) }

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprintf("%d", x)
	}
	return strings.Join(parts, ", ")
}

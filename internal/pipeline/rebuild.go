package pipeline

import (
	"errors"
	"strings"

	"github.com/jdoyin/textmill/internal/job"
)

// ErrNothingToRebuild is returned when a job has no completed chunks at all.
var ErrNothingToRebuild = errors.New("no completed chunks, nothing to rebuild")

// RebuildResult is a best-effort reconstruction of the output document.
type RebuildResult struct {
	Output         string
	DoneCount      int
	ErrorIndices   []int
	PendingIndices []int
}

// Complete reports whether every chunk contributed to the output.
func (r RebuildResult) Complete() bool {
	return len(r.ErrorIndices) == 0 && len(r.PendingIndices) == 0
}

// Missing is the number of chunks absent from the output.
func (r RebuildResult) Missing() int {
	return len(r.ErrorIndices) + len(r.PendingIndices)
}

// Rebuild concatenates the results of completed chunks in index order,
// reading the job without mutating it. Incomplete chunks never fail the
// rebuild; they are reported as gaps so the caller knows the output is a
// partial reconstruction. Only a job with zero completed chunks fails.
func Rebuild(j *job.Job) (RebuildResult, error) {
	var res RebuildResult
	var b strings.Builder
	for i := range j.Chunks {
		c := &j.Chunks[i]
		switch c.Status {
		case job.StatusDone:
			res.DoneCount++
			if c.Result != nil {
				b.WriteString(*c.Result)
			}
		case job.StatusError:
			res.ErrorIndices = append(res.ErrorIndices, c.Index)
		default:
			res.PendingIndices = append(res.PendingIndices, c.Index)
		}
	}
	if res.DoneCount == 0 {
		return res, ErrNothingToRebuild
	}
	res.Output = b.String()
	return res, nil
}

package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jdoyin/textmill/internal/common"
	"github.com/jdoyin/textmill/internal/job"
	"github.com/jdoyin/textmill/internal/llm"
	"github.com/jdoyin/textmill/internal/store"
)

// Config controls one processing run.
type Config struct {
	// PromptTemplate must contain the {text} placeholder; the chunk text
	// is substituted before submission.
	PromptTemplate string
	// MaxAttempts caps submissions per chunk across runs; 0 means no cap,
	// matching the behavior of retrying error chunks on every invocation.
	MaxAttempts int
}

// Observation is emitted after every chunk transition has been persisted.
type Observation struct {
	RunID      string
	ChunkIndex int
	Position   int // 1-based position within this run's pending set
	Pending    int // size of this run's pending set
	Preview    string
	OK         bool
	Err        string
	Speed      float64 // chunks per minute
	ETA        time.Duration
	HasETA     bool
}

// Summary reports the outcome of one run.
type Summary struct {
	RunID         string
	DocumentID    string
	Total         int
	AlreadyDone   int
	Attempted     int
	Succeeded     int
	Failed        int
	FailedIndices []int
	Exhausted     []int // incomplete chunks past the attempt cap
	NothingToDo   bool
	Elapsed       time.Duration
}

// Runner drives a job through the completion service, strictly one chunk
// at a time. The job is persisted after every single transition, so an
// interrupted run loses at most the in-flight chunk, and re-running always
// resumes from whatever is not yet done.
type Runner struct {
	store  store.Store
	client llm.Completer
	cfg    Config
	log    *slog.Logger

	// OnProgress, when set, receives one observation per processed chunk.
	OnProgress func(Observation)
}

func NewRunner(st store.Store, client llm.Completer, cfg Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{store: st, client: client, cfg: cfg, log: logger}
}

// Run loads the job, submits every eligible chunk in ascending index order
// and returns a summary. Chunk failures are recorded and do not stop the
// run; store failures and context cancellation do.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	runID := uuid.New().String()

	// Fail on a bad template before any service call is made.
	if _, err := llm.RenderPrompt(r.cfg.PromptTemplate, ""); err != nil {
		return nil, err
	}

	j, err := r.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	pending := j.PendingIndices(r.cfg.MaxAttempts)
	done, errored, _ := j.Counts()
	sum := &Summary{
		RunID:       runID,
		DocumentID:  j.Meta.DocumentID,
		Total:       len(j.Chunks),
		AlreadyDone: done,
	}

	r.log.Info("pipeline.run.start",
		"run_id", runID,
		"document_id", j.Meta.DocumentID,
		"total", len(j.Chunks),
		"pending", len(pending),
		"done", done,
		"errored", errored,
	)

	if len(pending) == 0 {
		sum.NothingToDo = true
		sum.Exhausted = j.ExhaustedIndices(r.cfg.MaxAttempts)
		r.log.Info("pipeline.run.idle", "run_id", runID, "document_id", j.Meta.DocumentID)
		return sum, nil
	}

	tracker := NewTracker(len(pending))
	for pos, idx := range pending {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chunk := &j.Chunks[idx]

		r.log.Info("pipeline.chunk.start",
			"run_id", runID, "chunk", idx, "preview", preview(chunk.Text))

		prompt, err := llm.RenderPrompt(r.cfg.PromptTemplate, chunk.Text)
		if err != nil {
			return nil, err
		}

		result, callErr := r.client.Complete(ctx, prompt)
		chunk.Attempts++
		if callErr != nil {
			chunk.MarkError(callErr.Error())
			tracker.Update(false)
			sum.FailedIndices = append(sum.FailedIndices, idx)
			r.log.Warn("pipeline.chunk.error",
				"run_id", runID, "chunk", idx, "attempts", chunk.Attempts, "error", callErr)
		} else {
			chunk.MarkDone(result)
			tracker.Update(true)
			r.log.Info("pipeline.chunk.ok",
				"run_id", runID, "chunk", idx, "attempts", chunk.Attempts, "result_len", len(result))
		}

		if err := r.store.Save(ctx, j); err != nil {
			// Continuing would desynchronize observed progress from
			// durable state, so a persistence failure ends the run.
			return nil, common.WrapError(err, "persist job after chunk")
		}

		r.emit(runID, chunk, pos+1, len(pending), callErr, tracker)
	}

	sum.Attempted = tracker.Processed
	sum.Succeeded = tracker.Succeeded
	sum.Failed = tracker.Failed
	sum.Exhausted = j.ExhaustedIndices(r.cfg.MaxAttempts)
	sum.Elapsed = tracker.Elapsed()

	r.log.Info("pipeline.run.done",
		"run_id", runID,
		"document_id", j.Meta.DocumentID,
		"attempted", sum.Attempted,
		"succeeded", sum.Succeeded,
		"failed", sum.Failed,
		"elapsed_ms", sum.Elapsed.Milliseconds(),
	)
	return sum, nil
}

func (r *Runner) emit(runID string, chunk *job.Chunk, pos, pending int, callErr error, tracker *Tracker) {
	if r.OnProgress == nil {
		return
	}
	o := Observation{
		RunID:      runID,
		ChunkIndex: chunk.Index,
		Position:   pos,
		Pending:    pending,
		Preview:    preview(chunk.Text),
		OK:         callErr == nil,
		Speed:      tracker.Speed(),
	}
	if callErr != nil {
		o.Err = callErr.Error()
	}
	o.ETA, o.HasETA = tracker.ETA(pending - pos)
	r.OnProgress(o)
}

func preview(text string) string {
	const n = 50
	runes := []rune(text)
	if len(runes) > n {
		return string(runes[:n]) + "..."
	}
	return text
}

package job

import (
	"fmt"
)

// Status is the canonical state of a single chunk. These exact strings are
// stored in the job artifact.
type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Chunk is one contiguous, non-overlapping slice of the source document.
// Index and Text are fixed at creation; only the status fields change, and
// only through MarkDone and MarkError, which keep Result and ErrorDetail
// consistent with Status (Result is set iff done, ErrorDetail iff error).
type Chunk struct {
	Index       int     `json:"index"`
	Text        string  `json:"text"`
	Status      Status  `json:"status"`
	Result      *string `json:"result"`
	ErrorDetail *string `json:"error_detail"`
	Attempts    int     `json:"attempts,omitempty"`
}

// MarkDone records a successful result and clears any earlier failure.
// A done chunk is final: it is never submitted again.
func (c *Chunk) MarkDone(result string) {
	c.Status = StatusDone
	c.Result = &result
	c.ErrorDetail = nil
}

// MarkError records a failure diagnostic. The result is cleared so the
// chunk never claims output it does not have. Error chunks stay eligible
// for resubmission on later runs.
func (c *Chunk) MarkError(detail string) {
	c.Status = StatusError
	c.ErrorDetail = &detail
	c.Result = nil
}

// Done reports whether the chunk holds a final result.
func (c *Chunk) Done() bool { return c.Status == StatusDone }

// Validate rejects chunk states the transition methods cannot produce,
// e.g. a done chunk without a result in a hand-edited artifact.
func (c *Chunk) Validate() error {
	switch c.Status {
	case StatusPending:
		if c.Result != nil || c.ErrorDetail != nil {
			return fmt.Errorf("chunk %d: pending chunk carries result or error detail", c.Index)
		}
	case StatusDone:
		if c.Result == nil {
			return fmt.Errorf("chunk %d: done chunk has no result", c.Index)
		}
		if c.ErrorDetail != nil {
			return fmt.Errorf("chunk %d: done chunk carries an error detail", c.Index)
		}
	case StatusError:
		if c.ErrorDetail == nil {
			return fmt.Errorf("chunk %d: error chunk has no error detail", c.Index)
		}
		if c.Result != nil {
			return fmt.Errorf("chunk %d: error chunk carries a result", c.Index)
		}
	default:
		return fmt.Errorf("chunk %d: unknown status %q", c.Index, c.Status)
	}
	if c.Attempts < 0 {
		return fmt.Errorf("chunk %d: negative attempts", c.Index)
	}
	return nil
}

// Meta identifies the document a job belongs to and how it was cut.
type Meta struct {
	DocumentID  string `json:"document_id"`
	ChunkSize   int    `json:"chunk_size"`
	TotalChunks int    `json:"total_chunks"`
}

// Job aggregates every chunk of one document together with its metadata.
// It is persisted as a whole after every chunk transition.
type Job struct {
	Meta   Meta    `json:"meta"`
	Chunks []Chunk `json:"chunks"`
}

// New builds a job for documentID with every chunk pending. The parts are
// expected to come straight from chunker.Split, in document order.
func New(documentID string, parts []string, chunkSize int) *Job {
	chunks := make([]Chunk, len(parts))
	for i, text := range parts {
		chunks[i] = Chunk{Index: i, Text: text, Status: StatusPending}
	}
	return &Job{
		Meta:   Meta{DocumentID: documentID, ChunkSize: chunkSize, TotalChunks: len(parts)},
		Chunks: chunks,
	}
}

// PendingIndices returns the indices still eligible for submission, in
// ascending order: everything not done, minus chunks whose attempt count
// has reached maxAttempts. A maxAttempts of zero means no cap.
func (j *Job) PendingIndices(maxAttempts int) []int {
	var out []int
	for i := range j.Chunks {
		c := &j.Chunks[i]
		if c.Status == StatusDone {
			continue
		}
		if maxAttempts > 0 && c.Attempts >= maxAttempts {
			continue
		}
		out = append(out, i)
	}
	return out
}

// ExhaustedIndices returns incomplete chunks that are no longer retried
// because they reached the attempt cap. Always empty when maxAttempts is 0.
func (j *Job) ExhaustedIndices(maxAttempts int) []int {
	if maxAttempts <= 0 {
		return nil
	}
	var out []int
	for i := range j.Chunks {
		c := &j.Chunks[i]
		if c.Status != StatusDone && c.Attempts >= maxAttempts {
			out = append(out, i)
		}
	}
	return out
}

// Counts tallies chunks by status.
func (j *Job) Counts() (done, errored, pending int) {
	for i := range j.Chunks {
		switch j.Chunks[i].Status {
		case StatusDone:
			done++
		case StatusError:
			errored++
		default:
			pending++
		}
	}
	return done, errored, pending
}

// Validate checks structural consistency: metadata agrees with the chunk
// list, indices form the sequence 0..n-1, and every chunk is in a legal
// state. Stores call this on load so corrupt artifacts fail loudly.
func (j *Job) Validate() error {
	if j.Meta.DocumentID == "" {
		return fmt.Errorf("job has no document id")
	}
	if j.Meta.ChunkSize < 1 {
		return fmt.Errorf("job %s: chunk size %d is invalid", j.Meta.DocumentID, j.Meta.ChunkSize)
	}
	if j.Meta.TotalChunks != len(j.Chunks) {
		return fmt.Errorf("job %s: meta says %d chunks, found %d",
			j.Meta.DocumentID, j.Meta.TotalChunks, len(j.Chunks))
	}
	for i := range j.Chunks {
		if j.Chunks[i].Index != i {
			return fmt.Errorf("job %s: chunk at position %d has index %d",
				j.Meta.DocumentID, i, j.Chunks[i].Index)
		}
		if err := j.Chunks[i].Validate(); err != nil {
			return fmt.Errorf("job %s: %w", j.Meta.DocumentID, err)
		}
	}
	return nil
}

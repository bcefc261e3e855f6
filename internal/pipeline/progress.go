package pipeline

import "time"

// Tracker accumulates progress counters for a single run. Every Run owns
// its own Tracker; nothing in here is shared across invocations.
type Tracker struct {
	Total     int
	Processed int
	Succeeded int
	Failed    int
	start     time.Time
}

func NewTracker(total int) *Tracker {
	return &Tracker{Total: total, start: time.Now()}
}

// Update records the outcome of one chunk attempt.
func (t *Tracker) Update(ok bool) {
	t.Processed++
	if ok {
		t.Succeeded++
	} else {
		t.Failed++
	}
}

// Speed returns chunks per minute since the run started.
func (t *Tracker) Speed() float64 {
	elapsed := time.Since(t.start).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(t.Processed) / elapsed * 60
}

// ETA estimates the time to finish the remaining chunks at the current
// speed. The boolean is false until at least one chunk has been processed.
func (t *Tracker) ETA(remaining int) (time.Duration, bool) {
	speed := t.Speed()
	if speed <= 0 {
		return 0, false
	}
	secs := float64(remaining) / speed * 60
	return time.Duration(secs * float64(time.Second)), true
}

// Elapsed is the wall time since the run started.
func (t *Tracker) Elapsed() time.Duration {
	return time.Since(t.start)
}

package batch

import (
	"errors"

	"DocumentExtractionSystem/pkg/models"
)

// Status is the lifecycle state of a batch run
type Status string

const (
	StatusIdle       Status = "idle"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
)

var (
	// ErrEmptyQueue is returned before processing when no files were submitted
	ErrEmptyQueue = errors.New("no files to process")
	// ErrNotCompleted is returned when resetting a run that has not finished
	ErrNotCompleted = errors.New("batch run has not completed")
	// ErrAlreadyStarted is returned when processing a run that is not idle
	ErrAlreadyStarted = errors.New("batch run already started")
)

// Run holds the state of one batch: the submitted files, its status and the
// records produced so far. A Run is owned by a single goroutine.
type Run struct {
	kind      models.DocumentKind
	files     []models.SourceFile
	status    Status
	results   []models.NormalizedRecord
	completed int
}

func newRun(files []models.SourceFile, kind models.DocumentKind) *Run {
	queued := make([]models.SourceFile, len(files))
	copy(queued, files)
	return &Run{
		kind:    kind,
		files:   queued,
		status:  StatusIdle,
		results: make([]models.NormalizedRecord, len(queued)),
	}
}

// Kind returns the document kind shared by every file in the run
func (r *Run) Kind() models.DocumentKind { return r.kind }

// Status returns the current lifecycle state
func (r *Run) Status() Status { return r.status }

// Pending returns the files not yet processed, in submission order
func (r *Run) Pending() []models.SourceFile {
	return r.files[r.completed:]
}

// Results returns the records produced so far, in submission order
func (r *Run) Results() []models.NormalizedRecord {
	out := make([]models.NormalizedRecord, r.completed)
	copy(out, r.results[:r.completed])
	return out
}

// Failed counts the failure placeholders among the produced records
func (r *Run) Failed() int {
	n := 0
	for _, rec := range r.results[:r.completed] {
		if rec.Failed() {
			n++
		}
	}
	return n
}

// Reset clears a completed run so the queue can be reused
func (r *Run) Reset() error {
	if r.status != StatusCompleted {
		return ErrNotCompleted
	}
	r.files = nil
	r.results = nil
	r.completed = 0
	r.status = StatusIdle
	return nil
}

// store places a record in the slot of its submission index
func (r *Run) store(index int, rec models.NormalizedRecord) {
	r.results[index] = rec
	r.completed++
}

// Package jobs tracks uploaded files through the conversion pipeline.
//
// A Job records one uploaded file and its progress from upload through
// transcription and rendering to downloadable artifacts. The Store interface
// abstracts persistence, with implementations for different backends:
//   - memory: in-process storage for development and single-instance servers
//   - redis: shared storage for multi-instance API deployments
//   - mongo: durable archive with queryable job history
//
// # Lifecycle
//
// Jobs move through a fixed status sequence:
//
//	uploaded -> transcribing -> transcribed -> rendering -> done
//
// Any in-flight status may instead move to failed, which records the error.
// Done and failed are terminal. [Status.CanTransition] encodes the legal
// moves; stores persist whatever they are given, callers enforce order.
package jobs

import (
	"context"
	"time"
)

// Status is a job's position in the conversion lifecycle.
type Status string

// Job statuses in lifecycle order.
const (
	StatusUploaded     Status = "uploaded"
	StatusTranscribing Status = "transcribing"
	StatusTranscribed  Status = "transcribed"
	StatusRendering    Status = "rendering"
	StatusDone         Status = "done"
	StatusFailed       Status = "failed"
)

// validTransitions maps each status to the statuses it may move to.
var validTransitions = map[Status][]Status{
	StatusUploaded:     {StatusTranscribing, StatusFailed},
	StatusTranscribing: {StatusTranscribed, StatusFailed},
	StatusTranscribed:  {StatusRendering, StatusFailed},
	StatusRendering:    {StatusDone, StatusFailed},
}

// CanTransition reports whether a move from s to next is legal.
func (s Status) CanTransition(next Status) bool {
	for _, t := range validTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusFailed
}

// Stats summarizes the conversion outcome for status responses.
type Stats struct {
	NoteCount int     `json:"note_count,omitempty"`
	Dropped   int     `json:"dropped,omitempty"`
	Groups    int     `json:"groups,omitempty"`
	Pages     int     `json:"pages,omitempty"`
	Duration  float64 `json:"duration,omitempty"`
	FromCache bool    `json:"from_cache,omitempty"`
}

// Job is one uploaded file tracked through the pipeline. Artifacts maps an
// output format ("svg", "pdf", ...) to the rendered file's path on disk.
type Job struct {
	ID        string            `json:"id" bson:"_id"`
	Filename  string            `json:"filename" bson:"filename"`
	Status    Status            `json:"status" bson:"status"`
	Error     string            `json:"error,omitempty" bson:"error,omitempty"`
	Stats     Stats             `json:"stats,omitempty" bson:"stats,omitempty"`
	Artifacts map[string]string `json:"artifacts,omitempty" bson:"artifacts,omitempty"`
	CreatedAt time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time         `json:"updated_at" bson:"updated_at"`
}

// New creates a job in the uploaded state.
func New(id, filename string) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:        id,
		Filename:  filename,
		Status:    StatusUploaded,
		Artifacts: map[string]string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Fail moves the job to failed and records the error message.
func (j *Job) Fail(msg string) {
	j.Status = StatusFailed
	j.Error = msg
	j.UpdatedAt = time.Now().UTC()
}

// SetStatus moves the job forward and stamps the update time.
func (j *Job) SetStatus(s Status) {
	j.Status = s
	j.UpdatedAt = time.Now().UTC()
}

// Store is the interface for job persistence backends.
type Store interface {
	// Create stores a new job. Fails if the ID already exists.
	Create(ctx context.Context, job *Job) error

	// Get retrieves a job by ID. Returns ErrCodeJobNotFound if absent.
	Get(ctx context.Context, id string) (*Job, error)

	// Update replaces a stored job. Returns ErrCodeJobNotFound if absent.
	Update(ctx context.Context, job *Job) error

	// Delete removes a job. Deleting a missing job is not an error.
	Delete(ctx context.Context, id string) error

	// List returns all jobs, newest first.
	List(ctx context.Context) ([]*Job, error)

	// Close releases backend resources.
	Close() error
}

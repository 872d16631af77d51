package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	StatusQueued        JobStatus = "queued"
	StatusDownloading   JobStatus = "downloading"
	StatusConcatenating JobStatus = "concatenating"
	StatusCompressing   JobStatus = "compressing"
	StatusCompleted     JobStatus = "completed"
	StatusFailed        JobStatus = "failed"
)

// ArtifactInfo describes the output file of a completed job.
type ArtifactInfo struct {
	Filename      string `json:"filename"`
	SizeBytes     int64  `json:"size_bytes"`
	WasCompressed bool   `json:"was_compressed"`
}

type Job struct {
	ID          uuid.UUID     `json:"id"`
	Status      JobStatus     `json:"status"`
	Detail      string        `json:"detail,omitempty"` // human-readable progress note
	URLs        []string      `json:"urls"`
	OutputName  string        `json:"output_name"`
	MaxSizeMB   int           `json:"max_size_mb"`
	KeepTemp    bool          `json:"keep_temp"`
	Error       *string       `json:"error,omitempty"`
	Artifact    *ArtifactInfo `json:"artifact,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

// Terminal reports whether s is a final status.
func Terminal(s JobStatus) bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition encodes the job state machine:
// queued -> downloading -> concatenating -> (compressing)? -> completed,
// with failed reachable from any non-terminal state.
func CanTransition(from, to JobStatus) bool {
	if Terminal(from) {
		return false
	}
	if to == StatusFailed {
		return true
	}
	switch from {
	case StatusQueued:
		return to == StatusDownloading
	case StatusDownloading:
		return to == StatusConcatenating
	case StatusConcatenating:
		return to == StatusCompressing || to == StatusCompleted
	case StatusCompressing:
		return to == StatusCompleted
	default:
		return false
	}
}

// ValidateTransition permits repeated non-terminal statuses (progress updates
// re-enter the same state) but never re-entering a terminal one.
func ValidateTransition(from, to JobStatus) error {
	if from == to && !Terminal(from) {
		return nil
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("invalid transition: %s -> %s", from, to)
	}
	return nil
}

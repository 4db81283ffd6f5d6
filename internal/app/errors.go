package service

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrNotStarted is returned when the service is used before Start.
	ErrNotStarted = errors.New("service not started")

	// ErrEmptySubmission is returned for submissions with no notes or media.
	ErrEmptySubmission = errors.New("empty submission")

	// ErrMissingCredential is returned when neither the submission nor the
	// service configuration supplies a credential.
	ErrMissingCredential = errors.New("missing credential")

	// ErrDuplicateSubmission is returned when a request ID was already seen
	// but its report can no longer be resolved.
	ErrDuplicateSubmission = errors.New("duplicate submission")

	// ErrQueueFull is returned when the job queue rejects new work.
	ErrQueueFull = errors.New("job queue full")

	// ErrNotAwaitingReview is returned when facts are confirmed on a report
	// that is not paused for review.
	ErrNotAwaitingReview = errors.New("report is not awaiting review")
)

package ingest

import "errors"

// Stage sentinels. Every failure returned by Service.Ingest wraps exactly one.
var (
	ErrValidation  = errors.New("invalid source url")
	ErrFetch       = errors.New("failed to retrieve the web page")
	ErrCategories  = errors.New("failed to load job categories")
	ErrModel       = errors.New("extraction model call failed")
	ErrParse       = errors.New("failed to parse the extraction result")
	ErrPersistence = errors.New("failed to save the extraction result")
	ErrSoftTimeout = errors.New("soft time limit exceeded")
)

// ErrEnqueue is returned by Trigger.Create when the record was stored but its
// task could not be queued. The record is already marked as error.
var ErrEnqueue = errors.New("failed to enqueue ingestion task")

// ErrInvalidSourceURL is returned by Trigger.Create for an empty or oversized URL.
var ErrInvalidSourceURL = errors.New("source_url is required and must be at most 500 characters")

// StageError ties a failure to the stage that produced it. errors.Is matches
// the stage sentinel and errors.As reaches the cause, e.g. a *fetch.Error.
type StageError struct {
	Stage error
	Err   error
	// Detail lines are appended to error_detail after Err.
	Detail []string
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return e.Stage.Error()
	}
	return e.Stage.Error() + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Stage}
	}
	return []error{e.Stage, e.Err}
}

package datasource

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyKeyword is returned when an ingest keyword is blank.
	ErrEmptyKeyword = errors.New("ingest keyword is required")
	// ErrIngestUnsupported is returned by sources that cannot trigger ingest.
	ErrIngestUnsupported = errors.New("source does not support ingest")
	// ErrNoSnapshot is returned when the snapshot cache has nothing stored.
	ErrNoSnapshot = errors.New("no cached snapshot")
)

// IngestError reports a failed data service operation.
type IngestError struct {
	Op     string // "fetch graph" or "trigger ingest"
	Source string
	Err    error
}

func (e *IngestError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s from %s: %v", e.Op, e.Source, e.Err)
}

func (e *IngestError) Unwrap() error { return e.Err }

// StatusError is a non-2xx response from the data service.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Message)
}

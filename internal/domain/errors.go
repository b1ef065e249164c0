package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedRecord marks a raw record that could not be normalized.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrSourceFetch marks a single collection that could not be read.
	ErrSourceFetch = errors.New("source fetch failed")

	// ErrCatalogUnavailable is returned when every catalog source failed.
	ErrCatalogUnavailable = errors.New("catalog unavailable")

	// ErrValidation marks a draft rejected before any remote call.
	ErrValidation = errors.New("validation failed")

	// ErrDanglingReference marks a watchlist reference whose target is missing.
	// Adding one is rejected with it; resolution of stored entries reports a
	// count instead.
	ErrDanglingReference = errors.New("dangling reference")

	// ErrTimeout marks a source read that exceeded its deadline.
	ErrTimeout = errors.New("timeout")

	ErrNotFound         = errors.New("content not found")
	ErrUnauthenticated  = errors.New("no current user")
	ErrUploadInProgress = errors.New("upload already in progress")
)

// MalformedRecordError describes why a raw record was excluded.
type MalformedRecordError struct {
	Kind     ContentKind
	Field    string
	RecordID string
}

func (e *MalformedRecordError) Error() string {
	if e.RecordID == "" {
		return fmt.Sprintf("malformed %s record: missing %s", e.Kind, e.Field)
	}
	return fmt.Sprintf("malformed %s record %s: missing %s", e.Kind, e.RecordID, e.Field)
}

func (e *MalformedRecordError) Unwrap() error {
	return ErrMalformedRecord
}

// SourceFetchError records the failure of one collection read.
type SourceFetchError struct {
	Source  string
	Kind    ContentKind
	Timeout bool
	Err     error
}

func (e *SourceFetchError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("fetching %s: timeout: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("fetching %s: %v", e.Source, e.Err)
}

func (e *SourceFetchError) Unwrap() []error {
	errs := []error{ErrSourceFetch, e.Err}
	if e.Timeout {
		errs = append(errs, ErrTimeout)
	}
	return errs
}

// CatalogUnavailableError is returned when every source failed.
type CatalogUnavailableError struct {
	Failures []SourceFailure
}

func (e *CatalogUnavailableError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.Source+": "+errString(f.Err))
	}
	return "catalog unavailable: " + strings.Join(parts, "; ")
}

func (e *CatalogUnavailableError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures)+1)
	errs = append(errs, ErrCatalogUnavailable)
	for _, f := range e.Failures {
		if f.Err != nil {
			errs = append(errs, f.Err)
		}
	}
	return errs
}

// ValidationError is a single rejected draft field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func errString(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

package ingestion

import (
	"errors"
	"fmt"
)

// Kind classifies an ingestion failure so callers can decide whether to log,
// alert, or retry without string-matching error text.
type Kind string

const (
	// KindConfig means the pipeline was constructed or invoked with invalid
	// inputs (missing owner or document ID). Not retryable.
	KindConfig Kind = "config"

	// KindEmbed means the embedding provider rejected or failed the batch.
	KindEmbed Kind = "embed"

	// KindStore means the vector store write failed.
	KindStore Kind = "store"
)

// Error is a typed ingestion failure carrying the failing stage and the
// underlying cause.
type Error struct {
	// Kind identifies the failing stage.
	Kind Kind

	// DocumentID is the document whose ingestion failed.
	DocumentID string

	// Err is the underlying cause.
	Err error
}

// Error returns the formatted error message.
func (e *Error) Error() string {
	return fmt.Sprintf("ingestion: %s failed for document %q: %v", e.Kind, e.DocumentID, e.Err)
}

// Unwrap returns the underlying cause for errors.Is / errors.As chains.
func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err if it is an ingestion *Error, or the empty
// string otherwise.
func KindOf(err error) Kind {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return ""
}

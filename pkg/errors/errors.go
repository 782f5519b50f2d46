package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMalformedDocument      = errors.New("malformed document")
	ErrUnsupportedContentKind = errors.New("unsupported content kind")
	ErrTestNotFound           = errors.New("test not found")
	ErrBatchNotFound          = errors.New("archived batch not found")
	ErrNoAvailableMarks       = errors.New("no available marks recorded for test")
)

// ValidationError rejects a whole batch. Problems keeps the order the
// validator found them in: input record order, then rule order.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("batch validation failed: %s", strings.Join(e.Problems, "; "))
}

func NewValidationError(problems ...string) error {
	return &ValidationError{Problems: problems}
}

// MalformedDocumentError marks input bytes that are not well-formed for
// the declared content kind. Problem carries the caller-facing wording.
type MalformedDocumentError struct {
	Problem string
}

func (e *MalformedDocumentError) Error() string {
	return fmt.Sprintf("malformed document: %s", e.Problem)
}

func (e *MalformedDocumentError) Unwrap() error {
	return ErrMalformedDocument
}

// StoreError wraps a persistence failure during batch commit. The batch
// was rolled back; retrying the identical batch is safe.
type StoreError struct {
	Err error
}

func (e StoreError) Error() string {
	return fmt.Sprintf("store commit failed: %s", e.Err.Error())
}

func (e StoreError) Unwrap() error {
	return e.Err
}

func NewStoreError(err error) error {
	return StoreError{Err: err}
}

// Package errors provides the standardized error taxonomy for xliffd.
//
// Every error carries structured context (segment ids, token text, paths)
// rather than prose alone, so a calling agent can drive an automated
// retry-with-correction loop without parsing messages.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates a segment or document was not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrMalformedPlaceholder indicates a decode-time placeholder token error
	ErrMalformedPlaceholder = errors.New("malformed placeholder")
	// ErrDocumentTooLarge indicates an input exceeding the size limit
	ErrDocumentTooLarge = errors.New("document too large")
	// ErrUnsupported indicates an unsupported operation or format
	ErrUnsupported = errors.New("unsupported")
)

// NotFoundError represents a missing segment or document with context
type NotFoundError struct {
	Resource string // Type of resource (e.g., "segment", "document")
	ID       string // Identifier of the resource
	Err      error  // Underlying error, if any
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// ParseError represents a document parsing error. It is fatal to the
// document being parsed: no partial document is ever returned with it.
type ParseError struct {
	Format  string // Format being parsed (e.g., "SDLXLIFF", "XML")
	Path    string // File path, if applicable
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to parse %s at %s: %s", e.Format, e.Path, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// MalformedPlaceholderError represents a placeholder token that cannot be
// decoded against a segment's original tag set.
type MalformedPlaceholderError struct {
	Token  string // The offending token text (e.g., "{9}")
	TagID  string // Tag id referenced by the token, if any
	Reason string // Why the token cannot be decoded
}

func (e *MalformedPlaceholderError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("malformed placeholder %s: %s", e.Token, e.Reason)
	}
	return fmt.Sprintf("malformed placeholder: %s", e.Reason)
}

func (e *MalformedPlaceholderError) Unwrap() error {
	return ErrMalformedPlaceholder
}

// ValidationError represents an edit proposal that failed structural
// validation. Recoverable: surfaced to the caller for correction,
// never auto-retried.
type ValidationError struct {
	SegmentID string   // Segment the proposal targeted
	Messages  []string // Individual findings
	Err       error    // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if len(e.Messages) > 0 {
		return fmt.Sprintf("validation failed for segment %s: %s", e.SegmentID, e.Messages[0])
	}
	return fmt.Sprintf("validation failed for segment %s", e.SegmentID)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "write", "rename")
	Path      string // File path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// UnsupportedError represents an unsupported feature or format
type UnsupportedError struct {
	Feature string // Feature or format that is unsupported
	Reason  string // Why it's not supported
	Err     error  // Underlying error, if any
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Reason)
	}
	return fmt.Sprintf("unsupported %s", e.Feature)
}

func (e *UnsupportedError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUnsupported
}

// Helper functions for creating common errors

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

// NewParse creates a ParseError
func NewParse(format, path, message string) *ParseError {
	return &ParseError{
		Format:  format,
		Path:    path,
		Message: message,
	}
}

// NewMalformedPlaceholder creates a MalformedPlaceholderError
func NewMalformedPlaceholder(token, tagID, reason string) *MalformedPlaceholderError {
	return &MalformedPlaceholderError{
		Token:  token,
		TagID:  tagID,
		Reason: reason,
	}
}

// NewValidation creates a ValidationError
func NewValidation(segmentID string, messages ...string) *ValidationError {
	return &ValidationError{
		SegmentID: segmentID,
		Messages:  messages,
	}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// NewUnsupported creates an UnsupportedError
func NewUnsupported(feature, reason string) *UnsupportedError {
	return &UnsupportedError{
		Feature: feature,
		Reason:  reason,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

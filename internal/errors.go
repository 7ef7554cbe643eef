package internal

import (
	"errors"
	"fmt"
)

var (
	// ErrServiceUnavailable reports a network or HTTP failure reaching a remote service
	ErrServiceUnavailable = errors.New("service unavailable")
	// ErrMalformedResponse reports a response whose shape does not match expectations
	ErrMalformedResponse = errors.New("malformed response")
	// ErrNameConflict reports a name collision signaled by the remote business logic
	ErrNameConflict = errors.New("name already exists")
	// ErrEmptyInput reports blank user input (name, message, file, selection)
	ErrEmptyInput = errors.New("empty input")
)

// RequestError represents a failed call to a remote service
type RequestError struct {
	Op       string // "list workspaces", "upload document", ...
	Endpoint string
	Status   int // HTTP status, 0 when the request never completed
	Err      error
}

func (e *RequestError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("request error: %s %s (status %d): %v", e.Op, e.Endpoint, e.Status, e.Err)
	}
	return fmt.Sprintf("request error: %s %s: %v", e.Op, e.Endpoint, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Is makes every RequestError match ErrServiceUnavailable
func (e *RequestError) Is(target error) bool {
	return target == ErrServiceUnavailable
}

// DecodeError represents a response payload that could not be decoded
type DecodeError struct {
	Source string // "workspace", "document metadata", ...
	Key    string // document path, endpoint, ...
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error [%s] %s: %v", e.Source, e.Key, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is makes every DecodeError match ErrMalformedResponse
func (e *DecodeError) Is(target error) bool {
	return target == ErrMalformedResponse
}

// UploadError reports which phase of a document upload failed.
// A failure in the "index" phase means the document was ingested but is not searchable yet.
type UploadError struct {
	Phase    string // "ingest" or "index"
	Location string
	Err      error
}

func (e *UploadError) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("upload error [%s] %s: %v", e.Phase, e.Location, e.Err)
	}
	return fmt.Sprintf("upload error [%s]: %v", e.Phase, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

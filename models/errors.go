// ABOUTME: Error taxonomy shared by the repository, wizard and front ends
// ABOUTME: Validation, remote, upload and partial-failure errors plus ErrNotFound
package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound marks a missing profile, listing or document.
var ErrNotFound = errors.New("not found")

// ValidationError carries field-scoped messages that block a transition.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns nil when fields is empty.
func NewValidationError(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Field returns the message recorded for field, if any.
func (e *ValidationError) Field(field string) (string, bool) {
	msg, ok := e.Fields[field]
	return msg, ok
}

// RemoteError wraps a Document Store, Identity Service or Blob Store failure.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// UploadError reports the image that made a commit batch fail.
type UploadError struct {
	Name string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("failed to upload image %q: %v", e.Name, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// PartialFailureError means an identity exists without its profile document.
type PartialFailureError struct {
	IdentityID string
	Err        error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("identity %s created but profile was not saved: %v", e.IdentityID, e.Err)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }

// Package apperr holds the error taxonomy shared by the client, the upload
// pipeline, the wizard and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// AuthError means the admin credentials are missing, expired or could not be refreshed.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s: %v", e.Reason, e.Err)
	}
	return "auth: " + e.Reason
}

func (e *AuthError) Unwrap() error { return e.Err }

// APIError is a non-2xx backend response.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend %s %s returned %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// Upload stages, in pipeline order.
const (
	StagePresign = "presign"
	StageEncode  = "encode"
	StagePut     = "put"
	StageCommit  = "commit"
)

// UploadError is scoped to one slot; other slots are unaffected.
type UploadError struct {
	Slot  string
	Stage string
	Err   error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s failed at %s: %v", e.Slot, e.Stage, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// ValidationError blocks navigation or submission. Fields maps a field name to its reason.
type ValidationError struct {
	Step   string
	Fields map[string]string
}

func NewValidationError(step string) *ValidationError {
	return &ValidationError{Step: step, Fields: map[string]string{}}
}

func (e *ValidationError) Add(field, reason string) {
	e.Fields[field] = reason
}

// Empty reports whether no field failed.
func (e *ValidationError) Empty() bool { return len(e.Fields) == 0 }

// Missing returns the failing field names in sorted order.
func (e *ValidationError) Missing() []string {
	out := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: invalid fields: %s", e.Step, strings.Join(e.Missing(), ", "))
}

// OrNil returns nil when nothing failed, so callers can `return v.OrNil()`.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

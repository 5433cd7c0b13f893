package imageman

import (
	"errors"
	"fmt"
	"strings"
)

// Local failures - these never involve the network.
var (
	ErrMissingConfiguration = errors.New("imageman: required configuration is missing")
	ErrArgument             = errors.New("imageman: invalid argument")
	ErrNilAttachable        = fmt.Errorf("expect a value of attachable, got nil: %w", ErrArgument)
)

// ErrImage is the common kind for every client error reported by the
// imageman service itself. The refinements below unwrap to it, so callers
// can match either the specific case or the whole family.
var (
	ErrImage            = errors.New("imageman: image error")
	ErrDuplicateImage   = fmt.Errorf("duplicate image: %w", ErrImage)
	ErrFileNotSupported = fmt.Errorf("file not supported: %w", ErrImage)
	ErrForbidden        = fmt.Errorf("forbidden: %w", ErrImage)
	ErrImageNotFound    = fmt.Errorf("image not found: %w", ErrImage)
)

// Remote failures outside the ErrImage family.
var (
	// ErrSignedURL covers 4xx responses from a presigned upload target,
	// which is never the imageman domain itself.
	ErrSignedURL = errors.New("imageman: signed-url upload rejected")
	ErrServer    = errors.New("imageman: server error")
)

// APIError carries the error payload the service attaches to a failed
// request. Kind is one of the sentinel errors above; absent payload fields
// stay zero and are left out of the message.
type APIError struct {
	Kind       error
	RequestID  string
	Message    string
	Reason     string
	StatusCode int
	ErrorCode  int
}

func (e *APIError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.ErrorCode != 0 {
		fmt.Fprintf(&b, " (code %d)", e.ErrorCode)
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	if e.Reason != "" {
		b.WriteString(": " + e.Reason)
	}
	if e.RequestID != "" {
		fmt.Fprintf(&b, " [request %s]", e.RequestID)
	}
	return b.String()
}

func (e *APIError) Unwrap() error {
	return e.Kind
}

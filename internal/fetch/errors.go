package fetch

import (
	"errors"
	"fmt"
	"io"
	"net/url"
)

// Kind classifies why a fetch attempt failed.
type Kind int

const (
	// KindNetwork covers transport failures: DNS, refused connections,
	// timeouts and cancelled contexts.
	KindNetwork Kind = iota + 1
	// KindHTTPStatus is a response outside the 2xx range.
	KindHTTPStatus
	// KindDecode is a body that is not valid JSON for the target type.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindHTTPStatus:
		return "http-status"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is the failure of a single fetch attempt. The kind is kept intact
// until Message formats it for display.
type Error struct {
	Kind       Kind
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case KindHTTPStatus:
		return fmt.Sprintf("fetch: GET %s: status %d", e.URL, e.StatusCode)
	default:
		return fmt.Sprintf("fetch: GET %s: %s: %v", e.URL, e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Message is the human-readable form shown to the user. HTTP status
// failures render as "Error: <code>".
func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	switch e.Kind {
	case KindHTTPStatus:
		return fmt.Sprintf("Error: %d", e.StatusCode)
	case KindDecode:
		if errors.Is(e.Err, io.EOF) {
			return "empty response body"
		}
	case KindNetwork:
		var ue *url.Error
		if errors.As(e.Err, &ue) && ue.Err != nil {
			return ue.Err.Error()
		}
	}
	if e.Err == nil {
		return e.Kind.String() + " failure"
	}
	return e.Err.Error()
}

// AsError extracts a *Error from err. Errors that did not come from this
// package are reported as network failures.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}
	return &Error{Kind: KindNetwork, Err: err}
}

// KindOf returns the failure kind of err, or zero for nil.
func KindOf(err error) Kind {
	if err == nil {
		return 0
	}
	return AsError(err).Kind
}

// MessageOf formats err for display.
func MessageOf(err error) string {
	return AsError(err).Message()
}

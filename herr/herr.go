// Package herr defines the HTTP-bearing error shape shared by the
// parser, binder and connection loop, per spec §7: every error that
// should render as a specific HTTP status rather than a generic 500
// carries its own code, reason phrase and explanation.
package herr

import "fmt"

// HTTPError is implemented by any error the connection loop should
// render verbatim instead of mapping to 500.
type HTTPError interface {
	error
	StatusCode() int
	Reason() string
	Explanation() string
}

// Error is the concrete HTTPError used throughout this module.
type Error struct {
	Code            int
	ReasonPhrase    string
	ExplanationText string
}

// New builds an Error. If reason is empty, StatusText(code) is used.
func New(code int, reason, explanation string) *Error {
	if reason == "" {
		reason = StatusText(code)
	}
	return &Error{Code: code, ReasonPhrase: reason, ExplanationText: explanation}
}

func (e *Error) Error() string {
	if e.ExplanationText != "" {
		return fmt.Sprintf("%d %s: %s", e.Code, e.ReasonPhrase, e.ExplanationText)
	}
	return fmt.Sprintf("%d %s", e.Code, e.ReasonPhrase)
}

func (e *Error) StatusCode() int      { return e.Code }
func (e *Error) Reason() string       { return e.ReasonPhrase }
func (e *Error) Explanation() string  { return e.ExplanationText }

// BadRequest is a convenience constructor for the parser/binder's most
// common case.
func BadRequest(explanation string) *Error { return New(400, "Bad Request", explanation) }

// TooLarge builds the 413 the parser returns when content-length
// exceeds the configured bound.
func TooLarge(explanation string) *Error { return New(413, "Request Entity Too Large", explanation) }

// HeaderTooLarge builds the 431 the parser returns on an oversized
// line.
func HeaderTooLarge(explanation string) *Error {
	return New(431, "Request Header Fields Too Large", explanation)
}

// StatusText returns a reason phrase for well-known codes, falling
// back to a generic label.
func StatusText(code int) string {
	if t, ok := statusText[code]; ok {
		return t
	}
	return "Unknown Status"
}

var statusText = map[int]string{
	200: "OK",
	301: "Moved Permanently",
	302: "Found",
	400: "Bad Request",
	404: "Not Found",
	408: "Request Timeout",
	413: "Request Entity Too Large",
	429: "Too Many Requests",
	431: "Request Header Fields Too Large",
	500: "Internal Server Error",
	502: "Bad Gateway",
	503: "Service Unavailable",
	504: "Gateway Timeout",
}

package binder

import "github.com/badu/meander/herr"

// All binder errors map to 400 Bad Request with the message as the
// body (spec §7).

// ExtraAttributeError is returned when content carries a key with no
// matching declared parameter and the handler has no **kwargs sink, or
// when positional route-captures outnumber the handler's parameters.
type ExtraAttributeError struct{ herr.HTTPError }

func newExtraAttributeError(msg string) *ExtraAttributeError {
	return &ExtraAttributeError{herr.BadRequest(msg)}
}

// DuplicateAttributeError is returned when a positional route-capture
// and a named content key both target the same parameter.
type DuplicateAttributeError struct{ herr.HTTPError }

func newDuplicateAttributeError(msg string) *DuplicateAttributeError {
	return &DuplicateAttributeError{herr.BadRequest(msg)}
}

// RequiredAttributeError is returned when a required parameter has no
// supplied value.
type RequiredAttributeError struct{ herr.HTTPError }

func newRequiredAttributeError(msg string) *RequiredAttributeError {
	return &RequiredAttributeError{herr.BadRequest(msg)}
}

// PayloadValueError is returned when content isn't a mapping where one
// was required, or a parameter's type conversion fails.
type PayloadValueError struct{ herr.HTTPError }

func newPayloadValueError(msg string) *PayloadValueError {
	return &PayloadValueError{herr.BadRequest(msg)}
}

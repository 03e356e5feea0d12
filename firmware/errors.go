package firmware

import (
	"errors"
	"fmt"
)

// ParseErrorKind classifies why a source could not be resolved.
type ParseErrorKind int

const (
	// UnsupportedFormat means the input is not in a format the probe handles.
	UnsupportedFormat ParseErrorKind = iota

	// IOFailure means the input could not be read.
	IOFailure

	// Corrupted means the input looks like a supported format but its
	// content is invalid.
	Corrupted
)

func (k ParseErrorKind) String() string {
	switch k {
	case UnsupportedFormat:
		return "unsupported format"
	case IOFailure:
		return "i/o failure"
	case Corrupted:
		return "corrupted"
	default:
		return "unknown"
	}
}

// ParseError reports a failure to classify a firmware source.
type ParseError struct {
	Kind ParseErrorKind

	// URI is the source that failed to resolve
	URI string

	// Err is the underlying failure; for resolver errors it aggregates the
	// failures of every probe.
	Err error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("parse %s: %s", e.URI, e.Kind)
	}
	return fmt.Sprintf("parse %s: %s: %v", e.URI, e.Kind, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsParseError returns true if err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// KindOf returns the ParseErrorKind of err, or UnsupportedFormat if err is
// not a *ParseError.
func KindOf(err error) ParseErrorKind {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return UnsupportedFormat
}

func newParseError(kind ParseErrorKind, uri string, format string, args ...any) *ParseError {
	return &ParseError{Kind: kind, URI: uri, Err: fmt.Errorf(format, args...)}
}

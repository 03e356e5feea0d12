package dfu

import (
	"errors"
	"fmt"

	"github.com/moffa90/go-dfu/engine"
	"github.com/moffa90/go-dfu/firmware"
)

var (
	// ErrInvalidStateForCommand is matched by every *CommandError.
	ErrInvalidStateForCommand = errors.New("invalid state for command")

	// ErrUnsupportedAlgorithm is matched by a *ConfigurationError of kind
	// UnsupportedAlgorithm.
	ErrUnsupportedAlgorithm = errors.New("unsupported digest algorithm")

	// ErrCancelled is returned by Load and Start when the session was
	// cancelled while they were running.
	ErrCancelled = errors.New("upgrade cancelled")

	// ErrNoSession is returned by Wait before any session was loaded.
	ErrNoSession = errors.New("no upgrade session")
)

// CommandError indicates a command that is not valid in the current state.
// The state is left unchanged and the observer is not notified.
type CommandError struct {
	Command string
	State   State
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s %s", e.Command, ErrInvalidStateForCommand, e.State)
}

// Is reports whether target is ErrInvalidStateForCommand.
func (e *CommandError) Is(target error) bool {
	return target == ErrInvalidStateForCommand
}

// ConfigurationErrorKind classifies configuration failures.
type ConfigurationErrorKind int

const (
	// UnsupportedAlgorithm means the envelope offers no SHA-256 digest.
	UnsupportedAlgorithm ConfigurationErrorKind = iota

	// UnsupportedSource means the source is not a known variant.
	UnsupportedSource

	// InvalidConfiguration means the derived configuration failed validation.
	InvalidConfiguration
)

func (k ConfigurationErrorKind) String() string {
	switch k {
	case UnsupportedAlgorithm:
		return "unsupported algorithm"
	case UnsupportedSource:
		return "unsupported source"
	case InvalidConfiguration:
		return "invalid configuration"
	default:
		return "unknown"
	}
}

// ConfigurationError indicates that no engine configuration could be derived
// for a source.
type ConfigurationError struct {
	Kind ConfigurationErrorKind

	// Available lists the digest algorithms the envelope offered
	Available []firmware.DigestAlgorithm

	Err error
}

func (e *ConfigurationError) Error() string {
	switch {
	case e.Kind == UnsupportedAlgorithm:
		return fmt.Sprintf("configuration: %s: %s required, envelope offers %v",
			ErrUnsupportedAlgorithm, firmware.SHA256, e.Available)
	case e.Err != nil:
		return fmt.Sprintf("configuration: %s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("configuration: %s", e.Kind)
	}
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrUnsupportedAlgorithm for that kind.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrUnsupportedAlgorithm && e.Kind == UnsupportedAlgorithm
}

// EngineError carries a failure reported by the upgrade engine unchanged.
type EngineError struct {
	// State is the engine state at failure; engine.StateNone if the engine
	// never started
	State engine.State

	Err error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine failed in state %s: %v", e.State, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

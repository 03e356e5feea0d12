package dfu

import (
	"time"

	"github.com/moffa90/go-dfu/engine"
)

// Progress contains information about the upload progress.
// Passed to ProgressCallback while an upgrade is running.
type Progress struct {
	// SessionID identifies the upgrade session
	SessionID string

	// Phase is the engine state the progress was reported in
	Phase engine.State

	// BytesSent is the number of bytes of the current image uploaded so far
	BytesSent int

	// ImageSize is the size of the current image
	ImageSize int

	// Percentage is the completion percentage of the current image (0.0 to 100.0)
	Percentage float64

	// ElapsedTime is the time elapsed since the engine was started
	ElapsedTime time.Duration
}

// ProgressCallback is called for every engine progress report.
// Implementations should return quickly; they run on the engine's goroutine.
//
// Example:
//
//	o := dfu.New(transport, newEngine,
//	    dfu.WithProgressCallback(func(p dfu.Progress) {
//	        fmt.Printf("[%s] %.1f%%\n", p.Phase, p.Percentage)
//	    }),
//	)
type ProgressCallback func(Progress)

// Logger is an optional logging interface that can be provided to the
// orchestrator. Every record carries a "category" key.
//
// NewLogrusLogger adapts a logrus logger.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}

// Observer receives the terminal outcome of each upgrade session exactly once.
// Cancelled sessions are not reported to the observer; use Session.Wait.
type Observer interface {
	// UpgradeDidFail reports a failed session. state is engine.StateNone when
	// the engine was never started (parse and configuration failures).
	UpgradeDidFail(state engine.State, err error)

	// UpgradeDidComplete reports a successful session.
	UpgradeDidComplete()
}

package dfu

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/moffa90/go-dfu/engine"
	"github.com/moffa90/go-dfu/firmware"
	"github.com/moffa90/go-dfu/resource"
)

// Outcome is the terminal result of a session.
type Outcome struct {
	// State is StateCompleted, StateFailed or StateCancelled
	State State

	// EngineState is the engine state when the session ended;
	// engine.StateNone if the engine never started
	EngineState engine.State

	// Err is set for failed sessions
	Err error
}

// Session is one upgrade attempt: a source, its configuration, the engine
// driving it and the resources supplied for it. Mutable fields are guarded
// by the owning Orchestrator.
type Session struct {
	id        string
	uri       string
	createdAt time.Time
	registry  *resource.Registry

	source      firmware.Source
	selection   *Selection
	engine      engine.Engine
	engineState engine.State
	requested   resource.Identifier
	startedAt   time.Time
	lastError   error

	once    sync.Once
	done    chan struct{}
	outcome Outcome
}

func newSession(uri string) *Session {
	return &Session{
		id:          uuid.NewString(),
		uri:         uri,
		createdAt:   time.Now(),
		registry:    resource.NewRegistry(),
		engineState: engine.StateNone,
		done:        make(chan struct{}),
	}
}

// ID returns the unique session id.
func (s *Session) ID() string { return s.id }

// URI returns the source the session was loaded from.
func (s *Session) URI() string { return s.uri }

// CreatedAt returns when the session was loaded.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Done is closed once the session reaches a terminal state.
func (s *Session) Done() <-chan struct{} { return s.done }

// Outcome returns the terminal outcome; ok is false while the session is
// still running.
func (s *Session) Outcome() (out Outcome, ok bool) {
	select {
	case <-s.done:
		return s.outcome, true
	default:
		return Outcome{}, false
	}
}

// Wait blocks until the session ends or ctx is done.
func (s *Session) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-s.done:
		return s.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// finish records the outcome. Only the first call has an effect.
func (s *Session) finish(out Outcome) bool {
	first := false
	s.once.Do(func() {
		s.outcome = out
		s.lastError = out.Err
		close(s.done)
		first = true
	})
	return first
}

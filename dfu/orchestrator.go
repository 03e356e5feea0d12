package dfu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/looplab/fsm"

	"github.com/moffa90/go-dfu/engine"
	"github.com/moffa90/go-dfu/firmware"
	"github.com/moffa90/go-dfu/resource"
)

// logCategory is attached to every log record.
const logCategory = "dfu"

// Orchestrator drives firmware upgrade sessions: it resolves a source,
// derives the engine configuration, starts the engine and relays commands
// and callbacks until the session ends.
//
// One session is live at a time. Orchestrator is safe for concurrent use;
// engine callbacks and commands are serialized on a single mutex.
type Orchestrator struct {
	transport io.ReadWriter
	newEngine engine.Factory
	config    Config
	selector  *Selector

	mu      sync.Mutex
	machine *fsm.FSM
	session *Session
}

// New creates an Orchestrator for the device behind transport. newEngine is
// called once per started session to build the engine; it must not invoke
// the delegate before returning.
//
// Example:
//
//	o := dfu.New(transport, newEngine,
//	    dfu.WithObserver(observer),
//	    dfu.WithLogger(dfu.NewLogrusLogger(logrus.StandardLogger())),
//	)
func New(transport io.ReadWriter, newEngine engine.Factory, opts ...Option) *Orchestrator {
	if transport == nil {
		panic("transport cannot be nil")
	}
	if newEngine == nil {
		panic("engine factory cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	o := &Orchestrator{
		transport: transport,
		newEngine: newEngine,
		config:    cfg,
		selector:  NewSelector(cfg.Defaults),
	}
	o.machine = newStateMachine(func(_ context.Context, e *fsm.Event) {
		o.logDebug("state changed", "from", e.Src, "to", e.Dst)
	})
	return o
}

// Upgrade loads the source at uri and starts the upgrade.
//
// Example:
//
//	if err := o.Upgrade(ctx, "file:///tmp/app_update.zip"); err != nil {
//	    log.Fatal(err)
//	}
//	outcome, err := o.Wait(ctx)
func (o *Orchestrator) Upgrade(ctx context.Context, uri string) error {
	if err := o.Load(ctx, uri); err != nil {
		return err
	}
	return o.Start(ctx)
}

// Load opens a new session and resolves its source. It may block on file I/O
// and must not be called from an engine callback. It fails with a
// *CommandError while another session is live, including a loaded one that
// was never started; cancel that session first.
//
// A resolution failure ends the session in StateFailed and is reported to
// the observer with engine.StateNone; the engine is never built.
func (o *Orchestrator) Load(ctx context.Context, uri string) error {
	o.mu.Lock()
	if err := fire(o.machine, evLoad); err != nil {
		state := o.currentState()
		o.mu.Unlock()
		return &CommandError{Command: "load", State: state}
	}
	s := newSession(uri)
	o.session = s
	o.mu.Unlock()

	o.config.Metrics.sessionStarted()
	o.logInfo("session started", "session", s.id, "uri", uri)

	src, err := o.config.Resolver.Resolve(ctx, uri)

	o.mu.Lock()
	if o.session != s || o.currentState() != StateResolving {
		o.mu.Unlock()
		return fmt.Errorf("load %s: %w", uri, ErrCancelled)
	}
	if err != nil {
		settle := o.settleLocked(s, evFail, Outcome{State: StateFailed, EngineState: engine.StateNone, Err: err})
		o.mu.Unlock()
		settle()
		return err
	}
	s.source = src
	_ = fire(o.machine, evResolved)
	o.mu.Unlock()

	o.logInfo("source resolved", "session", s.id, "variant", src.Kind().String())
	return nil
}

// Start derives the engine configuration for the loaded source, builds the
// engine and starts it. It fails with a *CommandError unless a source is
// loaded and no upgrade is running.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	s := o.session
	if s == nil || o.currentState() != StateReady {
		state := o.currentState()
		o.mu.Unlock()
		return &CommandError{Command: "start", State: state}
	}

	if err := ctx.Err(); err != nil {
		o.mu.Unlock()
		return err
	}

	sel, err := o.selector.SelectFor(s.source)
	if err != nil {
		settle := o.settleLocked(s, evFail, Outcome{State: StateFailed, EngineState: engine.StateNone, Err: err})
		o.mu.Unlock()
		settle()
		return err
	}
	s.selection = sel
	_ = fire(o.machine, evStart)

	eng, err := o.newEngine(o.transport, &sessionDelegate{o: o, s: s})
	if err != nil {
		eerr := &EngineError{State: engine.StateNone, Err: fmt.Errorf("build engine: %w", err)}
		settle := o.settleLocked(s, evFail, Outcome{State: StateFailed, EngineState: engine.StateNone, Err: eerr})
		o.mu.Unlock()
		settle()
		return eerr
	}
	s.engine = eng
	s.startedAt = time.Now()
	o.mu.Unlock()

	o.logInfo("upgrade start",
		"session", s.id,
		"variant", s.source.Kind().String(),
		"mode", sel.Configuration.UpgradeMode.String(),
		"suit_mode", sel.Configuration.SuitMode,
		"erase_app_settings", sel.Configuration.EraseAppSettings,
	)

	switch src := s.source.(type) {
	case *firmware.Package:
		err = eng.Start(src.Images, sel.Configuration)
	case *firmware.Envelope:
		err = eng.StartEnvelope(sel.Digest, src.Payload, sel.Configuration)
	}

	o.mu.Lock()
	if err != nil {
		eerr := &EngineError{State: engine.StateNone, Err: err}
		settle := o.settleLocked(s, evFail, Outcome{State: StateFailed, EngineState: engine.StateNone, Err: eerr})
		o.mu.Unlock()
		if settle != nil {
			settle()
		}
		return eerr
	}
	current := o.session == s
	if current && o.currentState() == StateStarting {
		_ = fire(o.machine, evStarted)
	}
	cancelled := !current || o.currentState() == StateCancelled
	o.mu.Unlock()

	if cancelled {
		// Cancel may have reached the engine before it was started.
		eng.Cancel()
		return fmt.Errorf("start: %w", ErrCancelled)
	}
	return nil
}

// Pause pauses a running upload. Only valid in StateInProgress.
func (o *Orchestrator) Pause() error {
	o.mu.Lock()
	if err := fire(o.machine, evPause); err != nil {
		state := o.currentState()
		o.mu.Unlock()
		return &CommandError{Command: "pause", State: state}
	}
	s := o.session
	o.mu.Unlock()

	s.engine.Pause()
	o.logInfo("upgrade paused", "session", s.id)
	return nil
}

// Resume resumes a paused upload. Only valid in StatePaused.
func (o *Orchestrator) Resume() error {
	o.mu.Lock()
	if err := fire(o.machine, evResume); err != nil {
		state := o.currentState()
		o.mu.Unlock()
		return &CommandError{Command: "resume", State: state}
	}
	s := o.session

	// A resource requested while paused is outstanding again.
	var supply bool
	if !s.requested.IsZero() {
		_ = fire(o.machine, evRequestResource)
		if _, err := s.registry.Lookup(s.requested); err == nil {
			_ = fire(o.machine, evSupplyResource)
			supply = true
		}
	}
	id := s.requested
	if supply {
		s.requested = resource.Identifier{}
	}
	eng := s.engine
	o.mu.Unlock()

	eng.Resume()
	o.logInfo("upgrade resumed", "session", s.id)
	if supply {
		return o.supply(s, eng, id)
	}
	return nil
}

// Cancel ends the current session in StateCancelled and aborts the engine if
// it was started. Terminal sessions cannot be cancelled.
func (o *Orchestrator) Cancel() error {
	o.mu.Lock()
	s := o.session
	if s == nil {
		if err := fire(o.machine, evCancel); err != nil {
			state := o.currentState()
			o.mu.Unlock()
			return &CommandError{Command: "cancel", State: state}
		}
		o.mu.Unlock()
		o.logInfo("upgrade cancelled")
		return nil
	}

	settle := o.settleLocked(s, evCancel, Outcome{State: StateCancelled, EngineState: s.engineState})
	if settle == nil {
		state := o.currentState()
		o.mu.Unlock()
		return &CommandError{Command: "cancel", State: state}
	}
	eng := s.engine
	o.mu.Unlock()

	if eng != nil {
		eng.Cancel()
	}
	settle()
	return nil
}

// UploadResource supplies the payload for a resource URI of the form
// scheme://name. If the engine is waiting for that resource the upgrade
// resumes; otherwise the payload is kept for a later request. Malformed URIs
// are rejected without touching the session.
func (o *Orchestrator) UploadResource(uri string, data []byte) error {
	id, err := resource.ParseIdentifier(uri)
	if err != nil {
		o.logError("resource upload rejected", "uri", uri, "error", err)
		return err
	}

	o.mu.Lock()
	s := o.session
	state := o.currentState()
	if s == nil || state.IsTerminal() {
		o.mu.Unlock()
		return &CommandError{Command: "upload_resource", State: state}
	}
	if _, err := s.registry.RegisterOrUpdate(id, data); err != nil {
		o.mu.Unlock()
		return err
	}

	var eng engine.Engine
	if state == StateResourceRequested && s.requested == id {
		_ = fire(o.machine, evSupplyResource)
		s.requested = resource.Identifier{}
		eng = s.engine
	}
	o.mu.Unlock()

	o.config.Metrics.resourceUploaded()
	if eng == nil {
		o.logDebug("resource registered", "session", s.id, "resource", id.Name(), "size", len(data))
		return nil
	}
	return o.supply(s, eng, id)
}

// supply hands a registered resource to the engine.
func (o *Orchestrator) supply(s *Session, eng engine.Engine, id resource.Identifier) error {
	payload, err := s.registry.Lookup(id)
	if err != nil {
		return err
	}

	if err := eng.UploadResource(id, payload); err != nil {
		o.mu.Lock()
		eerr := &EngineError{State: s.engineState, Err: fmt.Errorf("upload resource %s: %w", id, err)}
		settle := o.settleLocked(s, evFail, Outcome{State: StateFailed, EngineState: s.engineState, Err: eerr})
		o.mu.Unlock()
		if settle != nil {
			settle()
		}
		return eerr
	}

	o.logInfo("resource supplied", "session", s.id, "resource", id.Name(), "size", len(payload))
	return nil
}

// LookupResource returns the payload registered for a resource URI in the
// current session.
func (o *Orchestrator) LookupResource(uri string) ([]byte, error) {
	id, err := resource.ParseIdentifier(uri)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	s := o.session
	o.mu.Unlock()
	if s == nil {
		return nil, fmt.Errorf("%w: %s", resource.ErrNotFound, id)
	}
	return s.registry.Lookup(id)
}

// State returns the current session state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.currentState()
}

// IsPaused reports whether the session is paused.
func (o *Orchestrator) IsPaused() bool {
	return o.State() == StatePaused
}

// IsInProgress reports whether an upgrade is underway: starting, uploading,
// waiting for a resource or paused.
func (o *Orchestrator) IsInProgress() bool {
	return o.State().isUnderway()
}

// Session returns the current session, or nil before the first Load.
func (o *Orchestrator) Session() *Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session
}

// Source returns the resolved source of the current session.
func (o *Orchestrator) Source() firmware.Source {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session == nil {
		return nil
	}
	return o.session.source
}

// Configuration returns the engine configuration of the current session;
// ok is false until Start derived one.
func (o *Orchestrator) Configuration() (cfg engine.Configuration, ok bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session == nil || o.session.selection == nil {
		return engine.Configuration{}, false
	}
	return o.session.selection.Configuration, true
}

// LastError returns the error that ended the current session, if any.
func (o *Orchestrator) LastError() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session == nil {
		return nil
	}
	return o.session.lastError
}

// Wait blocks until the current session ends or ctx is done.
func (o *Orchestrator) Wait(ctx context.Context) (Outcome, error) {
	s := o.Session()
	if s == nil {
		return Outcome{}, ErrNoSession
	}
	return s.Wait(ctx)
}

func (o *Orchestrator) currentState() State {
	return State(o.machine.Current())
}

// settleLocked moves s to a terminal state through event. It returns nil if
// the transition is not allowed (the session already ended). Otherwise the
// returned function logs, counts and notifies; it must be called without
// holding o.mu.
func (o *Orchestrator) settleLocked(s *Session, event string, out Outcome) func() {
	if o.session != s {
		return nil
	}
	if err := fire(o.machine, event); err != nil {
		return nil
	}
	if !s.finish(out) {
		return func() {}
	}
	return func() { o.report(s, out) }
}

// report logs an outcome before handing it to the observer.
func (o *Orchestrator) report(s *Session, out Outcome) {
	o.config.Metrics.sessionEnded(out.State)

	switch out.State {
	case StateFailed:
		var (
			pe *firmware.ParseError
			ce *ConfigurationError
		)
		switch {
		case errors.As(out.Err, &pe):
			o.logError("parse failure", "session", s.id, "uri", s.uri, "kind", pe.Kind.String(), "error", out.Err)
		case errors.As(out.Err, &ce):
			o.logError("configuration failure", "session", s.id, "kind", ce.Kind.String(), "error", out.Err)
		default:
			o.logError("upgrade failure", "session", s.id, "engine_state", string(out.EngineState), "error", out.Err)
		}
		if o.config.Observer != nil {
			o.config.Observer.UpgradeDidFail(out.EngineState, out.Err)
		}
	case StateCompleted:
		o.logInfo("upgrade completed", "session", s.id, "elapsed", time.Since(s.startedAt).String())
		if o.config.Observer != nil {
			o.config.Observer.UpgradeDidComplete()
		}
	case StateCancelled:
		o.logInfo("upgrade cancelled", "session", s.id, "engine_state", string(out.EngineState))
	}
}

// reportProgress calls the progress callback if configured.
func (o *Orchestrator) reportProgress(progress Progress) {
	if o.config.ProgressCallback != nil {
		o.config.ProgressCallback(progress)
	}
}

// logDebug logs a debug message if a logger is configured.
func (o *Orchestrator) logDebug(msg string, keysAndValues ...interface{}) {
	if o.config.Logger != nil {
		defer func() { _ = recover() }()
		o.config.Logger.Debug(msg, withCategory(keysAndValues)...)
	}
}

// logInfo logs an info message if a logger is configured.
func (o *Orchestrator) logInfo(msg string, keysAndValues ...interface{}) {
	if o.config.Logger != nil {
		defer func() { _ = recover() }()
		o.config.Logger.Info(msg, withCategory(keysAndValues)...)
	}
}

// logError logs an error message if a logger is configured.
func (o *Orchestrator) logError(msg string, keysAndValues ...interface{}) {
	if o.config.Logger != nil {
		defer func() { _ = recover() }()
		o.config.Logger.Error(msg, withCategory(keysAndValues)...)
	}
}

func withCategory(keysAndValues []interface{}) []interface{} {
	return append([]interface{}{"category", logCategory}, keysAndValues...)
}

package dfu

import (
	"fmt"
	"time"

	"github.com/moffa90/go-dfu/engine"
	"github.com/moffa90/go-dfu/resource"
)

// sessionDelegate receives engine callbacks for one session. Callbacks that
// arrive after the session was replaced are dropped.
type sessionDelegate struct {
	o *Orchestrator
	s *Session
}

var _ engine.Delegate = (*sessionDelegate)(nil)

func (d *sessionDelegate) UpgradeStateDidChange(from, to engine.State) {
	d.o.mu.Lock()
	if d.o.session != d.s {
		d.o.mu.Unlock()
		return
	}
	d.s.engineState = to
	d.o.mu.Unlock()

	d.o.logDebug("engine state changed", "session", d.s.id, "from", string(from), "to", string(to))
}

func (d *sessionDelegate) UploadProgressDidChange(bytesSent, imageSize int, timestamp time.Time) {
	d.o.mu.Lock()
	if d.o.session != d.s || d.o.currentState().IsTerminal() {
		d.o.mu.Unlock()
		return
	}
	phase := d.s.engineState
	startedAt := d.s.startedAt
	d.o.mu.Unlock()

	percentage := 0.0
	if imageSize > 0 {
		percentage = float64(bytesSent) / float64(imageSize) * 100
	}

	d.o.reportProgress(Progress{
		SessionID:   d.s.id,
		Phase:       phase,
		BytesSent:   bytesSent,
		ImageSize:   imageSize,
		Percentage:  percentage,
		ElapsedTime: timestamp.Sub(startedAt),
	})
}

func (d *sessionDelegate) UploadRequestsResource(uri string) {
	o, s := d.o, d.s

	o.mu.Lock()
	if o.session != s {
		o.mu.Unlock()
		return
	}

	id, err := resource.ParseIdentifier(uri)
	if err != nil {
		eerr := &EngineError{State: s.engineState, Err: fmt.Errorf("resource request %q: %w", uri, err)}
		settle := o.settleLocked(s, evFail, Outcome{State: StateFailed, EngineState: s.engineState, Err: eerr})
		eng := s.engine
		o.mu.Unlock()
		if settle == nil {
			return
		}
		if eng != nil {
			eng.Cancel()
		}
		settle()
		return
	}

	if o.currentState() == StatePaused {
		// Held until Resume.
		s.requested = id
		o.mu.Unlock()
		o.config.Metrics.resourceRequested()
		o.logInfo("resource requested", "session", s.id, "resource", id.Name(), "state", StatePaused.String())
		return
	}

	if err := fire(o.machine, evRequestResource); err != nil {
		state := o.currentState()
		o.mu.Unlock()
		o.logError("resource request ignored", "session", s.id, "resource", id.Name(), "state", state.String())
		return
	}
	s.requested = id

	var eng engine.Engine
	if _, err := s.registry.Lookup(id); err == nil {
		_ = fire(o.machine, evSupplyResource)
		s.requested = resource.Identifier{}
		eng = s.engine
	}
	o.mu.Unlock()

	o.config.Metrics.resourceRequested()
	o.logInfo("resource requested", "session", s.id, "resource", id.Name())

	if eng != nil {
		_ = o.supply(s, eng, id)
	}
}

func (d *sessionDelegate) UpgradeDidComplete() {
	d.o.mu.Lock()
	settle := d.o.settleLocked(d.s, evComplete, Outcome{State: StateCompleted, EngineState: engine.StateSuccess})
	d.o.mu.Unlock()

	if settle != nil {
		settle()
	}
}

func (d *sessionDelegate) UpgradeDidFail(state engine.State, err error) {
	d.o.mu.Lock()
	if d.o.session == d.s {
		d.s.engineState = state
	}
	eerr := &EngineError{State: state, Err: err}
	settle := d.o.settleLocked(d.s, evFail, Outcome{State: StateFailed, EngineState: state, Err: eerr})
	d.o.mu.Unlock()

	if settle != nil {
		settle()
	}
}

func (d *sessionDelegate) UpgradeDidCancel(state engine.State) {
	d.o.mu.Lock()
	settle := d.o.settleLocked(d.s, evCancel, Outcome{State: StateCancelled, EngineState: state})
	d.o.mu.Unlock()

	if settle != nil {
		settle()
	}
}

// Package enginetest provides a scriptable in-memory engine.Engine.
//
// The fake records every call made by the orchestrator and lets a test play
// the engine's side of the conversation:
//
//	f := enginetest.NewFactory()
//	o := dfu.New(transport, f.New)
//	_ = o.Upgrade(ctx, "app_update.zip")
//
//	e := f.Last()
//	e.RequestResource("file://cert.bin")
//	e.Complete()
package enginetest

import (
	"io"
	"sync"
	"time"

	"github.com/moffa90/go-dfu/engine"
	"github.com/moffa90/go-dfu/firmware"
	"github.com/moffa90/go-dfu/resource"
)

// Engine is a fake engine.Engine. Driving methods (Progress, RequestResource,
// Complete, Fail, ...) invoke the delegate synchronously on the caller's
// goroutine.
type Engine struct {
	Transport io.ReadWriter

	delegate engine.Delegate

	mu         sync.Mutex
	startErr   error
	starts     int
	images     []firmware.Image
	digest     []byte
	payload    []byte
	config     engine.Configuration
	paused     bool
	inProgress bool
	pauses     int
	resumes    int
	cancels    int
	supplied   map[string][]byte
}

var _ engine.Engine = (*Engine)(nil)

// Start implements engine.Engine.
func (e *Engine) Start(images []firmware.Image, cfg engine.Configuration) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.starts++
	if e.startErr != nil {
		return e.startErr
	}
	e.images = images
	e.config = cfg
	e.inProgress = true
	return nil
}

// StartEnvelope implements engine.Engine.
func (e *Engine) StartEnvelope(digest, payload []byte, cfg engine.Configuration) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.starts++
	if e.startErr != nil {
		return e.startErr
	}
	e.digest = digest
	e.payload = payload
	e.config = cfg
	e.inProgress = true
	return nil
}

// UploadResource implements engine.Engine.
func (e *Engine) UploadResource(id resource.Identifier, data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.supplied[id.Name()] = data
	return nil
}

// Pause implements engine.Engine.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pauses++
	e.paused = true
}

// Resume implements engine.Engine.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resumes++
	e.paused = false
}

// Cancel implements engine.Engine.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancels++
	e.inProgress = false
	e.paused = false
}

// IsPaused implements engine.Engine.
func (e *Engine) IsPaused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// IsInProgress implements engine.Engine.
func (e *Engine) IsInProgress() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inProgress
}

// ChangeState reports an engine state transition to the delegate.
func (e *Engine) ChangeState(from, to engine.State) {
	e.delegate.UpgradeStateDidChange(from, to)
}

// Progress reports upload progress to the delegate.
func (e *Engine) Progress(bytesSent, imageSize int) {
	e.delegate.UploadProgressDidChange(bytesSent, imageSize, time.Now())
}

// RequestResource asks the delegate for a resource.
func (e *Engine) RequestResource(uri string) {
	e.delegate.UploadRequestsResource(uri)
}

// Complete finishes the upgrade successfully.
func (e *Engine) Complete() {
	e.mu.Lock()
	e.inProgress = false
	e.mu.Unlock()
	e.delegate.UpgradeDidComplete()
}

// Fail ends the upgrade with err in the given state.
func (e *Engine) Fail(state engine.State, err error) {
	e.mu.Lock()
	e.inProgress = false
	e.mu.Unlock()
	e.delegate.UpgradeDidFail(state, err)
}

// AcknowledgeCancel confirms a cancellation to the delegate.
func (e *Engine) AcknowledgeCancel(state engine.State) {
	e.delegate.UpgradeDidCancel(state)
}

// Starts returns how many times Start or StartEnvelope was called.
func (e *Engine) Starts() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.starts
}

// Images returns the images passed to Start.
func (e *Engine) Images() []firmware.Image {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.images
}

// Digest returns the digest passed to StartEnvelope.
func (e *Engine) Digest() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.digest
}

// Payload returns the payload passed to StartEnvelope.
func (e *Engine) Payload() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.payload
}

// Config returns the configuration the engine was started with.
func (e *Engine) Config() engine.Configuration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.config
}

// Supplied returns the data supplied for a resource name.
func (e *Engine) Supplied(name string) ([]byte, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	data, ok := e.supplied[name]
	return data, ok
}

// Pauses returns the number of Pause calls.
func (e *Engine) Pauses() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pauses
}

// Resumes returns the number of Resume calls.
func (e *Engine) Resumes() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resumes
}

// Cancels returns the number of Cancel calls.
func (e *Engine) Cancels() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancels
}

// Factory builds fake engines and remembers them.
type Factory struct {
	// StartErr is returned by Start and StartEnvelope of new engines
	StartErr error

	// NewErr makes New fail
	NewErr error

	mu      sync.Mutex
	engines []*Engine
}

// NewFactory creates a Factory.
func NewFactory() *Factory {
	return &Factory{}
}

// New is an engine.Factory.
func (f *Factory) New(transport io.ReadWriter, delegate engine.Delegate) (engine.Engine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.NewErr != nil {
		return nil, f.NewErr
	}

	e := &Engine{
		Transport: transport,
		delegate:  delegate,
		startErr:  f.StartErr,
		supplied:  make(map[string][]byte),
	}
	f.engines = append(f.engines, e)
	return e, nil
}

// Count returns the number of engines built.
func (f *Factory) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.engines)
}

// Last returns the most recently built engine, or nil.
func (f *Factory) Last() *Engine {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.engines) == 0 {
		return nil
	}
	return f.engines[len(f.engines)-1]
}

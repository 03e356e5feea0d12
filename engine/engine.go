package engine

import (
	"io"
	"time"

	"github.com/moffa90/go-dfu/firmware"
	"github.com/moffa90/go-dfu/resource"
)

// Engine transfers images to a device and activates them. Implementations
// own chunking, retries, windowing and timeouts; they report back through
// the Delegate they were created with.
type Engine interface {
	// Start uploads package images in order.
	Start(images []firmware.Image, cfg Configuration) error

	// StartEnvelope uploads a manifest envelope identified by its digest.
	StartEnvelope(digest, payload []byte, cfg Configuration) error

	// UploadResource answers a resource request and resumes the upgrade.
	UploadResource(id resource.Identifier, data []byte) error

	Pause()
	Resume()
	Cancel()

	IsPaused() bool
	IsInProgress() bool
}

// Delegate receives engine callbacks. Callbacks may arrive on any goroutine.
type Delegate interface {
	// UpgradeStateDidChange reports an engine state transition.
	UpgradeStateDidChange(from, to State)

	// UploadProgressDidChange reports upload progress of the current image.
	UploadProgressDidChange(bytesSent, imageSize int, timestamp time.Time)

	// UploadRequestsResource asks for an auxiliary resource named by a
	// scheme://name URI. The upgrade does not progress until it is supplied.
	UploadRequestsResource(uri string)

	// UpgradeDidComplete reports success.
	UpgradeDidComplete()

	// UpgradeDidFail reports a fatal error in the given engine state.
	UpgradeDidFail(state State, err error)

	// UpgradeDidCancel acknowledges a cancellation.
	UpgradeDidCancel(state State)
}

// Factory builds an Engine bound to a device transport and a delegate.
// The transport is opaque to the caller of the factory.
type Factory func(transport io.ReadWriter, delegate Delegate) (Engine, error)

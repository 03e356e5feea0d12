// Package dfu provides a high-level API for firmware upgrades over an
// abstract upgrade engine.
//
// # Overview
//
// This package orchestrates an upgrade session:
//   - Resolving a firmware source (image package or SUIT envelope)
//   - Deriving the engine configuration for that source
//   - Starting the engine and relaying pause, resume and cancel
//   - Supplying resources the engine requests during the upgrade
//   - Reporting the outcome exactly once
//
// # Basic Usage
//
//	// User provides the device link (io.ReadWriter) and an engine
//	device := mylink.Open("ABC12345")
//
//	o := dfu.New(device, mcumgr.NewEngine,
//	    dfu.WithObserver(observer),
//	)
//
//	if err := o.Upgrade(ctx, "file:///tmp/app_update.zip"); err != nil {
//	    log.Fatal(err)
//	}
//
//	outcome, err := o.Wait(ctx)
//
// # Resources
//
// An envelope upgrade may ask for additional payloads while it runs. The
// request URI has the form scheme://name; supply it with UploadResource:
//
//	o.UploadResource("file://cert.bin", certBytes)
//
// Payloads uploaded before the request are kept and handed over as soon as
// the engine asks for them.
//
// # Configuration
//
// Engine settings not dictated by the source format come from the defaults,
// which can be loaded from YAML:
//
//	cfg, err := engine.LoadConfiguration("dfu.yaml")
//	o := dfu.New(device, newEngine, dfu.WithDefaults(cfg))
//
// # Logging
//
// Any logger with Debug, Info and Error methods taking key-value pairs can
// be plugged in. NewLogrusLogger adapts logrus:
//
//	o := dfu.New(device, newEngine, dfu.WithLogger(dfu.NewLogrusLogger(logrus.StandardLogger())))
//
// # Error Handling
//
// The package provides structured error types:
//   - firmware.ParseError: the source could not be classified or read
//   - ConfigurationError: no engine configuration for the source
//   - EngineError: the engine failed; unwraps to the engine's error
//   - CommandError: the command is not valid in the current state
//
// # Hardware Independence
//
// This package does NOT implement the upgrade protocol. The engine.Factory
// passed to New builds an engine for the device link; enginetest provides an
// in-memory one for tests.
package dfu

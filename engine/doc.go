// Package engine defines the contract between the upgrade orchestrator and
// the image-transfer engine that talks to the device.
//
// The engine itself is not implemented here. Callers plug in their own
// Factory, which receives the device transport (any io.ReadWriter: BLE, UART,
// USB, or a mock) and a Delegate for callbacks:
//
//	func newEngine(t io.ReadWriter, d engine.Delegate) (engine.Engine, error) {
//	    return mcumgr.NewFirmwareUpgrader(t, d), nil
//	}
//
// # Configuration
//
// Configuration carries the settings handed to the engine at start.
// Defaults can be loaded from YAML:
//
//	cfg, err := engine.LoadConfiguration("dfu.yaml")
//
// The package enginetest provides an in-memory engine for tests.
package engine

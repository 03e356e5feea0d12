package engine

import (
	"fmt"
	"time"
)

// UpgradeMode describes how the engine activates uploaded images.
type UpgradeMode int

const (
	// TestAndConfirm uploads, marks the image for test, resets and confirms it
	TestAndConfirm UpgradeMode = iota

	// TestOnly uploads and marks the image for test without confirming
	TestOnly

	// ConfirmOnly uploads and confirms the image immediately
	ConfirmOnly

	// UploadOnly uploads without test or confirm
	UploadOnly
)

var upgradeModeNames = map[UpgradeMode]string{
	TestAndConfirm: "test_and_confirm",
	TestOnly:       "test_only",
	ConfirmOnly:    "confirm_only",
	UploadOnly:     "upload_only",
}

func (m UpgradeMode) String() string {
	if name, ok := upgradeModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("upgrade_mode(%d)", int(m))
}

// ParseUpgradeMode parses the names produced by UpgradeMode.String.
func ParseUpgradeMode(s string) (UpgradeMode, error) {
	for mode, name := range upgradeModeNames {
		if name == s {
			return mode, nil
		}
	}
	return 0, fmt.Errorf("unknown upgrade mode %q", s)
}

// ByteAlignment is the padding applied to upload chunks to match the flash
// geometry of the target.
type ByteAlignment int

// Supported alignments.
const (
	AlignOne   ByteAlignment = 1
	AlignTwo   ByteAlignment = 2
	AlignFour  ByteAlignment = 4
	AlignEight ByteAlignment = 8
)

// Valid reports whether a is one of the supported alignments.
func (a ByteAlignment) Valid() bool {
	switch a {
	case AlignOne, AlignTwo, AlignFour, AlignEight:
		return true
	default:
		return false
	}
}

// Configuration is the engine setup for one upgrade.
type Configuration struct {
	// EstimatedSwapTime is how long the device needs to swap images after reset
	EstimatedSwapTime time.Duration

	// EraseAppSettings erases application settings before uploading
	EraseAppSettings bool

	// PipelineDepth is the number of upload packets sent before waiting for
	// acknowledgements
	PipelineDepth int

	// ByteAlignment of upload chunks
	ByteAlignment ByteAlignment

	// UpgradeMode selects the activation model
	UpgradeMode UpgradeMode

	// SuitMode is set for manifest envelope upgrades
	SuitMode bool
}

// Validate checks that the configuration can be handed to an engine.
func (c Configuration) Validate() error {
	if c.EstimatedSwapTime < 0 {
		return fmt.Errorf("estimated swap time must not be negative, got %s", c.EstimatedSwapTime)
	}
	if c.PipelineDepth < 1 {
		return fmt.Errorf("pipeline depth must be at least 1, got %d", c.PipelineDepth)
	}
	if !c.ByteAlignment.Valid() {
		return fmt.Errorf("byte alignment must be 1, 2, 4 or 8, got %d", c.ByteAlignment)
	}
	if _, ok := upgradeModeNames[c.UpgradeMode]; !ok {
		return fmt.Errorf("invalid upgrade mode %d", int(c.UpgradeMode))
	}
	return nil
}

// State is the engine's own progress through an upgrade.
type State string

// Engine states, in the order an upgrade usually visits them.
const (
	StateNone              State = "none"
	StateRequestParameters State = "request_parameters"
	StateBootloaderInfo    State = "bootloader_info"
	StateValidate          State = "validate"
	StateUpload            State = "upload"
	StateTest              State = "test"
	StateReset             State = "reset"
	StateConfirm           State = "confirm"
	StateSuccess           State = "success"
)

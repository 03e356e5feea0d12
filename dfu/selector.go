package dfu

import (
	"fmt"

	"github.com/moffa90/go-dfu/engine"
	"github.com/moffa90/go-dfu/firmware"
)

// Selection is the engine setup derived for one source.
type Selection struct {
	Configuration engine.Configuration

	// Digest is the SHA-256 digest to start an envelope upgrade with;
	// nil for packages.
	Digest []byte
}

// Selector derives engine configurations from resolved sources.
type Selector struct {
	defaults engine.Configuration
}

// NewSelector creates a Selector. defaults supply the swap time, pipeline
// depth and byte alignment.
func NewSelector(defaults engine.Configuration) *Selector {
	return &Selector{defaults: defaults}
}

// SelectFor derives the configuration for src:
//   - *firmware.Package: erase app settings, confirm only, no SUIT mode
//   - *firmware.Envelope: upload only, SUIT mode, SHA-256 digest required
//
// SHA-256 is the only digest algorithm implemented; an envelope without it
// fails with a *ConfigurationError of kind UnsupportedAlgorithm.
func (s *Selector) SelectFor(src firmware.Source) (*Selection, error) {
	cfg := s.defaults

	var sel *Selection
	switch src := src.(type) {
	case *firmware.Package:
		cfg.EraseAppSettings = true
		cfg.UpgradeMode = engine.ConfirmOnly
		cfg.SuitMode = false
		sel = &Selection{Configuration: cfg}
	case *firmware.Envelope:
		digest, ok := src.Digest(firmware.SHA256)
		if !ok {
			return nil, &ConfigurationError{Kind: UnsupportedAlgorithm, Available: src.Algorithms()}
		}
		cfg.UpgradeMode = engine.UploadOnly
		cfg.SuitMode = true
		sel = &Selection{Configuration: cfg, Digest: digest}
	default:
		return nil, &ConfigurationError{Kind: UnsupportedSource, Err: fmt.Errorf("source type %T", src)}
	}

	if err := sel.Configuration.Validate(); err != nil {
		return nil, &ConfigurationError{Kind: InvalidConfiguration, Err: err}
	}
	return sel, nil
}

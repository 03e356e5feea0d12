package engine

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults used when no configuration is supplied.
const (
	DefaultEstimatedSwapTime = 10 * time.Second
	DefaultPipelineDepth     = 3
	DefaultByteAlignment     = AlignFour
	DefaultUpgradeMode       = TestAndConfirm
)

// DefaultConfiguration returns the engine defaults.
func DefaultConfiguration() Configuration {
	return Configuration{
		EstimatedSwapTime: DefaultEstimatedSwapTime,
		EraseAppSettings:  false,
		PipelineDepth:     DefaultPipelineDepth,
		ByteAlignment:     DefaultByteAlignment,
		UpgradeMode:       DefaultUpgradeMode,
	}
}

// fileConfiguration is the YAML form of Configuration. Unset fields keep
// their defaults.
type fileConfiguration struct {
	EstimatedSwapTime *float64 `yaml:"estimated_swap_time"`
	EraseAppSettings  *bool    `yaml:"erase_app_settings"`
	PipelineDepth     *int     `yaml:"pipeline_depth"`
	ByteAlignment     *int     `yaml:"byte_alignment"`
	UpgradeMode       *string  `yaml:"upgrade_mode"`
}

// LoadConfiguration reads a YAML configuration file.
//
// Example file:
//
//	estimated_swap_time: 12.5 # seconds
//	erase_app_settings: false
//	pipeline_depth: 4
//	byte_alignment: 8
//	upgrade_mode: test_and_confirm
func LoadConfiguration(path string) (Configuration, error) {
	f, err := os.Open(path)
	if err != nil {
		return Configuration{}, fmt.Errorf("failed to open configuration: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseConfiguration(f)
}

// ParseConfiguration reads a YAML configuration from r on top of
// DefaultConfiguration. Unknown keys are rejected.
func ParseConfiguration(r io.Reader) (Configuration, error) {
	cfg := DefaultConfiguration()

	var fc fileConfiguration
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return Configuration{}, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if fc.EstimatedSwapTime != nil {
		cfg.EstimatedSwapTime = time.Duration(*fc.EstimatedSwapTime * float64(time.Second))
	}
	if fc.EraseAppSettings != nil {
		cfg.EraseAppSettings = *fc.EraseAppSettings
	}
	if fc.PipelineDepth != nil {
		cfg.PipelineDepth = *fc.PipelineDepth
	}
	if fc.ByteAlignment != nil {
		cfg.ByteAlignment = ByteAlignment(*fc.ByteAlignment)
	}
	if fc.UpgradeMode != nil {
		mode, err := ParseUpgradeMode(*fc.UpgradeMode)
		if err != nil {
			return Configuration{}, err
		}
		cfg.UpgradeMode = mode
	}

	if err := cfg.Validate(); err != nil {
		return Configuration{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

package dfu

import (
	"github.com/moffa90/go-dfu/engine"
	"github.com/moffa90/go-dfu/firmware"
)

// Config holds the orchestrator configuration.
type Config struct {
	// ProgressCallback is called on engine progress reports (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// Observer receives terminal outcomes (optional)
	Observer Observer

	// Metrics records session counters (optional)
	Metrics *Metrics

	// Defaults are the engine settings not dictated by the source format
	Defaults engine.Configuration

	// Resolver classifies firmware sources
	Resolver *firmware.Resolver
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Defaults: engine.DefaultConfiguration(),
		Resolver: firmware.NewResolver(),
	}
}

// Option is a functional option for configuring the Orchestrator.
type Option func(*Config)

// WithProgressCallback sets a callback function to track upload progress.
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for orchestrator operations.
//
// Example:
//
//	o := dfu.New(transport, newEngine, dfu.WithLogger(dfu.NewLogrusLogger(logrus.StandardLogger())))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithObserver sets the receiver of terminal outcomes.
func WithObserver(observer Observer) Option {
	return func(c *Config) {
		c.Observer = observer
	}
}

// WithMetrics enables session metrics.
//
// Example:
//
//	o := dfu.New(transport, newEngine, dfu.WithMetrics(dfu.NewMetrics(prometheus.DefaultRegisterer)))
func WithMetrics(m *Metrics) Option {
	return func(c *Config) {
		c.Metrics = m
	}
}

// WithDefaults sets the engine settings used for the fields the source
// format does not dictate (swap time, pipeline depth, byte alignment).
//
// Example:
//
//	cfg, _ := engine.LoadConfiguration("dfu.yaml")
//	o := dfu.New(transport, newEngine, dfu.WithDefaults(cfg))
func WithDefaults(cfg engine.Configuration) Option {
	return func(c *Config) {
		c.Defaults = cfg
	}
}

// WithProbes replaces the format probes used to resolve sources.
// Probes are tried in the given order.
func WithProbes(probes ...firmware.Probe) Option {
	return func(c *Config) {
		if len(probes) > 0 {
			c.Resolver = firmware.NewResolver(probes...)
		}
	}
}

// Package config decodes and validates the broker's external configuration
// surface: a YAML document is turned into a BrokerConfig, or a single
// aggregated error listing every validation violation found.
//
// Uses gopkg.in/yaml.v3 for decoding and go.uber.org/multierr to collect
// every validation failure into one error instead of stopping at the
// first, so an operator fixing a broken config file sees the whole list at
// once rather than iterating one fix per run.
package config

import (
	"fmt"
	"io"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/redpanda-data/sojourn-broker/internal/aqm"
	"github.com/redpanda-data/sojourn-broker/internal/queue"
)

// AlgorithmSpec is the YAML shape of a QueueSpec's algorithm field: a
// tagged union selected by Type.
type AlgorithmSpec struct {
	Type       string `yaml:"type"`
	TargetMS   int64  `yaml:"target_ms,omitempty"`
	IntervalMS int64  `yaml:"interval_ms,omitempty"`
	TimeoutMS  int64  `yaml:"timeout_ms,omitempty"`
}

const (
	AlgoNaive        = "naive"
	AlgoTimeout      = "timeout"
	AlgoCoDel        = "codel"
	AlgoCoDelTimeout = "codel_timeout"
)

// QueueSpec is the YAML shape of one side's queue configuration.
type QueueSpec struct {
	Algorithm AlgorithmSpec `yaml:"algorithm"`
	OutMode   string        `yaml:"out_mode"`
	Capacity  int           `yaml:"capacity"`
	DropMode  string        `yaml:"drop_mode"`
}

// BrokerConfig is the YAML shape of the whole broker configuration.
type BrokerConfig struct {
	AskQueue   QueueSpec `yaml:"ask_queue"`
	AskRQueue  QueueSpec `yaml:"ask_r_queue"`
	IntervalMS int64     `yaml:"interval_ms"`
}

// Decode parses a YAML document into a BrokerConfig without validating it.
func Decode(r io.Reader) (BrokerConfig, error) {
	var cfg BrokerConfig
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return BrokerConfig{}, fmt.Errorf("decode broker config: %w", err)
	}
	return cfg, nil
}

// Validate checks every field of cfg and aggregates every violation found
// (not just the first) via multierr, so an embedder sees the complete list
// in one error.
func (c BrokerConfig) Validate() error {
	var err error
	err = multierr.Append(err, validateQueueSpec("ask_queue", c.AskQueue))
	err = multierr.Append(err, validateQueueSpec("ask_r_queue", c.AskRQueue))
	if c.IntervalMS <= 0 {
		err = multierr.Append(err, fmt.Errorf("interval_ms: must be a positive integer, got %d", c.IntervalMS))
	}
	return err
}

func validateQueueSpec(field string, q QueueSpec) error {
	var err error
	if q.Capacity <= 0 {
		err = multierr.Append(err, fmt.Errorf("%s.capacity: must be a positive integer, got %d", field, q.Capacity))
	}
	switch q.OutMode {
	case "fifo", "lifo":
	default:
		err = multierr.Append(err, fmt.Errorf("%s.out_mode: must be fifo or lifo, got %q", field, q.OutMode))
	}
	switch q.DropMode {
	case "head", "tail":
	default:
		err = multierr.Append(err, fmt.Errorf("%s.drop_mode: must be head or tail, got %q", field, q.DropMode))
	}
	err = multierr.Append(err, validateAlgorithm(field, q.Algorithm))
	return err
}

func validateAlgorithm(field string, a AlgorithmSpec) error {
	var err error
	switch a.Type {
	case AlgoNaive:
	case AlgoTimeout:
		if a.TimeoutMS < 1 {
			err = multierr.Append(err, fmt.Errorf("%s.algorithm.timeout_ms: must be >= 1, got %d", field, a.TimeoutMS))
		}
	case AlgoCoDel:
		if a.TargetMS < 1 {
			err = multierr.Append(err, fmt.Errorf("%s.algorithm.target_ms: must be >= 1, got %d", field, a.TargetMS))
		}
		if a.IntervalMS < 1 {
			err = multierr.Append(err, fmt.Errorf("%s.algorithm.interval_ms: must be >= 1, got %d", field, a.IntervalMS))
		}
	case AlgoCoDelTimeout:
		if a.TargetMS < 1 {
			err = multierr.Append(err, fmt.Errorf("%s.algorithm.target_ms: must be >= 1, got %d", field, a.TargetMS))
		}
		if a.IntervalMS < 1 {
			err = multierr.Append(err, fmt.Errorf("%s.algorithm.interval_ms: must be >= 1, got %d", field, a.IntervalMS))
		}
		if a.TimeoutMS <= a.TargetMS {
			err = multierr.Append(err, fmt.Errorf("%s.algorithm.timeout_ms: must be > target_ms (got timeout_ms=%d, target_ms=%d)", field, a.TimeoutMS, a.TargetMS))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("%s.algorithm.type: unknown algorithm %q", field, a.Type))
	}
	return err
}

// QueueConfig is the runtime (already-validated) counterpart of QueueSpec,
// holding a constructed AQM strategy instance rather than its YAML
// description.
type QueueConfig struct {
	Strategy aqm.Strategy
	OutMode  queue.OutMode
	DropMode queue.DropMode
	Capacity int
}

// RuntimeConfig is the runtime counterpart of BrokerConfig.
type RuntimeConfig struct {
	Ask        QueueConfig
	AskR       QueueConfig
	IntervalMS int64
}

// Build validates cfg and, if valid, constructs a RuntimeConfig with live
// AQM strategy instances. ConfigError is never enveloped here; failures in
// this component fail startup, exactly like Validate errors, so an
// embedder never sees the broker enter a running state.
func Build(cfg BrokerConfig) (RuntimeConfig, error) {
	if err := cfg.Validate(); err != nil {
		return RuntimeConfig{}, &ConfigError{Err: err}
	}
	ask, err := buildQueueConfig(cfg.AskQueue)
	if err != nil {
		return RuntimeConfig{}, &ConfigError{Err: err}
	}
	askR, err := buildQueueConfig(cfg.AskRQueue)
	if err != nil {
		return RuntimeConfig{}, &ConfigError{Err: err}
	}
	return RuntimeConfig{Ask: ask, AskR: askR, IntervalMS: cfg.IntervalMS}, nil
}

func buildQueueConfig(q QueueSpec) (QueueConfig, error) {
	strategy, err := buildStrategy(q.Algorithm)
	if err != nil {
		return QueueConfig{}, err
	}
	out := queue.FIFO
	if q.OutMode == "lifo" {
		out = queue.LIFO
	}
	drop := queue.DropHead
	if q.DropMode == "tail" {
		drop = queue.DropTail
	}
	return QueueConfig{Strategy: strategy, OutMode: out, DropMode: drop, Capacity: q.Capacity}, nil
}

func buildStrategy(a AlgorithmSpec) (aqm.Strategy, error) {
	switch a.Type {
	case AlgoNaive:
		return aqm.NewNaive(), nil
	case AlgoTimeout:
		return aqm.NewTimeout(a.TimeoutMS), nil
	case AlgoCoDel:
		return aqm.NewCoDel(a.TargetMS, a.IntervalMS), nil
	case AlgoCoDelTimeout:
		return aqm.NewCoDelTimeout(a.TargetMS, a.IntervalMS, a.TimeoutMS), nil
	default:
		return nil, fmt.Errorf("unknown algorithm %q", a.Type)
	}
}

// ConfigError wraps an invalid-configuration failure: the broker never
// enters running when this is returned from Build.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return "invalid broker configuration: " + e.Err.Error() }
func (e *ConfigError) Unwrap() error { return e.Err }

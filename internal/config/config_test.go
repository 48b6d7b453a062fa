package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
ask_queue:
  algorithm:
    type: codel_timeout
    target_ms: 5
    interval_ms: 100
    timeout_ms: 200
  out_mode: fifo
  capacity: 1000
  drop_mode: head
ask_r_queue:
  algorithm:
    type: naive
  out_mode: fifo
  capacity: 1000
  drop_mode: head
interval_ms: 100
`

func TestDecodeAndBuildValid(t *testing.T) {
	cfg, err := Decode(strings.NewReader(validYAML))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	rt, err := Build(cfg)
	require.NoError(t, err)
	assert.Equal(t, int64(100), rt.IntervalMS)
	assert.NotNil(t, rt.Ask.Strategy)
	assert.NotNil(t, rt.AskR.Strategy)
}

func TestValidateAggregatesEveryViolation(t *testing.T) {
	cfg := BrokerConfig{
		AskQueue: QueueSpec{
			Algorithm: AlgorithmSpec{Type: AlgoCoDelTimeout, TargetMS: 0, IntervalMS: 10, TimeoutMS: 0},
			OutMode:   "sideways",
			Capacity:  0,
			DropMode:  "middle",
		},
		AskRQueue: QueueSpec{
			Algorithm: AlgorithmSpec{Type: AlgoNaive},
			OutMode:   "fifo",
			Capacity:  1,
			DropMode:  "head",
		},
		IntervalMS: 0,
	}

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()

	// Every distinct violation must appear, not just the first found.
	for _, want := range []string{
		"ask_queue.capacity",
		"ask_queue.out_mode",
		"ask_queue.drop_mode",
		"ask_queue.algorithm.target_ms",
		"ask_queue.algorithm.timeout_ms",
		"interval_ms",
	} {
		assert.Contains(t, msg, want)
	}
}

func TestCoDelTimeoutRequiresTimeoutGreaterThanTarget(t *testing.T) {
	a := AlgorithmSpec{Type: AlgoCoDelTimeout, TargetMS: 10, IntervalMS: 10, TimeoutMS: 10}
	err := validateAlgorithm("ask_queue", a)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be > target_ms")
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	_, err := Build(BrokerConfig{})
	require.Error(t, err)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

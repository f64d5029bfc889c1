// Package graph provides the core graph execution engine.
package graph

import "time"

// Option is a functional option for configuring an Engine.
//
// Each Option sets one field of an internal copy of Options. New takes an
// Options value directly and does not accept Option values; no function in
// this package applies an Option to an Engine:
//
//	engine := graph.New(reducer, store, emitter, graph.Options{
//	    MaxSteps:           100,
//	    DefaultNodeTimeout: 10 * time.Second,
//	})
type Option func(*engineConfig) error

// engineConfig is an internal struct used to collect options before applying them to an Engine.
type engineConfig struct {
	opts Options
}

// WithMaxSteps limits workflow execution to prevent infinite loops.
//
// Default: 0 (no limit, use with caution).
//
// When MaxSteps is exceeded, Run() returns an EngineError with code
// "MAX_STEPS_EXCEEDED".
func WithMaxSteps(n int) Option {
	return func(cfg *engineConfig) error {
		cfg.opts.MaxSteps = n
		return nil
	}
}

// WithDefaultNodeTimeout sets the maximum execution time for nodes without
// an explicit NodePolicy.Timeout.
//
// Default: 0 (disabled). Individual nodes can override via NodePolicy.Timeout.
func WithDefaultNodeTimeout(d time.Duration) Option {
	return func(cfg *engineConfig) error {
		cfg.opts.DefaultNodeTimeout = d
		return nil
	}
}

// WithRunWallClockBudget sets the maximum total execution time for Run().
//
// Default: 0 (disabled, workflow runs until completion or MaxSteps).
func WithRunWallClockBudget(d time.Duration) Option {
	return func(cfg *engineConfig) error {
		cfg.opts.RunWallClockBudget = d
		return nil
	}
}

// WithMetrics enables Prometheus metrics collection for workflow-level
// counters (phase duration, governance pass/fail, retries).
func WithMetrics(metrics *PrometheusMetrics) Option {
	return func(cfg *engineConfig) error {
		cfg.opts.Metrics = metrics
		return nil
	}
}


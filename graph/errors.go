// Package graph provides the core graph execution engine.
package graph

import "errors"

// ErrMaxStepsExceeded describes a graph execution that reached the maximum
// allowed step count without completing. Engine.Run does not return this
// sentinel: it reports that condition as an *EngineError with code
// "MAX_STEPS_EXCEEDED".
var ErrMaxStepsExceeded = errors.New("execution exceeded maximum steps limit")

// ErrMaxAttemptsExceeded is returned when a node fails more times than allowed
// by its retry policy. Check the node's error logs to diagnose the root cause
// of repeated failures.
var ErrMaxAttemptsExceeded = errors.New("max retry attempts exceeded")

// ErrInvalidRetryPolicy is returned by RetryPolicy.Validate when MaxAttempts
// or the BaseDelay/MaxDelay relationship is out of bounds.
var ErrInvalidRetryPolicy = errors.New("invalid retry policy")

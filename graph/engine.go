// Package graph provides the core graph execution engine.
package graph

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/acpctl/acp/graph/emit"
	"github.com/acpctl/acp/graph/store"
)

// contextKey is a private type used for context value keys to avoid collisions.
type contextKey string

// Context keys for propagating execution metadata to nodes.
const (
	// RunIDKey is the context key for the unique workflow run identifier.
	RunIDKey contextKey = "graph.run_id"

	// StepIDKey is the context key for the current execution step number.
	StepIDKey contextKey = "graph.step_id"

	// NodeIDKey is the context key for the current node identifier.
	NodeIDKey contextKey = "graph.node_id"

	// AttemptKey is the context key for the current retry attempt number (0-based).
	AttemptKey contextKey = "graph.attempt"

	// RNGKey is the context key for the seeded random number generator.
	// Provides deterministic randomness for exponential backoff jitter.
	RNGKey contextKey = "graph.rng"
)

// initRNG creates a deterministic random number generator seeded from the runID.
func initRNG(runID string) *rand.Rand {
	hasher := sha256.New()
	hasher.Write([]byte(runID))
	hashBytes := hasher.Sum(nil)
	seed := int64(binary.BigEndian.Uint64(hashBytes[:8])) // #nosec G115 -- deterministic seeding, not security
	source := rand.NewSource(seed)                        // #nosec G404 -- not security-sensitive
	return rand.New(source)                                // #nosec G404 -- not security-sensitive
}

// Engine orchestrates sequential, single-run stateful workflow execution with
// checkpointing support.
//
// Unlike a general-purpose graph runtime, this Engine executes exactly one
// node at a time: there is no intra-run parallelism and no replay machinery.
// That scope matches a workflow with a handful of fixed nodes and bounded
// retry, not a fan-out DAG.
//
// Type parameter S is the state type shared across the workflow.
type Engine[S any] struct {
	mu sync.RWMutex

	reducer Reducer[S]

	nodes     map[string]Node[S]
	edges     []Edge[S]
	startNode string

	store   store.Store[S]
	emitter emit.Emitter

	metrics *PrometheusMetrics

	opts Options
}

// Options configures Engine execution behavior. Zero values are valid.
type Options struct {
	// MaxSteps limits workflow execution to prevent infinite loops.
	// If 0, no limit is enforced.
	MaxSteps int

	// DefaultNodeTimeout is the maximum execution time for nodes without an
	// explicit NodePolicy.Timeout. Zero disables the default timeout.
	DefaultNodeTimeout time.Duration

	// RunWallClockBudget is the maximum total execution time for Run().
	// Zero disables the budget.
	RunWallClockBudget time.Duration

	// Metrics enables Prometheus metrics collection. If nil, metrics are not collected.
	Metrics *PrometheusMetrics
}

// New creates a new Engine with the given configuration.
func New[S any](reducer Reducer[S], st store.Store[S], emitter emit.Emitter, opts Options) *Engine[S] {
	return &Engine[S]{
		reducer:     reducer,
		nodes:       make(map[string]Node[S]),
		edges:       make([]Edge[S], 0),
		store:       st,
		emitter:     emitter,
		metrics: opts.Metrics,
		opts:    opts,
	}
}

// Add registers a node in the workflow graph. Nodes must be added before
// calling StartAt or Run. Node IDs must be unique within the workflow.
func (e *Engine[S]) Add(nodeID string, node Node[S]) error {
	if e == nil {
		return &EngineError{Message: "engine is nil", Code: "NIL_ENGINE"}
	}
	if nodeID == "" {
		return &EngineError{Message: "node ID cannot be empty"}
	}
	if node == nil {
		return &EngineError{Message: "node cannot be nil"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.nodes[nodeID]; exists {
		return &EngineError{Message: "duplicate node ID: " + nodeID, Code: "DUPLICATE_NODE"}
	}

	e.nodes[nodeID] = node
	return nil
}

// StartAt sets the entry point for workflow execution.
func (e *Engine[S]) StartAt(nodeID string) error {
	if e == nil {
		return &EngineError{Message: "engine is nil", Code: "NIL_ENGINE"}
	}
	if nodeID == "" {
		return &EngineError{Message: "start node ID cannot be empty"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.nodes[nodeID]; !exists {
		return &EngineError{Message: "start node does not exist: " + nodeID, Code: "NODE_NOT_FOUND"}
	}

	e.startNode = nodeID
	return nil
}

// Connect creates an edge between two nodes. Node explicit routing via
// NodeResult.Route takes precedence over edges.
func (e *Engine[S]) Connect(from, to string, predicate Predicate[S]) error {
	if e == nil {
		return &EngineError{Message: "engine is nil", Code: "NIL_ENGINE"}
	}
	if from == "" {
		return &EngineError{Message: "from node ID cannot be empty"}
	}
	if to == "" {
		return &EngineError{Message: "to node ID cannot be empty"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.edges = append(e.edges, Edge[S]{From: from, To: to, When: predicate})
	return nil
}

// Run executes the workflow sequentially from start to completion or error.
func (e *Engine[S]) Run(ctx context.Context, runID string, initial S) (S, error) {
	var zero S

	if e == nil {
		return zero, &EngineError{Message: "engine is nil", Code: "NIL_ENGINE"}
	}
	if e.reducer == nil {
		return zero, &EngineError{Message: "reducer is required", Code: "MISSING_REDUCER"}
	}
	if e.store == nil {
		return zero, &EngineError{Message: "store is required", Code: "MISSING_STORE"}
	}
	if e.startNode == "" {
		return zero, &EngineError{Message: "start node not set (call StartAt before Run)", Code: "NO_START_NODE"}
	}

	e.mu.RLock()
	_, exists := e.nodes[e.startNode]
	e.mu.RUnlock()
	if !exists {
		return zero, &EngineError{Message: "start node does not exist: " + e.startNode, Code: "NODE_NOT_FOUND"}
	}

	if e.opts.RunWallClockBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.RunWallClockBudget)
		defer cancel()
	}

	rng := initRNG(runID)
	ctx = context.WithValue(ctx, RNGKey, rng)

	currentState := initial
	currentNode := e.startNode
	step := 0

	for {
		step++

		if e.opts.MaxSteps > 0 && step > e.opts.MaxSteps {
			return zero, &EngineError{Message: "workflow exceeded MaxSteps limit", Code: "MAX_STEPS_EXCEEDED"}
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		e.mu.RLock()
		nodeImpl, exists := e.nodes[currentNode]
		e.mu.RUnlock()
		if !exists {
			return zero, &EngineError{Message: "node not found during execution: " + currentNode, Code: "NODE_NOT_FOUND"}
		}

		e.emitNodeStart(runID, currentNode, step-1)

		result, err := e.runNodeWithPolicy(ctx, nodeImpl, currentNode, currentState, runID, step-1)
		if err != nil {
			e.emitError(runID, currentNode, step-1, err)
			return zero, err
		}

		currentState = e.reducer(currentState, result.Delta)

		if err := e.store.SaveStep(ctx, runID, step, currentNode, currentState); err != nil {
			return zero, &EngineError{Message: "failed to save step: " + err.Error(), Code: "STORE_ERROR"}
		}

		e.emitNodeEnd(runID, currentNode, step-1, result.Delta)

		if result.Route.Terminal {
			e.emitRoutingDecision(runID, currentNode, step-1, map[string]interface{}{"terminal": true})
			return currentState, nil
		}

		if result.Route.To != "" {
			e.emitRoutingDecision(runID, currentNode, step-1, map[string]interface{}{"next_node": result.Route.To})
			currentNode = result.Route.To
			continue
		}

		nextNode := e.evaluateEdges(currentNode, currentState)
		if nextNode == "" {
			return zero, &EngineError{Message: "no valid route from node: " + currentNode, Code: "NO_ROUTE"}
		}

		e.emitRoutingDecision(runID, currentNode, step-1, map[string]interface{}{"next_node": nextNode, "via_edge": true})
		currentNode = nextNode
	}
}

// runNodeWithPolicy executes a node, applying its NodePolicy timeout and
// retry configuration (if any) for transient failures.
func (e *Engine[S]) runNodeWithPolicy(ctx context.Context, node Node[S], nodeID string, state S, runID string, stepIdx int) (NodeResult[S], error) {
	var policy *NodePolicy
	if provider, ok := node.(interface{ Policy() NodePolicy }); ok {
		p := provider.Policy()
		policy = &p
	}

	attempt := 0
	for {
		nodeCtx := context.WithValue(ctx, AttemptKey, attempt)
		nodeCtx = context.WithValue(nodeCtx, NodeIDKey, nodeID)
		nodeCtx = context.WithValue(nodeCtx, StepIDKey, stepIdx)

		result, timeoutErr := executeNodeWithTimeout(nodeCtx, node, nodeID, state, policy, e.opts.DefaultNodeTimeout)
		if timeoutErr != nil {
			result.Err = timeoutErr
		}

		if result.Err == nil {
			return result, nil
		}

		if policy == nil || policy.RetryPolicy == nil {
			return result, result.Err
		}

		retryPol := policy.RetryPolicy
		if err := retryPol.Validate(); err != nil {
			return result, &EngineError{Message: "invalid retry policy for node " + nodeID + ": " + err.Error(), Code: "INVALID_RETRY_POLICY"}
		}

		isRetryable := retryPol.Retryable != nil && retryPol.Retryable(result.Err)
		remaining := retryPol.MaxAttempts - attempt - 1
		if !isRetryable {
			return result, result.Err
		}
		if remaining <= 0 {
			return result, fmt.Errorf("%w: node %s: %w", ErrMaxAttemptsExceeded, nodeID, result.Err)
		}

		if e.metrics != nil {
			e.metrics.IncrementRetries(runID, nodeID, "error")
		}

		var rng *rand.Rand
		if v := ctx.Value(RNGKey); v != nil {
			rng, _ = v.(*rand.Rand)
		}
		delay := computeBackoff(attempt, retryPol.BaseDelay, retryPol.MaxDelay, rng)
		time.Sleep(delay)

		attempt++
	}
}

// evaluateEdges finds the first matching edge from the given node based on predicates.
func (e *Engine[S]) evaluateEdges(fromNode string, state S) string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, edge := range e.edges {
		if edge.From != fromNode {
			continue
		}
		if edge.When == nil || edge.When(state) {
			return edge.To
		}
	}
	return ""
}

func (e *Engine[S]) emitNodeStart(runID, nodeID string, step int) {
	if e.emitter != nil {
		e.emitter.Emit(emit.Event{RunID: runID, Step: step, NodeID: nodeID, Msg: "node_start"})
	}
}

func (e *Engine[S]) emitNodeEnd(runID, nodeID string, step int, delta S) {
	if e.emitter != nil {
		e.emitter.Emit(emit.Event{RunID: runID, Step: step, NodeID: nodeID, Msg: "node_end", Meta: map[string]interface{}{"delta": delta}})
	}
}

func (e *Engine[S]) emitError(runID, nodeID string, step int, err error) {
	if e.emitter != nil {
		e.emitter.Emit(emit.Event{RunID: runID, Step: step, NodeID: nodeID, Msg: "error", Meta: map[string]interface{}{"error": err.Error()}})
	}
}

func (e *Engine[S]) emitRoutingDecision(runID, nodeID string, step int, meta map[string]interface{}) {
	if e.emitter != nil {
		e.emitter.Emit(emit.Event{RunID: runID, Step: step, NodeID: nodeID, Msg: "routing_decision", Meta: meta})
	}
}

// EngineError represents an error from Engine operations.
type EngineError struct {
	Message string
	Code    string
}

func (e *EngineError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

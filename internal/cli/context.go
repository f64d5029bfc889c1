// Package cli implements the acp command surface: init, specify, plan,
// implement, resume, status, and history, wired on top of spf13/cobra
// following jmgilman-sow's cli/cmd NewXCmd() + PersistentPreRunE pattern —
// one constructor per subcommand, a context-injected domain object instead
// of package-level globals.
package cli

import (
	"context"
	"io"

	"github.com/acpctl/acp/graph"
	"github.com/acpctl/acp/graph/store"
	"github.com/acpctl/acp/internal/agent"
	"github.com/acpctl/acp/internal/artifact"
	"github.com/acpctl/acp/internal/checkpoint"
	"github.com/acpctl/acp/internal/governance"
	"github.com/acpctl/acp/internal/interaction"
	"github.com/acpctl/acp/internal/runstate"
	"go.opentelemetry.io/otel/trace"
)

// App bundles the collaborators every subcommand needs, built once in the
// root command's PersistentPreRunE and threaded through cmd.Context(). The
// workflow engine's own progress events reach the terminal through Port
// (see workflow.portEmitter), so App does not carry a separate emitter.
type App struct {
	Root string

	LLM         agent.LLMClient
	Port        interaction.Port
	Artifacts   *artifact.Store
	Checkpoints *checkpoint.Store
	Validator   *governance.Validator

	// Metrics, Tracer, and JournalStore are nil unless the corresponding
	// --metrics-addr/--trace/--journal-store flag enables them. The root
	// command always sets Cost, but an App built elsewhere may leave it
	// nil; every consumer must nil-check before use.
	Metrics      *graph.PrometheusMetrics
	Cost         *graph.CostTracker
	Tracer       trace.Tracer
	JournalStore store.Store[*runstate.State]

	AllowIgnore bool
	Quiet       bool
	Verbose     bool

	Out io.Writer
	Err io.Writer
}

type contextKey string

const appContextKey contextKey = "acpApp"

// WithApp returns a context carrying app, retrievable with AppFromContext.
func WithApp(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, appContextKey, app)
}

// AppFromContext retrieves the App stored by WithApp. Panics if absent,
// since every subcommand is reached only through the root command's
// PersistentPreRunE, which always sets it first.
func AppFromContext(ctx context.Context) *App {
	app, ok := ctx.Value(appContextKey).(*App)
	if !ok {
		panic("cli: App not found in context")
	}
	return app
}

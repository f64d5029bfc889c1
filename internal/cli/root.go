package cli

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/acpctl/acp/graph"
	"github.com/acpctl/acp/graph/store"
	"github.com/acpctl/acp/internal/artifact"
	"github.com/acpctl/acp/internal/checkpoint"
	"github.com/acpctl/acp/internal/governance"
	"github.com/acpctl/acp/internal/interaction"
	"github.com/acpctl/acp/internal/runstate"
	"github.com/acpctl/acp/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"
)

// Version is set at build time via ldflags.
var Version = "dev"

// NewRootCmd builds the acp root command and its seven subcommands.
func NewRootCmd() *cobra.Command {
	var provider, modelName string
	var quiet, verbose, allowIgnore bool
	var metricsAddr, journalStore string
	var traceEnabled bool

	cmd := &cobra.Command{
		Use:     "acp",
		Short:   "Governed, spec-driven agent workflow engine",
		Version: Version,
		Long: `acp drives a feature from a free-text description through
specification, planning, and test-driven implementation, validating every
generated artifact against a project constitution before moving on.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("cli: resolving working directory: %w", err)
			}
			root := findProjectRoot(cwd)

			cost := graph.NewCostTracker("", "USD")

			llm, err := buildLLM(provider, modelName, cost)
			if err != nil {
				return err
			}

			metrics, err := buildMetrics(metricsAddr)
			if err != nil {
				return err
			}

			tracer, err := buildTracer(traceEnabled, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			journal, err := buildJournalStore(journalStore, root)
			if err != nil {
				return err
			}

			app := &App{
				Root:         root,
				LLM:          llm,
				Port:         interaction.NewTerminal(os.Stdin, os.Stdout),
				Artifacts:    artifact.New(root),
				Checkpoints:  checkpoint.New(root),
				Validator:    governance.New(),
				Metrics:      metrics,
				Cost:         cost,
				Tracer:       tracer,
				JournalStore: journal,
				AllowIgnore:  allowIgnore,
				Quiet:        quiet,
				Verbose:      verbose,
				Out:          cmd.OutOrStdout(),
				Err:          cmd.ErrOrStderr(),
			}

			cmd.SetContext(WithApp(cmd.Context(), app))
			return nil
		},
	}

	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose output")
	cmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress non-error output")
	cmd.PersistentFlags().StringVar(&provider, "provider", "", "LLM provider: anthropic, openai, google, or mock (default: auto-detect from environment)")
	cmd.PersistentFlags().StringVar(&modelName, "model", "", "Model name override for the selected provider")
	cmd.PersistentFlags().BoolVar(&allowIgnore, "allow-ignore", false, "Permit the 'ignore' remediation to skip a failed governance check")
	cmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics (phase duration, governance pass/fail, retries) on this address, e.g. :9090 (default: disabled)")
	cmd.PersistentFlags().BoolVar(&traceEnabled, "trace", false, "Emit an OpenTelemetry span per node to stderr as the run progresses")
	cmd.PersistentFlags().StringVar(&journalStore, "journal-store", "memory", "Backing store for the per-step execution journal: memory or sqlite")

	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewSpecifyCmd())
	cmd.AddCommand(NewPlanCmd())
	cmd.AddCommand(NewImplementCmd())
	cmd.AddCommand(NewResumeCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewHistoryCmd())

	return cmd
}

// Execute runs the root command and terminates the process with the exit
// code spec.md §6 assigns to the error it returns.
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// buildMetrics starts a Prometheus /metrics listener on addr in the
// background when addr is non-empty, on its own registry so acp's
// phase-duration/governance/retry gauges never collide with whatever else
// shares the process's default registry.
func buildMetrics(addr string) (*graph.PrometheusMetrics, error) {
	if addr == "" {
		return nil, nil
	}
	registry := prometheus.NewRegistry()
	metrics := graph.NewPrometheusMetrics(registry)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		_ = srv.ListenAndServe()
	}()

	return metrics, nil
}

// buildTracer wires an OpenTelemetry tracer that logs one line per finished
// span to w, when enabled is set.
func buildTracer(enabled bool, w io.Writer) (trace.Tracer, error) {
	if !enabled {
		return nil, nil
	}
	tp := telemetry.NewTracerProvider(w)
	return telemetry.Tracer(tp), nil
}

// buildJournalStore resolves the --journal-store flag to a graph.Store
// backing the inner engine's per-step audit journal. "memory" (the
// default) returns nil, letting workflow.New fall back to an in-memory
// store; "sqlite" persists it to <root>/.acp/journal.db.
func buildJournalStore(kind, root string) (store.Store[*runstate.State], error) {
	switch kind {
	case "", "memory":
		return nil, nil
	case "sqlite":
		path := filepath.Join(root, ".acp", "journal.db")
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("cli: creating journal directory: %w", err)
		}
		s, err := store.NewSQLiteStore[*runstate.State](path)
		if err != nil {
			return nil, fmt.Errorf("cli: opening sqlite journal store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("cli: unknown --journal-store %q (want memory or sqlite)", kind)
	}
}

// findProjectRoot walks up from start looking for an existing .acp
// directory, falling back to start itself (the case init must handle,
// since .acp does not exist yet on the first run).
func findProjectRoot(start string) string {
	dir := start
	for {
		if info, err := os.Stat(filepath.Join(dir, ".acp")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start
		}
		dir = parent
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/tracesink/internal/adapters/jsonl"
	"github.com/bft-labs/tracesink/internal/cliconfig"
	"github.com/bft-labs/tracesink/internal/configwatch"
	"github.com/bft-labs/tracesink/pkg/log"
	"github.com/bft-labs/tracesink/pkg/tracesink"
)

const longHelp = `
Replay trace events through the tracesink pipeline.

Every event read from the input is published to two sinks:
  - an async sink that batches events into a trace-event JSON file, and
  - a snapshot triage that keeps recent events in memory and writes them
    to request-<ts>.json when a root Begin/End scope exceeds the timeout.

Input is one JSON trace event per line ("ts" in microseconds, "ph", "pid",
"tid"), or a JSON array of such events. Configure via file, env, or flags.
`

var exampleUsage = strings.TrimSpace(`
  tracesink --input events.jsonl --output trace.json --timeout 0.5
  app | tracesink --config $HOME/.tracesink/config.toml --watch --metrics-addr :9100
`)

const shutdownTimeout = 5 * time.Second

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	root := &cobra.Command{
		Use:           "tracesink",
		Short:         "Batch trace events to disk and capture slow requests",
		Long:          strings.TrimSpace(longHelp),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			// Build set of changed flags
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			var warnings []error
			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					warnings = append(warnings, err)
				}
			} else {
				cfgFile = ""
			}

			// Environment overrides file config; flags override both.
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				warnings = append(warnings, err)
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := log.NewZerologAdapter(log.ParseLevel(cfg.LogLevel))
			for _, w := range warnings {
				logger.Warn("invalid configuration value, using default", log.Err(w))
			}
			logger.Info("configuration",
				log.String("config", cfgFile),
				log.String("input", cfg.Input),
				log.String("output", cfg.Output),
				log.Any("async", cfg.Async),
				log.Any("snapshot", cfg.Snapshot),
			)

			return runPipeline(cmd.Context(), cfg, cfgFile, logger)
		},
	}

	// Flags
	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.tracesink/config.toml)")
	root.Flags().StringVarP(&cfg.Input, "input", "i", cfg.Input, `JSON-lines trace events to read ("-" for stdin)`)
	root.Flags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "trace-event JSON file written by the async sink")
	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	root.Flags().StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve Prometheus metrics on this address (disabled when empty)")
	root.Flags().BoolVar(&cfg.Watch, "watch", cfg.Watch, "reload snapshot enabled/timeout/level when the config file changes")

	root.Flags().IntVar(&cfg.Async.MaxBatchSize, "max-batch-size", cfg.Async.MaxBatchSize, "records per batch before a forced submit")
	root.Flags().IntVar(&cfg.Async.QueueDepth, "queue-depth", cfg.Async.QueueDepth, "batches buffered before publishers block")
	root.Flags().DurationVar(&cfg.Async.FlushInterval, "flush-interval", cfg.Async.FlushInterval, "period of the forced flush")

	root.Flags().IntVar(&cfg.Snapshot.MaxEvents, "max-events", cfg.Snapshot.MaxEvents, "events kept in the snapshot window")
	root.Flags().Float64Var(&cfg.Snapshot.Timeout, "timeout", cfg.Snapshot.Timeout, "root scope duration in seconds that triggers a snapshot")
	root.Flags().StringVar(&cfg.Snapshot.FilePathPrefix, "file-path-prefix", cfg.Snapshot.FilePathPrefix, "snapshot file name prefix")
	root.Flags().StringVar(&cfg.Snapshot.Dir, "snapshot-dir", cfg.Snapshot.Dir, "directory for snapshot files (default: working directory)")
	root.Flags().BoolVar(&cfg.Snapshot.Enabled, "enabled", cfg.Snapshot.Enabled, "enable snapshot triage")
	root.Flags().Var(cliconfig.LevelFlag(&cfg.Snapshot.Level), "level", "minimum severity triaged (trace, debug, info, warn, error)")

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "tracesink: %v\n", err)
		os.Exit(1)
	}
}

func runPipeline(ctx context.Context, cfg cliconfig.Config, cfgFile string, logger log.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := tracesink.NewMetrics(reg)

	async, err := tracesink.NewFileAsyncSink(cfg.Output, cfg.Async,
		tracesink.WithLogger(log.With(logger, log.String("sink", "async"))),
		tracesink.WithMetrics(m),
	)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	triage := tracesink.NewSnapshotTriage(cfg.Snapshot,
		tracesink.WithLogger(log.With(logger, log.String("sink", "snapshot"))),
		tracesink.WithMetrics(m),
	)
	sink := tracesink.Tee(async, triage)

	var g run.Group

	{
		in, err := openInput(cfg.Input)
		if err != nil {
			async.Close()
			return err
		}
		ctx, cancel := context.WithCancel(ctx)
		g.Add(func() error {
			return pump(ctx, jsonl.NewReader(in, tracesink.LevelInfo), sink, logger)
		}, func(error) {
			cancel()
			in.Close()
		})
	}

	if cfg.Watch && cfgFile != "" {
		w := configwatch.New(cfgFile, triage, logger)
		ctx, cancel := context.WithCancel(ctx)
		g.Add(func() error {
			return w.Run(ctx)
		}, func(error) {
			cancel()
		})
	}

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		g.Add(func() error {
			logger.Info("serving metrics", log.String("addr", cfg.MetricsAddr))
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		}, func(error) {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			srv.Shutdown(ctx)
		})
	}

	g.Add(run.SignalHandler(ctx, syscall.SIGINT, syscall.SIGTERM))

	runErr := g.Run()

	// Drain both sinks regardless of why the group stopped.
	if err := async.Close(); err != nil {
		logger.Warn("close async sink", log.Err(err))
	}
	triage.Wait()

	var sig run.SignalError
	if errors.As(runErr, &sig) {
		logger.Info("received signal, stopped", log.String("signal", sig.Signal.String()))
		return nil
	}
	return runErr
}

// pump publishes every record from r until EOF or cancellation.
//
// Lines are read on a separate goroutine: closing os.Stdin does not unblock a
// pending read, so cancellation must not wait for the reader. Only pump
// publishes, so nothing reaches the sinks after it returns.
func pump(ctx context.Context, r *jsonl.Reader, sink tracesink.Publisher, logger log.Logger) error {
	type result struct {
		rec tracesink.Record
		err error
	}
	results := make(chan result)
	go func() {
		for {
			rec, err := r.Next(ctx)
			select {
			case results <- result{rec, err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		var res result
		select {
		case <-ctx.Done():
			return nil
		case res = <-results:
		}

		switch {
		case res.err == nil:
			sink.Publish(res.rec)
		case errors.Is(res.err, io.EOF):
			logger.Info("input exhausted", log.Int("lines", r.Line()))
			return nil
		case errors.Is(res.err, context.Canceled):
			return nil
		default:
			return fmt.Errorf("read input: %w", res.err)
		}
	}
}

func openInput(path string) (io.ReadCloser, error) {
	if path == cliconfig.StdinInput {
		return os.Stdin, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}

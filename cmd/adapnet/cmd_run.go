package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dd0wney/adapnet/pkg/config"
	"github.com/dd0wney/adapnet/pkg/health"
	"github.com/dd0wney/adapnet/pkg/logging"
	"github.com/dd0wney/adapnet/pkg/metrics"
	"github.com/dd0wney/adapnet/pkg/pubsub"
	"github.com/dd0wney/adapnet/pkg/results"
	"github.com/dd0wney/adapnet/pkg/simulation"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one simulation and write its results",
		Long: `Run one simulation and write its results.

Settings come from the built-in defaults, then --config, then flags.

Examples:
  adapnet run                                   # Defaults, writes NetValues.txt
  adapnet run --nodes 500 --steps 5000 --seed 7
  adapnet run --format json --out run.json --compress
  adapnet run --sqlite runs.db --tui
  adapnet run --nng-addr tcp://127.0.0.1:40899 --metrics-addr :9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			useTUI, _ := cmd.Flags().GetBool("tui")
			jsonOut, _ := cmd.Flags().GetBool("json")
			return runSimulation(cmd, cfg, useTUI, jsonOut)
		},
	}

	addOverrideFlags(cmd.Flags())
	cmd.Flags().Bool("tui", false, "Show a live progress view")

	return cmd
}

func runSimulation(cmd *cobra.Command, cfg config.Config, useTUI, jsonOut bool) error {
	var logOut io.Writer = cmd.ErrOrStderr()
	if useTUI {
		logOut = io.Discard
	}
	logger, closeLog, err := newLogger(cmd, cfg.Log, logOut)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	reg := metrics.DefaultRegistry()

	ps := pubsub.NewPubSub()
	defer ps.Shutdown()

	if addr := cfg.Output.NNGAddress; addr != "" {
		bridge, err := pubsub.NewNNGBridge(addr)
		if err != nil {
			return err
		}
		defer bridge.Close()
		sub, err := ps.Subscribe(ctx, pubsub.TopicAll)
		if err != nil {
			return err
		}
		go func() {
			if err := bridge.Forward(ctx, sub); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("nng forwarding stopped", logging.Error(err))
			}
		}()
		logger.Info("publishing progress events", logging.String("addr", addr))
	}

	sinks, closeSinks, err := openSinks(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSinks()

	if addr := cfg.Output.MetricsAddr; addr != "" {
		checker, err := newHealthChecker(ctx, ps, sinks)
		if err != nil {
			return err
		}
		routes := []metrics.Route{
			{Pattern: "/healthz", Handler: checker.HTTPHandler()},
			{Pattern: "/readyz", Handler: checker.ReadinessHandler()},
		}
		go func() {
			if err := reg.Serve(ctx, addr, routes...); err != nil {
				logger.Error("metrics endpoint failed", logging.String("addr", addr), logging.Error(err))
			}
		}()
		logger.Info("serving metrics and health", logging.String("addr", addr))
	}

	deps := simulation.Deps{
		Logger:    logger,
		Metrics:   reg,
		Publisher: ps,
		Sink:      results.Instrument(sinks, logger, reg),
	}
	runner, err := simulation.New(cfg, deps)
	if err != nil {
		return err
	}

	var series *results.Series
	if useTUI {
		sub, err := ps.Subscribe(ctx, pubsub.TopicAll)
		if err != nil {
			runner.Close()
			return err
		}
		series, err = runWithTUI(ctx, cancel, runner, sub)
		if err != nil {
			return err
		}
	} else {
		series, err = runner.Run(ctx)
		if err != nil {
			return err
		}
	}

	if n := ps.Dropped(); n > 0 {
		logger.Warn("progress events dropped by slow subscribers", logging.Uint64("dropped", n))
	}

	sum := results.Summarize(series)
	out := cmd.OutOrStdout()
	if jsonOut {
		return json.NewEncoder(out).Encode(map[string]any{
			"summary":  sum,
			"seed":     series.Seed,
			"duration": series.Duration().String(),
			"outputs":  sinkNames(sinks),
		})
	}
	fmt.Fprintln(out, renderSummary(series, sum, describeOutputs(sinks, series)))
	return nil
}

// openSinks opens every configured result destination. The returned
// function closes the database-backed ones.
func openSinks(ctx context.Context, cfg config.Config) ([]results.Sink, func(), error) {
	var (
		sinks   []results.Sink
		closers []func() error
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}

	out := cfg.Output
	format, err := results.ParseFormat(out.Format)
	if err != nil {
		return nil, closeAll, err
	}

	if out.Path != "" {
		sinks = append(sinks, results.NewFileSink(out.Path, format, out.Compress))
	}
	if out.SQLitePath != "" {
		store, err := results.OpenSQLite(ctx, out.SQLitePath)
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		sinks = append(sinks, store)
		closers = append(closers, store.Close)
	}
	if out.PostgresURL != "" {
		store, err := results.OpenPostgres(ctx, out.PostgresURL)
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		sinks = append(sinks, store)
		closers = append(closers, store.Close)
	}
	if out.S3.Bucket != "" {
		s3Sink, err := results.NewS3Sink(ctx, out.S3.Bucket, out.S3.Key, out.S3.Region, format, out.Compress)
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		sinks = append(sinks, s3Sink)
	}
	return sinks, closeAll, nil
}

// stallWindow is how long a running simulation may go without an event
// before /healthz reports it degraded.
const stallWindow = 30 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

// newHealthChecker tracks the run through its own subscription and checks
// every database-backed sink.
func newHealthChecker(ctx context.Context, ps *pubsub.PubSub, sinks []results.Sink) (*health.Checker, error) {
	sub, err := ps.Subscribe(ctx, pubsub.TopicAll)
	if err != nil {
		return nil, err
	}
	progress := health.NewProgress()
	go progress.Follow(ctx, sub.Channel())

	checker := health.NewChecker()
	checker.RegisterCheck("run", health.ProgressCheck(progress, stallWindow))
	checker.RegisterCheck("memory", health.MemoryCheck(health.RuntimeMemory))
	for _, s := range sinks {
		p, ok := s.(pinger)
		if !ok {
			continue
		}
		check := health.StoreCheck(s.Name(), p.Ping)
		checker.RegisterCheck(s.Name(), check)
		checker.RegisterReadinessCheck(s.Name(), check)
	}
	return checker, nil
}

func sinkNames(sinks []results.Sink) []string {
	names := make([]string, len(sinks))
	for i, s := range sinks {
		names[i] = s.Name()
	}
	return names
}

// output is one written destination for the summary view.
type output struct {
	Name   string
	Target string
	Size   int64
}

func describeOutputs(sinks []results.Sink, series *results.Series) []output {
	var outs []output
	for _, s := range sinks {
		o := output{Name: s.Name()}
		switch v := s.(type) {
		case *results.FileSink:
			o.Target = v.Path
			if info, err := os.Stat(v.Path); err == nil {
				o.Size = info.Size()
			}
		case *results.SQLiteStore:
			o.Target = v.Path()
		case *results.S3Sink:
			o.Target = "s3://" + v.Bucket + "/" + v.ObjectKey(series)
			o.Size = int64(v.LastSize())
		}
		outs = append(outs, o)
	}
	return outs
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dd0wney/adapnet/pkg/config"
	"github.com/dd0wney/adapnet/pkg/logging"
)

type intOverride struct {
	name  string
	usage string
	field func(*config.Config) *int
}

type floatOverride struct {
	name  string
	usage string
	field func(*config.Config) *float64
}

type stringOverride struct {
	name  string
	usage string
	field func(*config.Config) *string
}

type boolOverride struct {
	name  string
	usage string
	field func(*config.Config) *bool
}

var intOverrides = []intOverride{
	{"nodes", "Number of nodes", func(c *config.Config) *int { return &c.Model.Nodes }},
	{"steps", "Number of time steps", func(c *config.Config) *int { return &c.Model.Steps }},
	{"generation-length", "Steps per generation", func(c *config.Config) *int { return &c.Model.GenerationLength }},
	{"strategies", "Number of rewiring strategies in play (2-5)", func(c *config.Config) *int { return &c.Model.Strategies }},
	{"recovery-duration", "Steps a node stays infectious", func(c *config.Config) *int { return &c.Model.RecoveryDuration }},
	{"seed-count", "Nodes infected at start and on reseed", func(c *config.Config) *int { return &c.Model.SeedCount }},
	{"elite-count", "Nodes copied over each generation", func(c *config.Config) *int { return &c.Model.EliteCount }},
	{"workers", "Distance computation workers", func(c *config.Config) *int { return &c.Runtime.Workers }},
}

var floatOverrides = []floatOverride{
	{"transmission-rate", "Per-edge infection probability", func(c *config.Config) *float64 { return &c.Model.TransmissionRate }},
	{"rewire-rate", "Per-edge rewiring probability", func(c *config.Config) *float64 { return &c.Model.RewireRate }},
	{"mutation-rate", "Per-node strategy mutation probability", func(c *config.Config) *float64 { return &c.Model.MutationRate }},
	{"edge-probability", "Initial edge probability", func(c *config.Config) *float64 { return &c.Model.EdgeProbability }},
	{"random-rewire-prob", "Per-step long-range swap probability", func(c *config.Config) *float64 { return &c.Model.RandomRewireProb }},
}

var stringOverrides = []stringOverride{
	{"out", "Result file path (empty disables the file sink)", func(c *config.Config) *string { return &c.Output.Path }},
	{"format", "Result format: octave, json or csv", func(c *config.Config) *string { return &c.Output.Format }},
	{"sqlite", "Also store the run in this SQLite database", func(c *config.Config) *string { return &c.Output.SQLitePath }},
	{"postgres", "Also store the run in this PostgreSQL database URL", func(c *config.Config) *string { return &c.Output.PostgresURL }},
	{"s3-bucket", "Also upload the result to this S3 bucket", func(c *config.Config) *string { return &c.Output.S3.Bucket }},
	{"s3-key", "S3 object key; {run_id} is replaced", func(c *config.Config) *string { return &c.Output.S3.Key }},
	{"s3-region", "S3 region override", func(c *config.Config) *string { return &c.Output.S3.Region }},
	{"nng-addr", "Publish progress events on this NNG address", func(c *config.Config) *string { return &c.Output.NNGAddress }},
	{"metrics-addr", "Serve Prometheus metrics on this address", func(c *config.Config) *string { return &c.Output.MetricsAddr }},
}

var boolOverrides = []boolOverride{
	{"compress", "Snappy-compress the result file", func(c *config.Config) *bool { return &c.Output.Compress }},
	{"check-invariants", "Validate graph, infection state and distances every step", func(c *config.Config) *bool { return &c.Runtime.CheckInvariants }},
}

// addOverrideFlags registers one flag per overridable setting, showing the
// built-in default.
func addOverrideFlags(fs *pflag.FlagSet) {
	def := config.Default()
	for _, o := range intOverrides {
		fs.Int(o.name, *o.field(&def), o.usage)
	}
	for _, o := range floatOverrides {
		fs.Float64(o.name, *o.field(&def), o.usage)
	}
	for _, o := range stringOverrides {
		fs.String(o.name, *o.field(&def), o.usage)
	}
	for _, o := range boolOverrides {
		fs.Bool(o.name, *o.field(&def), o.usage)
	}
	fs.Uint64("seed", 0, "RNG seed (0 derives one from the clock)")
}

// applyOverrides copies explicitly set flags onto cfg. Flags left at their
// defaults never mask values from the config file.
func applyOverrides(fs *pflag.FlagSet, cfg *config.Config) error {
	for _, o := range intOverrides {
		if fs.Changed(o.name) {
			v, err := fs.GetInt(o.name)
			if err != nil {
				return err
			}
			*o.field(cfg) = v
		}
	}
	for _, o := range floatOverrides {
		if fs.Changed(o.name) {
			v, err := fs.GetFloat64(o.name)
			if err != nil {
				return err
			}
			*o.field(cfg) = v
		}
	}
	for _, o := range stringOverrides {
		if fs.Changed(o.name) {
			v, err := fs.GetString(o.name)
			if err != nil {
				return err
			}
			*o.field(cfg) = v
		}
	}
	for _, o := range boolOverrides {
		if fs.Changed(o.name) {
			v, err := fs.GetBool(o.name)
			if err != nil {
				return err
			}
			*o.field(cfg) = v
		}
	}
	if fs.Changed("seed") {
		v, err := fs.GetUint64("seed")
		if err != nil {
			return err
		}
		cfg.Runtime.Seed = v
	}

	if fs.Changed("log-level") {
		cfg.Log.Level, _ = fs.GetString("log-level")
	}
	if fs.Changed("log-format") {
		cfg.Log.Format, _ = fs.GetString("log-format")
	}
	return nil
}

// loadConfig resolves the effective configuration: defaults, then the
// --config file, then flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return cfg, err
		}
	}
	if err := applyOverrides(cmd.Flags(), &cfg); err != nil {
		return cfg, fmt.Errorf("flags: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger from the log section. It writes to
// --log-file when given, otherwise to fallback.
func newLogger(cmd *cobra.Command, cfg config.Log, fallback io.Writer) (logging.Logger, func() error, error) {
	level, err := logging.LookupLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	w := fallback
	closeFn := func() error { return nil }
	if path, _ := cmd.Flags().GetString("log-file"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closeFn = f.Close
	}

	logger := logging.New(w, logging.Format(cfg.Format), level)
	logging.SetDefaultLogger(logger)
	return logger, closeFn, nil
}

// signalContext derives a context that is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	ch := make(chan os.Signal, 1)
	notifySignals(ch)
	go func() {
		select {
		case <-ch:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(ch)
	}()
	return ctx, cancel
}

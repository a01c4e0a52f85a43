package results

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dd0wney/adapnet/pkg/logging"
	"github.com/dd0wney/adapnet/pkg/metrics"
)

// Sink receives the finished series of a run exactly once.
type Sink interface {
	Name() string
	Write(ctx context.Context, s *Series) error
}

// sized is implemented by sinks that know how many bytes their last write
// produced.
type sized interface {
	LastSize() int
}

// MultiSink writes to every sink and joins their errors. A failing sink
// does not stop the others.
type MultiSink []Sink

// Name implements Sink.
func (m MultiSink) Name() string { return "multi" }

// Write implements Sink.
func (m MultiSink) Write(ctx context.Context, s *Series) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Write(ctx, s); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Instrumented wraps a sink with logging and metrics.
type Instrumented struct {
	Sink    Sink
	Logger  logging.Logger
	Metrics *metrics.Registry
}

// Name implements Sink.
func (i Instrumented) Name() string { return i.Sink.Name() }

// Write implements Sink.
func (i Instrumented) Write(ctx context.Context, s *Series) error {
	start := time.Now()
	err := i.Sink.Write(ctx, s)
	elapsed := time.Since(start)

	size := 0
	if sz, ok := i.Sink.(sized); ok {
		size = sz.LastSize()
	}
	i.Metrics.RecordSinkWrite(i.Sink.Name(), err, elapsed, size)

	logger := i.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	fields := []logging.Field{
		logging.Component("sink"),
		logging.String("sink", i.Sink.Name()),
		logging.RunID(s.RunID),
		logging.Latency(elapsed),
	}
	if err != nil {
		logger.Error("result emission failed", append(fields, logging.Error(err))...)
		return err
	}
	logger.Info("results written", append(fields, logging.Int("bytes", size))...)
	return nil
}

// Instrument wraps every sink in sinks.
func Instrument(sinks []Sink, logger logging.Logger, m *metrics.Registry) MultiSink {
	out := make(MultiSink, len(sinks))
	for i, s := range sinks {
		out[i] = Instrumented{Sink: s, Logger: logger, Metrics: m}
	}
	return out
}

// MemorySink keeps the last series in memory.
type MemorySink struct {
	Last *Series
}

// Name implements Sink.
func (m *MemorySink) Name() string { return "memory" }

// Write implements Sink.
func (m *MemorySink) Write(_ context.Context, s *Series) error {
	m.Last = s
	return nil
}

package results

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/adapnet/pkg/logging"
	"github.com/dd0wney/adapnet/pkg/metrics"
)

type failingSink struct{ err error }

func (f failingSink) Name() string                         { return "failing" }
func (f failingSink) Write(context.Context, *Series) error { return f.err }

func TestMultiSink_WritesAllAndJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	mem := &MemorySink{}
	multi := MultiSink{failingSink{err: boom}, mem}

	err := multi.Write(context.Background(), fixture())

	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failing: boom")
	require.NotNil(t, mem.Last, "later sinks still run")
	assert.Equal(t, "run-1", mem.Last.RunID)
}

func TestInstrumented_RecordsMetricsAndLogs(t *testing.T) {
	reg := metrics.NewRegistry()
	var buf bytes.Buffer
	logger := logging.NewJSONLogger(&buf, logging.InfoLevel)

	sinks := Instrument([]Sink{&MemorySink{}, failingSink{err: errors.New("down")}}, logger, reg)
	err := sinks.Write(context.Background(), fixture())
	require.Error(t, err)

	var m dto.Metric
	c, _ := reg.SinkWritesTotal.GetMetricWithLabelValues("memory", "success")
	require.NoError(t, c.Write(&m))
	assert.Equal(t, 1.0, m.Counter.GetValue())

	c, _ = reg.SinkWritesTotal.GetMetricWithLabelValues("failing", "error")
	require.NoError(t, c.Write(&m))
	assert.Equal(t, 1.0, m.Counter.GetValue())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"msg":"results written"`)
	assert.Contains(t, lines[1], `"msg":"result emission failed"`)
}

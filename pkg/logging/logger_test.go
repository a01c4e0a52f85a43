package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func fixedClock() time.Time {
	return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
}

func decode(t *testing.T, line []byte) LogEntry {
	t.Helper()
	var entry LogEntry
	if err := json.Unmarshal(line, &entry); err != nil {
		t.Fatalf("Failed to unmarshal log entry %q: %v", line, err)
	}
	return entry
}

func TestLookupLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{"DEBUG", DebugLevel, false},
		{"info", InfoLevel, false},
		{" Warning ", WarnLevel, false},
		{"error", ErrorLevel, false},
		{"verbose", InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := LookupLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LookupLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("LookupLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if ParseLevel(tt.input) != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, ParseLevel(tt.input), tt.want)
			}
		})
	}
}

func TestJSONLogger_DomainFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, DebugLevel)
	logger.now = fixedClock

	logger.Info("generation complete",
		RunID("abc"),
		Step(200),
		Generation(2),
		Prevalence(0.125),
		Phase("evolve"),
	)

	entry := decode(t, buf.Bytes())
	if entry.Time != "2024-03-01T12:00:00Z" {
		t.Errorf("Time = %v", entry.Time)
	}
	if entry.Level != "INFO" || entry.Message != "generation complete" {
		t.Errorf("entry = %+v", entry)
	}
	want := map[string]any{
		"run_id":     "abc",
		"step":       float64(200),
		"generation": float64(2),
		"prevalence": 0.125,
		"phase":      "evolve",
	}
	for k, v := range want {
		if entry.Fields[k] != v {
			t.Errorf("Fields[%s] = %v, want %v", k, entry.Fields[k], v)
		}
	}
}

type named string

func (n named) String() string { return string(n) }

func TestStrategyField(t *testing.T) {
	f := Strategy(named("lowest_degree"))
	if f.Key != "strategy" || f.Value != "lowest_degree" {
		t.Errorf("Strategy() = %+v", f)
	}
	if e := Error(nil); e.Value != nil {
		t.Errorf("Error(nil) = %+v", e)
	}
	if e := Error(errors.New("boom")); e.Value != "boom" {
		t.Errorf("Error() = %+v", e)
	}
}

func TestJSONLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, WarnLevel)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 log entries, got %d", len(lines))
	}
	if decode(t, []byte(lines[0])).Level != "WARN" {
		t.Errorf("first entry is not WARN: %s", lines[0])
	}
	if decode(t, []byte(lines[1])).Level != "ERROR" {
		t.Errorf("second entry is not ERROR: %s", lines[1])
	}
}

func TestJSONLogger_WithSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)
	child := logger.With(Component("simulation"), RunID("r1"))

	child.Info("started", Step(0))
	entry := decode(t, buf.Bytes())
	if entry.Fields["component"] != "simulation" || entry.Fields["run_id"] != "r1" || entry.Fields["step"] != float64(0) {
		t.Errorf("child fields = %v", entry.Fields)
	}

	buf.Reset()
	logger.SetLevel(ErrorLevel)
	child.Info("suppressed")
	if buf.Len() != 0 {
		t.Errorf("child ignored parent level change: %s", buf.String())
	}
	if child.GetLevel() != ErrorLevel {
		t.Errorf("child level = %v, want ERROR", child.GetLevel())
	}
}

func TestJSONLogger_NoFieldsOmitted(t *testing.T) {
	var buf bytes.Buffer
	NewJSONLogger(&buf, InfoLevel).Info("message without fields")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if _, exists := entry["fields"]; exists {
		t.Error("Expected fields key to be omitted when empty")
	}
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, FormatText, InfoLevel)
	logger.now = fixedClock

	logger.Warn("reseed failed", Step(7), Count(3))

	got := strings.TrimSpace(buf.String())
	want := "2024-03-01T12:00:00Z WARN  reseed failed count=3 step=7"
	if got != want {
		t.Errorf("text line = %q, want %q", got, want)
	}
}

func TestTimedOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, DebugLevel)

	timer := StartTimer(logger, "phase", Phase("distances"))
	if d := timer.EndWithLevel(DebugLevel); d < 0 {
		t.Errorf("negative duration %v", d)
	}
	entry := decode(t, buf.Bytes())
	if entry.Level != "DEBUG" || entry.Fields["phase"] != "distances" || entry.Fields["latency"] == nil {
		t.Errorf("entry = %+v", entry)
	}

	buf.Reset()
	StartTimer(logger, "run").EndError(errors.New("cancelled"))
	entry = decode(t, buf.Bytes())
	if entry.Level != "ERROR" || entry.Fields["error"] != "cancelled" {
		t.Errorf("entry = %+v", entry)
	}
}

func TestDefaultLogger(t *testing.T) {
	if DefaultLogger() == nil {
		t.Fatal("DefaultLogger() returned nil")
	}

	var buf bytes.Buffer
	SetDefaultLogger(NewJSONLogger(&buf, InfoLevel))
	t.Cleanup(func() { SetDefaultLogger(nil) })

	DefaultLogger().Info("swapped")
	if !strings.Contains(buf.String(), "swapped") {
		t.Errorf("default logger not replaced: %q", buf.String())
	}
}

func TestNopLogger(t *testing.T) {
	var l Logger = NewNopLogger()
	l.Info("ignored")
	if l.With(Step(1)) == nil {
		t.Fatal("With returned nil")
	}
}

func BenchmarkJSONLogger_Info(b *testing.B) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("step", Step(i), Prevalence(0.1))
	}
}

func BenchmarkJSONLogger_InfoFiltered(b *testing.B) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, ErrorLevel)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("step", Step(i), Prevalence(0.1))
	}
}

package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// NewJSONLogger creates a logger that writes one JSON object per line
func NewJSONLogger(writer io.Writer, level Level) *JSONLogger {
	return New(writer, FormatJSON, level)
}

// New creates a logger with the given output format. Unknown formats fall
// back to JSON.
func New(writer io.Writer, format Format, level Level) *JSONLogger {
	if format != FormatText {
		format = FormatJSON
	}
	return &JSONLogger{
		writer: writer,
		format: format,
		level:  &levelVar{level: level},
		fields: make([]Field, 0),
		now:    time.Now,
		mu:     &sync.Mutex{},
	}
}

func (l *JSONLogger) log(level Level, msg string, fields ...Field) {
	if level < l.level.get() {
		return
	}

	fieldMap := make(map[string]any, len(l.fields)+len(fields))
	for _, f := range l.fields {
		fieldMap[f.Key] = f.Value
	}
	for _, f := range fields {
		fieldMap[f.Key] = f.Value
	}

	ts := l.now().UTC().Format(time.RFC3339Nano)

	var line []byte
	switch l.format {
	case FormatText:
		line = []byte(textLine(ts, level, msg, fieldMap))
	default:
		entry := LogEntry{Time: ts, Level: level.String(), Message: msg}
		if len(fieldMap) > 0 {
			entry.Fields = fieldMap
		}
		data, err := json.Marshal(entry)
		if err != nil {
			data = fmt.Appendf(nil, `{"time":%q,"level":"ERROR","msg":"log marshal failed: %s"}`, ts, err)
		}
		line = data
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer.Write(line)
}

func textLine(ts string, level Level, msg string, fields map[string]any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-5s %s", ts, level, msg)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}
	return b.String()
}

// Debug logs a debug-level message
func (l *JSONLogger) Debug(msg string, fields ...Field) {
	l.log(DebugLevel, msg, fields...)
}

// Info logs an info-level message
func (l *JSONLogger) Info(msg string, fields ...Field) {
	l.log(InfoLevel, msg, fields...)
}

// Warn logs a warning-level message
func (l *JSONLogger) Warn(msg string, fields ...Field) {
	l.log(WarnLevel, msg, fields...)
}

// Error logs an error-level message
func (l *JSONLogger) Error(msg string, fields ...Field) {
	l.log(ErrorLevel, msg, fields...)
}

// With creates a child logger with the given fields pre-set. The child
// shares the parent's writer lock and level.
func (l *JSONLogger) With(fields ...Field) Logger {
	newFields := make([]Field, len(l.fields)+len(fields))
	copy(newFields, l.fields)
	copy(newFields[len(l.fields):], fields)

	return &JSONLogger{
		writer: l.writer,
		format: l.format,
		level:  l.level,
		fields: newFields,
		now:    l.now,
		mu:     l.mu,
	}
}

// SetLevel sets the minimum log level
func (l *JSONLogger) SetLevel(level Level) {
	l.level.set(level)
}

// GetLevel returns the current log level
func (l *JSONLogger) GetLevel() Level {
	return l.level.get()
}

var (
	defaultLogger Logger
	defaultMu     sync.Mutex
)

// DefaultLogger returns the process-wide logger. It writes JSON to stderr,
// keeping stdout free for result output, at the level named by LOG_LEVEL.
func DefaultLogger() Logger {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		defaultLogger = NewJSONLogger(os.Stderr, ParseLevel(os.Getenv("LOG_LEVEL")))
	}
	return defaultLogger
}

// SetDefaultLogger replaces the process-wide logger
func SetDefaultLogger(logger Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = logger
}

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
)

// TestLogger writes every entry as one JSON line into an in-memory buffer.
// Loggers derived through With share the buffer and its lock, so one
// TestLogger can be handed to the whole sweep worker pool.
//
//	logger, buf := log.NewTestLogger(log.LevelDebug)
//	logger.Info("Starting with Params(k=2)", log.ThreadsKey, 4)
//	entries, _ := logger.GetLogEntries()
type TestLogger struct {
	mu     *sync.Mutex
	buffer *bytes.Buffer
	level  Level
	fields map[string]any
}

// NewTestLogger returns a logger that drops entries below level, and the
// buffer it writes to.
func NewTestLogger(level Level) (*TestLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return &TestLogger{mu: &sync.Mutex{}, buffer: buf, level: level, fields: map[string]any{}}, buf
}

func (t *TestLogger) Debug(msg string, fields ...any) { t.log(LevelDebug, msg, fields) }
func (t *TestLogger) Info(msg string, fields ...any)  { t.log(LevelInfo, msg, fields) }
func (t *TestLogger) Warn(msg string, fields ...any)  { t.log(LevelWarn, msg, fields) }
func (t *TestLogger) Error(msg string, fields ...any) { t.log(LevelError, msg, fields) }

// With returns a logger that adds fields to every entry.
func (t *TestLogger) With(fields ...any) Logger {
	merged := make(map[string]any, len(t.fields)+len(fields)/2)
	for k, v := range t.fields {
		merged[k] = v
	}
	for _, kv := range pairs(fields) {
		merged[kv.key] = fieldValue(kv.value)
	}
	return &TestLogger{mu: t.mu, buffer: t.buffer, level: t.level, fields: merged}
}

func (t *TestLogger) Enabled(_ context.Context, level Level) bool {
	return t.level <= level
}

func (t *TestLogger) log(level Level, msg string, fields []any) {
	if level < t.level {
		return
	}
	entry := map[string]any{"level": level.String(), "message": msg}
	for k, v := range t.fields {
		entry[k] = v
	}
	for _, kv := range pairs(fields) {
		entry[kv.key] = fieldValue(kv.value)
	}
	line, _ := json.Marshal(entry)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.buffer.Write(line)
	t.buffer.WriteByte('\n')
}

// GetBuffer returns the buffer the logger writes to.
func (t *TestLogger) GetBuffer() *bytes.Buffer {
	return t.buffer
}

// GetLogEntries decodes every captured line.
func (t *TestLogger) GetLogEntries() ([]map[string]any, error) {
	t.mu.Lock()
	raw := t.buffer.String()
	t.mu.Unlock()

	var entries []map[string]any
	for _, line := range strings.Split(raw, "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ContainsMessage reports whether any captured output contains message.
func (t *TestLogger) ContainsMessage(message string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Contains(t.buffer.String(), message)
}

// ContainsField reports whether some entry has key set to value. Numbers
// decode as float64.
func (t *TestLogger) ContainsField(key string, value any) bool {
	entries, err := t.GetLogEntries()
	if err != nil {
		return false
	}
	for _, e := range entries {
		if v, ok := e[key]; ok && v == value {
			return true
		}
	}
	return false
}

// Clear drops everything captured so far.
func (t *TestLogger) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buffer.Reset()
}

// TestLoggerProvider hands out named loggers that all write to one TestLogger.
type TestLoggerProvider struct {
	logger *TestLogger
	buffer *bytes.Buffer
}

// NewTestLoggerProvider returns a provider and the buffer its loggers share.
func NewTestLoggerProvider(level Level) (*TestLoggerProvider, *bytes.Buffer) {
	logger, buf := NewTestLogger(level)
	return &TestLoggerProvider{logger: logger, buffer: buf}, buf
}

func (p *TestLoggerProvider) GetLogger() Logger { return p.logger }

func (p *TestLoggerProvider) GetLoggerWithName(name string) Logger {
	return p.logger.With(componentKey, name)
}

func (p *TestLoggerProvider) SetLevel(level Level) { p.logger.level = level }

// GetBuffer returns the shared buffer.
func (p *TestLoggerProvider) GetBuffer() *bytes.Buffer { return p.buffer }

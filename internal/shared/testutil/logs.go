package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

// LogRecord is one captured log entry.
type LogRecord struct {
	Time    time.Time
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

type logStore struct {
	mu      sync.Mutex
	records []LogRecord
}

// CapturingHandler records every log entry so tests can assert on them.
// Handlers derived with WithAttrs share the same store and carry their attrs.
type CapturingHandler struct {
	store *logStore
	attrs []slog.Attr
	t     *testing.T
}

// NewCapturingHandler creates an empty handler. t may be nil.
func NewCapturingHandler(t *testing.T) *CapturingHandler {
	return &CapturingHandler{store: &logStore{}, t: t}
}

// Handle implements slog.Handler
func (h *CapturingHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	h.store.mu.Lock()
	h.store.records = append(h.store.records, LogRecord{
		Time:    r.Time,
		Level:   r.Level,
		Message: r.Message,
		Attrs:   attrs,
	})
	h.store.mu.Unlock()

	if h.t != nil {
		h.t.Logf("[%s] %s %v", r.Level, r.Message, attrs)
	}
	return nil
}

// Enabled implements slog.Handler
func (h *CapturingHandler) Enabled(context.Context, slog.Level) bool { return true }

// WithAttrs implements slog.Handler
func (h *CapturingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &CapturingHandler{store: h.store, attrs: merged, t: h.t}
}

// WithGroup implements slog.Handler. Groups are flattened.
func (h *CapturingHandler) WithGroup(string) slog.Handler { return h }

// Records returns a copy of the captured entries.
func (h *CapturingHandler) Records() []LogRecord {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	out := make([]LogRecord, len(h.store.records))
	copy(out, h.store.records)
	return out
}

// RecordsAt returns the entries logged at level.
func (h *CapturingHandler) RecordsAt(level slog.Level) []LogRecord {
	var out []LogRecord
	for _, r := range h.Records() {
		if r.Level == level {
			out = append(out, r)
		}
	}
	return out
}

// Find returns the first entry whose message contains msg.
func (h *CapturingHandler) Find(msg string) (LogRecord, bool) {
	for _, r := range h.Records() {
		if strings.Contains(r.Message, msg) {
			return r, true
		}
	}
	return LogRecord{}, false
}

// HasAttr reports whether any entry carries key=value.
func (h *CapturingHandler) HasAttr(key string, value any) bool {
	for _, r := range h.Records() {
		if v, ok := r.Attrs[key]; ok && v == value {
			return true
		}
	}
	return false
}

// Count returns the number of captured entries.
func (h *CapturingHandler) Count() int {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	return len(h.store.records)
}

// NewTestLogger returns a logger backed by a CapturingHandler.
func NewTestLogger(t *testing.T) (*slog.Logger, *CapturingHandler) {
	h := NewCapturingHandler(t)
	return slog.New(h), h
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discard{}, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

// AssertLogged fails the test unless an entry at level contains msg.
func AssertLogged(t *testing.T, h *CapturingHandler, level slog.Level, msg string) {
	t.Helper()
	for _, r := range h.RecordsAt(level) {
		if strings.Contains(r.Message, msg) {
			return
		}
	}
	t.Errorf("expected %s log containing %q", level, msg)
	for _, r := range h.Records() {
		t.Logf("  [%s] %s", r.Level, r.Message)
	}
}

// AssertNoErrors fails the test if anything was logged at error level.
func AssertNoErrors(t *testing.T, h *CapturingHandler) {
	t.Helper()
	for _, r := range h.RecordsAt(slog.LevelError) {
		t.Errorf("unexpected error log: %s %v", r.Message, r.Attrs)
	}
}

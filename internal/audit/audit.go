package audit

import (
	"context"
	"log/slog"
	"sync"

	"securelink/internal/domain"
)

// SlogSink writes security events to a structured logger.
type SlogSink struct {
	log *slog.Logger
}

// NewSlogSink returns a sink writing to l, or to slog.Default when l is nil.
func NewSlogSink(l *slog.Logger) *SlogSink {
	if l == nil {
		l = slog.Default()
	}
	return &SlogSink{log: l}
}

// Record logs ev at a level derived from its severity.
func (s *SlogSink) Record(ctx context.Context, ev domain.SecurityEvent) {
	attrs := []slog.Attr{
		slog.String("event", string(ev.Kind)),
		slog.String("severity", string(ev.Severity)),
		slog.Time("at", ev.Time),
	}
	if ev.SessionID != "" {
		attrs = append(attrs, slog.String("session_id", string(ev.SessionID)))
	}
	if ev.Local != "" {
		attrs = append(attrs, slog.String("local", string(ev.Local)))
	}
	if ev.Peer != "" {
		attrs = append(attrs, slog.String("peer", string(ev.Peer)))
	}
	if ev.Reason != "" {
		attrs = append(attrs, slog.String("reason", ev.Reason))
	}
	s.log.LogAttrs(ctx, Level(ev.Severity), "security event", attrs...)
}

// Level maps a severity to a slog level.
func Level(sev domain.Severity) slog.Level {
	switch sev {
	case domain.SeverityWarning:
		return slog.LevelWarn
	case domain.SeverityError, domain.SeverityCritical:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Recorder keeps events in memory. The zero value is ready to use and keeps
// everything; set Limit to retain only the most recent events.
type Recorder struct {
	Limit int

	mu     sync.Mutex
	events []domain.SecurityEvent
}

// Record appends ev, dropping the oldest event once Limit is reached.
func (r *Recorder) Record(_ context.Context, ev domain.SecurityEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Limit > 0 && len(r.events) >= r.Limit {
		n := copy(r.events, r.events[len(r.events)-r.Limit+1:])
		r.events = r.events[:n]
	}
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []domain.SecurityEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.SecurityEvent(nil), r.events...)
}

// Kinds returns the kinds of the recorded events in order.
func (r *Recorder) Kinds() []domain.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.EventKind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}

// Reset forgets all events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

// Multi forwards each event to every sink.
type Multi []domain.SecurityLog

// Record forwards ev.
func (m Multi) Record(ctx context.Context, ev domain.SecurityEvent) {
	for _, s := range m {
		if s != nil {
			s.Record(ctx, ev)
		}
	}
}

// Discard drops every event.
var Discard domain.SecurityLog = Multi(nil)

// Compile-time assertions.
var (
	_ domain.SecurityLog = (*SlogSink)(nil)
	_ domain.SecurityLog = (*Recorder)(nil)
	_ domain.SecurityLog = Multi(nil)
)

// Package audit provides the append-only log of denied and critical query
// events. The in-memory log is the source of truth for the lifetime of the
// process; an optional Recorder can mirror entries to external storage.
package audit

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sasilab/medbot/internal/domain/policy"
)

// Event is one audit log entry. Events are never mutated or deleted after
// append; ordering is append order.
type Event struct {
	ID        uuid.UUID   `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Username  string      `json:"username"`
	Role      policy.Role `json:"role"`
	Event     string      `json:"event"`
	Critical  bool        `json:"critical"`
}

// Recorder mirrors audit events to an external sink. Implementations must
// tolerate being called from multiple sessions concurrently.
type Recorder interface {
	Record(event Event) error
}

// RecorderFunc adapts a function to the Recorder interface.
type RecorderFunc func(event Event) error

func (f RecorderFunc) Record(event Event) error { return f(event) }

// Log is an append-only in-memory audit log. Appends are atomic and reads
// return a consistent snapshot, so one Log may be shared by every session in
// the process.
type Log struct {
	mu       sync.RWMutex
	events   []Event
	recorder Recorder
	logger   zerolog.Logger
}

// NewLog creates an empty audit log.
func NewLog(logger zerolog.Logger) *Log {
	return &Log{logger: logger.With().Str("component", "audit").Logger()}
}

// SetRecorder attaches an optional external sink. Recorder failures are
// logged and never fail the append.
func (l *Log) SetRecorder(r Recorder) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.recorder = r
}

// Append records one event with a generated ID and wall-clock timestamp
// (second precision, matching the upstream log format).
func (l *Log) Append(username string, role policy.Role, description string, critical bool) Event {
	event := Event{
		ID:        uuid.New(),
		Timestamp: time.Now().Truncate(time.Second),
		Username:  username,
		Role:      role,
		Event:     description,
		Critical:  critical,
	}

	l.mu.Lock()
	l.events = append(l.events, event)
	recorder := l.recorder
	l.mu.Unlock()

	if recorder != nil {
		if err := recorder.Record(event); err != nil {
			l.logger.Error().Err(err).Str("event_id", event.ID.String()).Msg("audit recorder failed")
		}
	}
	return event
}

// Events returns a snapshot of all events in append order.
func (l *Log) Events() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// Len returns the number of recorded events.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// Render formats the log for terminal display. Authorization is the
// caller's responsibility: only Supervisor sessions may see this output.
func (l *Log) Render() string {
	events := l.Events()
	if len(events) == 0 {
		return "No critical or denied events logged yet."
	}

	var b strings.Builder
	b.WriteString("=== AUDIT LOG ===\n")
	for _, e := range events {
		marker := ""
		if e.Critical {
			marker = " [CRITICAL]"
		}
		fmt.Fprintf(&b, "%s | %s (%s): %s%s\n",
			e.Timestamp.Format("2006-01-02T15:04:05"), e.Username, e.Role, e.Event, marker)
	}
	b.WriteString("=================")
	return b.String()
}

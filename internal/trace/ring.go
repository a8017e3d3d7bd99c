package trace

import (
	"io"
	"slices"
	"sync"
)

// RingTracer keeps the last N events in memory for a post-mortem dump.
type RingTracer struct {
	mu     sync.Mutex
	events []Event
	next   int // slot of the next write once the buffer is full
	level  Level
}

// NewRingTracer creates a RingTracer holding up to capacity events.
func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = 4096
	}
	return &RingTracer{events: make([]Event, 0, capacity), level: level}
}

func (t *RingTracer) Emit(ev *Event) {
	if ev == nil || !t.level.ShouldEmit(ev.Scope) {
		return
	}
	stored := *ev
	stamp(&stored)

	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.events) < cap(t.events) {
		t.events = append(t.events, stored)
		return
	}
	t.events[t.next] = stored
	t.next = (t.next + 1) % len(t.events)
}

// Snapshot returns the stored events, oldest first.
func (t *RingTracer) Snapshot() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Concat(t.events[t.next:], t.events[:t.next])
}

// Dump writes the stored events to w as log records.
func (t *RingTracer) Dump(w io.Writer, format Format) error {
	l := newLogger(w, format)
	for _, ev := range t.Snapshot() {
		logEvent(l, &ev)
	}
	return nil
}

func (t *RingTracer) Flush() error  { return nil }
func (t *RingTracer) Close() error  { return nil }
func (t *RingTracer) Level() Level  { return t.level }
func (t *RingTracer) Enabled() bool { return t.level > LevelOff }

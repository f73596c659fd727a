package events

import (
	"sync"
	"time"
)

// InMemoryLog is a bounded in-memory event log. When the cap is
// reached the oldest events are dropped.
type InMemoryLog struct {
	mu     sync.RWMutex
	events []Event
	next   int
	cap    int
	now    func() time.Time
}

var _ Recorder = (*InMemoryLog)(nil)

const defaultCap = 1000

// NewInMemoryLog creates a log holding at most cap events. A cap of
// zero or less selects the default of 1000.
func NewInMemoryLog(cap int) *InMemoryLog {
	if cap <= 0 {
		cap = defaultCap
	}
	return &InMemoryLog{cap: cap, now: time.Now}
}

func (l *InMemoryLog) Record(eventType, streamID, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.next++
	l.events = append(l.events, Event{
		Type:     eventType,
		StreamID: streamID,
		Message:  message,
		Time:     l.now(),
		Version:  l.next,
	})
	if len(l.events) > l.cap {
		l.events = l.events[len(l.events)-l.cap:]
	}
}

// All returns the retained events, oldest first.
func (l *InMemoryLog) All() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// ByStream returns the retained events for one stream, oldest first.
func (l *InMemoryLog) ByStream(streamID string) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Event
	for _, e := range l.events {
		if e.StreamID == streamID {
			out = append(out, e)
		}
	}
	return out
}

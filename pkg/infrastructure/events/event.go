// Package events keeps an in-process log of scheduling activity, so
// operators can see what the last rescans did without trawling logs.
package events

import (
	"time"
)

const (
	TypeRescanCompleted = "rescan.completed"
	TypeOrderAssigned   = "order.assigned"
	TypeOrderUnmet      = "order.unmet"
)

// Event is one recorded scheduling occurrence.
type Event struct {
	Type     string    `json:"type"`
	StreamID string    `json:"stream_id"`
	Message  string    `json:"message"`
	Time     time.Time `json:"time"`
	Version  int       `json:"version"`
}

// Recorder accepts scheduling events. Implementations must be safe
// for concurrent use.
type Recorder interface {
	Record(eventType, streamID, message string)
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) Record(string, string, string) {}

package websocket

import "healthvault/internal/operations"

// ProgressSink adapts the hub to the ingest pipeline's progress
// interface.
type ProgressSink struct {
	hub *Hub
}

// NewProgressSink wraps a hub as a progress sink.
func NewProgressSink(hub *Hub) *ProgressSink {
	return &ProgressSink{hub: hub}
}

// Publish broadcasts a progress event to all connected clients.
func (s *ProgressSink) Publish(event operations.ProgressEvent) {
	s.hub.Broadcast("progress", event)
}

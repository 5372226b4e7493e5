package storage

import "time"

// EventWriter is the interface for recording dispatch outcomes.
// Write() must NEVER block the caller.
type EventWriter interface {
	Write(event *ToolCallEvent)
	Close()
}

// ToolCallEvent is one dispatched tool call, success or rejection.
type ToolCallEvent struct {
	RequestID     string
	ClientID      string
	Timestamp     time.Time
	ToolName      string
	ArgumentsJSON string
	Outcome       string // "ok" or "error"
	ErrorKind     string // empty on success
	Message       string
	LatencyMs     float32
}

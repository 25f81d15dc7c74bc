// Package audit records every policy-relevant decision to an append-only
// trail. Records are immutable once written; consumers may only tail the
// most recent entries.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// EventType classifies an audit record.
type EventType string

const (
	EventRoutingDecision EventType = "routing_decision"
	EventToolExecution   EventType = "tool_execution"
	EventActionAgent     EventType = "action_agent"
)

// Record is one append-only audit entry.
type Record struct {
	EventID   string         `json:"event_id"`
	Timestamp time.Time      `json:"ts"`
	Type      EventType      `json:"event_type"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// NewRecord stamps a record with a fresh event id and the current time.
func NewRecord(t EventType, payload map[string]any) Record {
	return Record{
		EventID:   uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Type:      t,
		Payload:   payload,
	}
}

// Sink is the append-only audit trail. Append must be atomic per record
// under concurrent use; TailLatest returns the n most recent records,
// oldest first.
type Sink interface {
	Append(rec Record) error
	TailLatest(n int) ([]Record, error)
	Close() error
}

package events

import (
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"
)

// EventTypeCallCompleted identifies the per-call diagnostics event
const EventTypeCallCompleted = "analysis.call.completed"

// CallCompleted describes one finished analysis call. It is the only
// channel through which silently dropped ordinals become visible.
type CallCompleted struct {
	EventID    string    `json:"eventId"`
	Type       string    `json:"type"`
	CallID     string    `json:"callId"`
	Provider   string    `json:"provider"`
	Capability string    `json:"capability"`
	Units      int       `json:"units"`
	Records    int       `json:"records"`
	Dropped    []int     `json:"dropped"`
	Retried    bool      `json:"retried"`
	DurationMs int64     `json:"durationMs"`
	Error      string    `json:"error,omitempty"`
	ErrorKind  string    `json:"errorKind,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewCallCompleted creates an event with a fresh ID and timestamp
func NewCallCompleted(callID, provider, capability string) *CallCompleted {
	return &CallCompleted{
		EventID:    uuid.NewString(),
		Type:       EventTypeCallCompleted,
		CallID:     callID,
		Provider:   provider,
		Capability: capability,
		Dropped:    []int{},
		OccurredAt: time.Now().UTC(),
	}
}

// toStruct converts the event to a protobuf Struct for binary encoding.
func (e *CallCompleted) toStruct() (*structpb.Struct, error) {
	dropped := make([]interface{}, len(e.Dropped))
	for i, d := range e.Dropped {
		dropped[i] = d
	}

	fields := map[string]interface{}{
		"eventId":    e.EventID,
		"type":       e.Type,
		"callId":     e.CallID,
		"provider":   e.Provider,
		"capability": e.Capability,
		"units":      e.Units,
		"records":    e.Records,
		"dropped":    dropped,
		"retried":    e.Retried,
		"durationMs": e.DurationMs,
		"occurredAt": e.OccurredAt.Format(time.RFC3339Nano),
	}
	if e.Error != "" {
		fields["error"] = e.Error
		fields["errorKind"] = e.ErrorKind
	}
	return structpb.NewStruct(fields)
}

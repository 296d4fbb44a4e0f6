package events

import (
	"encoding/json"
	"time"

	"github.com/brandpulse/backend/pkg/enums"
	"github.com/google/uuid"
)

// Version is the current envelope schema version.
const Version = 1

// Operations a run request may name.
const (
	OperationDashboard = "dashboard"
	OperationInsights  = "insights"
)

// Envelope is the stable payload structure carried on attribution topics.
type Envelope struct {
	Version    int                `json:"version"`
	EventID    string             `json:"eventId"`
	EventType  enums.RunEventType `json:"eventType"`
	OccurredAt time.Time          `json:"occurredAt"`
	Data       json.RawMessage    `json:"data"`
}

// RunRequestedPayload asks a worker to execute an attribution run.
type RunRequestedPayload struct {
	Operation   string    `json:"operation"`
	WindowFrom  time.Time `json:"windowFrom"`
	WindowTo    time.Time `json:"windowTo"`
	RequestedBy uuid.UUID `json:"requestedBy"`
}

package enums

import "fmt"

// RunEventType is the canonical event_type for attribution run events.
type RunEventType string

const (
	RunEventCompleted RunEventType = "attribution_run_completed"
	RunEventFailed    RunEventType = "attribution_run_failed"
	RunEventRequested RunEventType = "attribution_run_requested"
)

var validRunEventTypes = []RunEventType{
	RunEventCompleted,
	RunEventFailed,
	RunEventRequested,
}

// IsValid reports whether the value matches the canonical run event enum.
func (r RunEventType) IsValid() bool {
	for _, candidate := range validRunEventTypes {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRunEventType converts the raw string to RunEventType.
func ParseRunEventType(value string) (RunEventType, error) {
	for _, candidate := range validRunEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid run event type %q", value)
}

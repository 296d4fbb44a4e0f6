package enums

import "fmt"

// InsightType groups a recommendation by the surface it concerns.
type InsightType string

const (
	InsightTypeCampaign InsightType = "campaign"
	InsightTypeContent  InsightType = "content"
	InsightTypeGeneral  InsightType = "general"
)

var validInsightTypes = []InsightType{
	InsightTypeCampaign,
	InsightTypeContent,
	InsightTypeGeneral,
}

// IsValid reports whether the value matches the canonical insight type enum.
func (i InsightType) IsValid() bool {
	for _, candidate := range validInsightTypes {
		if candidate == i {
			return true
		}
	}
	return false
}

// InsightPriority ranks how urgently a recommendation should be acted on.
type InsightPriority string

const (
	InsightPriorityHigh   InsightPriority = "high"
	InsightPriorityMedium InsightPriority = "medium"
	InsightPriorityLow    InsightPriority = "low"
)

var validInsightPriorities = []InsightPriority{
	InsightPriorityHigh,
	InsightPriorityMedium,
	InsightPriorityLow,
}

// IsValid reports whether the value matches the canonical priority enum.
func (i InsightPriority) IsValid() bool {
	for _, candidate := range validInsightPriorities {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseInsightPriority converts the raw string to InsightPriority.
func ParseInsightPriority(value string) (InsightPriority, error) {
	for _, candidate := range validInsightPriorities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid insight priority %q", value)
}

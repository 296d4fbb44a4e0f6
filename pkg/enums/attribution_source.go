package enums

import "fmt"

// AttributionSource identifies the marketing touchpoint credited for an order.
type AttributionSource string

const (
	AttributionSourceCampaign AttributionSource = "campaign"
	AttributionSourceContent  AttributionSource = "content"
	AttributionSourceBundle   AttributionSource = "bundle"
	AttributionSourceOrganic  AttributionSource = "organic"
	AttributionSourceDirect   AttributionSource = "direct"
)

var validAttributionSources = []AttributionSource{
	AttributionSourceCampaign,
	AttributionSourceContent,
	AttributionSourceBundle,
	AttributionSourceOrganic,
	AttributionSourceDirect,
}

// AllAttributionSources returns every source in priority order.
func AllAttributionSources() []AttributionSource {
	out := make([]AttributionSource, len(validAttributionSources))
	copy(out, validAttributionSources)
	return out
}

// IsValid reports whether the value matches the canonical source enum.
func (a AttributionSource) IsValid() bool {
	for _, candidate := range validAttributionSources {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAttributionSource converts the raw string to AttributionSource.
func ParseAttributionSource(value string) (AttributionSource, error) {
	for _, candidate := range validAttributionSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid attribution source %q", value)
}

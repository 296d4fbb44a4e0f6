package enums

import "fmt"

// Capability is a named permission a member can hold.
type Capability string

const (
	CapabilityCampaignsView   Capability = "campaigns:view"
	CapabilityCampaignsManage Capability = "campaigns:manage"
	CapabilityContentView     Capability = "content:view"
	CapabilityContentManage   Capability = "content:manage"
	CapabilityBundlesManage   Capability = "bundles:manage"
)

var validCapabilities = []Capability{
	CapabilityCampaignsView,
	CapabilityCampaignsManage,
	CapabilityContentView,
	CapabilityContentManage,
	CapabilityBundlesManage,
}

// IsValid reports whether the value matches the canonical capability enum.
func (c Capability) IsValid() bool {
	for _, candidate := range validCapabilities {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCapability converts the raw string to Capability.
func ParseCapability(value string) (Capability, error) {
	for _, candidate := range validCapabilities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid capability %q", value)
}

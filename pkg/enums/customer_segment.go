package enums

import "fmt"

// CustomerSegment classifies a buyer from their historical order aggregate.
// Segments are recomputed on every analytics run, never stored.
type CustomerSegment string

const (
	CustomerSegmentNew        CustomerSegment = "new_customer"
	CustomerSegmentOccasional CustomerSegment = "occasional"
	CustomerSegmentRegular    CustomerSegment = "regular"
	CustomerSegmentPremium    CustomerSegment = "premium"
	CustomerSegmentHighValue  CustomerSegment = "high_value"
)

var validCustomerSegments = []CustomerSegment{
	CustomerSegmentNew,
	CustomerSegmentOccasional,
	CustomerSegmentRegular,
	CustomerSegmentPremium,
	CustomerSegmentHighValue,
}

// IsValid reports whether the value matches the canonical segment enum.
func (c CustomerSegment) IsValid() bool {
	for _, candidate := range validCustomerSegments {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCustomerSegment converts the raw string to CustomerSegment.
func ParseCustomerSegment(value string) (CustomerSegment, error) {
	for _, candidate := range validCustomerSegments {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid customer segment %q", value)
}

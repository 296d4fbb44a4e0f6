package attribution

import (
	"github.com/shopspring/decimal"

	"github.com/brandpulse/backend/pkg/enums"
)

// classifySegment derives a CustomerSegment from a customer's prior
// orders. Segments are recomputed each run, never stored.
//
// Thresholds, in evaluation order:
//   - no prior orders              -> new_customer
//   - total history > HighValueTotal -> high_value
//   - average order > PremiumAvg     -> premium
//   - order count > RegularOrderCount -> regular
//   - otherwise                      -> occasional
func classifySegment(history []Order, cfg Config) enums.CustomerSegment {
	if len(history) == 0 {
		return enums.CustomerSegmentNew
	}

	total := decimal.Zero
	for _, order := range history {
		total = total.Add(order.Total)
	}
	average := total.Div(decimal.NewFromInt(int64(len(history))))

	switch {
	case total.GreaterThan(cfg.HighValueTotal):
		return enums.CustomerSegmentHighValue
	case average.GreaterThan(cfg.PremiumAvg):
		return enums.CustomerSegmentPremium
	case len(history) > cfg.RegularOrderCount:
		return enums.CustomerSegmentRegular
	default:
		return enums.CustomerSegmentOccasional
	}
}

package attribution

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brandpulse/backend/pkg/enums"
)

const topProductCap = 3

// Aggregate reduces a record sequence into per-touchpoint summaries and
// the five-way distribution. Pure function: identical input yields
// identical output, and the input is never mutated.
//
// Campaign and content records are summarized per source entity;
// bundle, organic, and direct feed only the distribution.
func Aggregate(records []AttributionRecord) Aggregation {
	agg := Aggregation{
		TotalRecords: len(records),
		TotalRevenue: decimal.Zero,
	}
	if len(records) == 0 {
		return agg
	}

	sourceCounts := map[enums.AttributionSource]int{}
	campaignGroups := map[uuid.UUID][]AttributionRecord{}
	campaignOrder := []uuid.UUID{}
	contentGroups := map[uuid.UUID][]AttributionRecord{}
	contentOrder := []uuid.UUID{}

	for _, record := range records {
		sourceCounts[record.Source]++
		agg.TotalRevenue = agg.TotalRevenue.Add(record.OrderValue)

		if record.SourceID == nil {
			continue
		}
		id := *record.SourceID
		switch record.Source {
		case enums.AttributionSourceCampaign:
			if _, seen := campaignGroups[id]; !seen {
				campaignOrder = append(campaignOrder, id)
			}
			campaignGroups[id] = append(campaignGroups[id], record)
		case enums.AttributionSourceContent:
			if _, seen := contentGroups[id]; !seen {
				contentOrder = append(contentOrder, id)
			}
			contentGroups[id] = append(contentGroups[id], record)
		}
	}

	totalContent := sourceCounts[enums.AttributionSourceContent]

	for _, id := range campaignOrder {
		group := campaignGroups[id]
		base := summarizeGroup(group)
		agg.CampaignSummaries = append(agg.CampaignSummaries, CampaignSummary{
			CampaignID:             id,
			CampaignName:           sourceNameOf(group),
			TotalAttributedOrders:  base.count,
			TotalAttributedRevenue: base.revenue,
			AverageOrderValue:      base.averageOrderValue,
			ConversionTime:         base.conversionTime,
			SegmentBreakdown:       base.segments,
			TopProducts:            base.topProducts,
		})
	}

	for _, id := range contentOrder {
		group := contentGroups[id]
		base := summarizeGroup(group)
		impact := 0.0
		if totalContent > 0 {
			impact = float64(base.count) / float64(totalContent) * 100
		}
		agg.ContentSummaries = append(agg.ContentSummaries, ContentSummary{
			ContentID:              id,
			ContentTitle:           sourceNameOf(group),
			TotalAttributedOrders:  base.count,
			TotalAttributedRevenue: base.revenue,
			AverageOrderValue:      base.averageOrderValue,
			ConversionTime:         base.conversionTime,
			SegmentBreakdown:       base.segments,
			ConversionImpact:       impact,
			TopProducts:            base.topProducts,
		})
	}

	agg.Distribution = distributionOf(sourceCounts, len(records))
	return agg
}

type groupSummary struct {
	count             int
	revenue           decimal.Decimal
	averageOrderValue decimal.Decimal
	conversionTime    ConversionTimeStats
	segments          map[enums.CustomerSegment]SegmentStat
	topProducts       []string
}

func summarizeGroup(group []AttributionRecord) groupSummary {
	out := groupSummary{
		count:   len(group),
		revenue: decimal.Zero,
	}

	segmentCounts := map[enums.CustomerSegment]int{}
	productCounts := map[string]int{}
	productOrder := []string{}
	timings := []float64{}

	for _, record := range group {
		out.revenue = out.revenue.Add(record.OrderValue)
		segmentCounts[record.CustomerSegment]++
		// Zero means immediate/unknown and would skew timing stats.
		if record.TimeToConversionMinutes > 0 {
			timings = append(timings, record.TimeToConversionMinutes)
		}
		for _, product := range record.Products {
			if _, seen := productCounts[product]; !seen {
				productOrder = append(productOrder, product)
			}
			productCounts[product]++
		}
	}

	if out.count > 0 {
		out.averageOrderValue = out.revenue.Div(decimal.NewFromInt(int64(out.count))).Round(2)
	} else {
		out.averageOrderValue = decimal.Zero
	}
	out.conversionTime = conversionStats(timings)
	out.segments = segmentBreakdown(segmentCounts, out.count)
	out.topProducts = topProducts(productCounts, productOrder)
	return out
}

// conversionStats computes mean/median/min/max over positive timings.
// Median sorts first: middle element for odd counts, midpoint average
// for even.
func conversionStats(timings []float64) ConversionTimeStats {
	if len(timings) == 0 {
		return ConversionTimeStats{}
	}

	sorted := make([]float64, len(timings))
	copy(sorted, timings)
	sort.Float64s(sorted)

	sum := 0.0
	for _, t := range sorted {
		sum += t
	}

	mid := len(sorted) / 2
	median := sorted[mid]
	if len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	}

	return ConversionTimeStats{
		Mean:   sum / float64(len(sorted)),
		Median: median,
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
	}
}

func segmentBreakdown(counts map[enums.CustomerSegment]int, total int) map[enums.CustomerSegment]SegmentStat {
	out := make(map[enums.CustomerSegment]SegmentStat, len(counts))
	for segment, count := range counts {
		pct := 0.0
		if total > 0 {
			pct = float64(count) / float64(total) * 100
		}
		out[segment] = SegmentStat{Count: count, Percentage: pct}
	}
	return out
}

// topProducts ranks by frequency, ties broken by first appearance.
func topProducts(counts map[string]int, order []string) []string {
	if len(order) == 0 {
		return nil
	}
	ranked := make([]string, len(order))
	copy(ranked, order)
	sort.SliceStable(ranked, func(i, j int) bool {
		return counts[ranked[i]] > counts[ranked[j]]
	})
	if len(ranked) > topProductCap {
		ranked = ranked[:topProductCap]
	}
	return ranked
}

func distributionOf(counts map[enums.AttributionSource]int, total int) Distribution {
	if total == 0 {
		return Distribution{}
	}
	pct := func(source enums.AttributionSource) float64 {
		return float64(counts[source]) / float64(total) * 100
	}
	return Distribution{
		CampaignDriven: pct(enums.AttributionSourceCampaign),
		ContentDriven:  pct(enums.AttributionSourceContent),
		BundleDriven:   pct(enums.AttributionSourceBundle),
		Organic:        pct(enums.AttributionSourceOrganic),
		Direct:         pct(enums.AttributionSourceDirect),
	}
}

func sourceNameOf(group []AttributionRecord) string {
	for _, record := range group {
		if record.SourceName != nil && *record.SourceName != "" {
			return *record.SourceName
		}
	}
	return ""
}

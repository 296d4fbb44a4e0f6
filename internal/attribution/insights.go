package attribution

import (
	"fmt"
	"sort"

	"github.com/brandpulse/backend/pkg/enums"
)

const topPerformerCap = 5

// GenerateInsights applies the threshold rules over an aggregation.
// Pure and deterministic; an empty batch yields no recommendations.
// Rules are evaluated independently, so several may fire at once.
func GenerateInsights(agg Aggregation, cfg Config) []Insight {
	if agg.TotalRecords == 0 {
		return nil
	}

	insights := []Insight{}

	if agg.Distribution.CampaignDriven < cfg.CampaignShareFloorPct {
		insights = append(insights, Insight{
			Type:     enums.InsightTypeCampaign,
			Priority: enums.InsightPriorityHigh,
			Message:  fmt.Sprintf("Campaigns drive only %.1f%% of attributed orders", agg.Distribution.CampaignDriven),
			Action:   "Review campaign targeting and budget allocation",
		})
	}

	if top := highestRevenueCampaign(agg.CampaignSummaries); top != nil {
		if top.TotalAttributedRevenue.GreaterThan(cfg.HighRevenueCampaign) {
			insights = append(insights, Insight{
				Type:     enums.InsightTypeCampaign,
				Priority: enums.InsightPriorityMedium,
				Message:  fmt.Sprintf("Campaign %q generated %s in attributed revenue", top.CampaignName, top.TotalAttributedRevenue.StringFixed(2)),
				Action:   fmt.Sprintf("Replicate the approach of %q in upcoming campaigns", top.CampaignName),
			})
		}
	}

	if agg.Distribution.ContentDriven < cfg.ContentShareFloorPct {
		insights = append(insights, Insight{
			Type:     enums.InsightTypeContent,
			Priority: enums.InsightPriorityMedium,
			Message:  fmt.Sprintf("Content drives only %.1f%% of attributed orders", agg.Distribution.ContentDriven),
			Action:   "Invest in content that supports purchase decisions",
		})
	}

	if top := highestImpactContent(agg.ContentSummaries); top != nil {
		if top.ConversionImpact > cfg.ContentImpactFloorPct {
			insights = append(insights, Insight{
				Type:     enums.InsightTypeContent,
				Priority: enums.InsightPriorityLow,
				Message:  fmt.Sprintf("Content %q influences %.1f%% of content-attributed orders", top.ContentTitle, top.ConversionImpact),
				Action:   fmt.Sprintf("Produce more content similar to %q", top.ContentTitle),
			})
		}
	}

	if agg.Distribution.Direct > cfg.DirectShareCeilingPct {
		insights = append(insights, Insight{
			Type:     enums.InsightTypeGeneral,
			Priority: enums.InsightPriorityHigh,
			Message:  fmt.Sprintf("%.1f%% of orders have no marketing touchpoint", agg.Distribution.Direct),
			Action:   "Audit attribution tracking coverage and broaden marketing touch",
		})
	}

	return insights
}

// TopPerformingCampaigns ranks by attributed revenue, descending, capped
// at five. Stable: ties keep their aggregation order.
func TopPerformingCampaigns(summaries []CampaignSummary) []CampaignSummary {
	ranked := make([]CampaignSummary, len(summaries))
	copy(ranked, summaries)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalAttributedRevenue.GreaterThan(ranked[j].TotalAttributedRevenue)
	})
	if len(ranked) > topPerformerCap {
		ranked = ranked[:topPerformerCap]
	}
	return ranked
}

// TopInfluentialContent ranks by conversion impact, descending, capped
// at five. Stable: ties keep their aggregation order.
func TopInfluentialContent(summaries []ContentSummary) []ContentSummary {
	ranked := make([]ContentSummary, len(summaries))
	copy(ranked, summaries)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ConversionImpact > ranked[j].ConversionImpact
	})
	if len(ranked) > topPerformerCap {
		ranked = ranked[:topPerformerCap]
	}
	return ranked
}

func highestRevenueCampaign(summaries []CampaignSummary) *CampaignSummary {
	var top *CampaignSummary
	for i := range summaries {
		if top == nil || summaries[i].TotalAttributedRevenue.GreaterThan(top.TotalAttributedRevenue) {
			top = &summaries[i]
		}
	}
	return top
}

func highestImpactContent(summaries []ContentSummary) *ContentSummary {
	var top *ContentSummary
	for i := range summaries {
		if top == nil || summaries[i].ConversionImpact > top.ConversionImpact {
			top = &summaries[i]
		}
	}
	return top
}

package attribution

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brandpulse/backend/pkg/config"
	"github.com/brandpulse/backend/pkg/enums"
)

// TimeRange is the closed historical window a run operates over.
type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Order is the read-only order fact the engine attributes. Totals are
// decimal currency units, not cents.
type Order struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	Total      decimal.Decimal
	CreatedAt  time.Time
	Items      []LineItem
}

// LineItem is one purchased product on an order.
type LineItem struct {
	ProductID   uuid.UUID
	ProductName string
	Qty         int
	LineTotal   decimal.Decimal
}

// Interaction is one campaign touch for a customer, most-recent-first
// when returned in a list.
type Interaction struct {
	CampaignID   uuid.UUID
	CampaignName string
	Type         string
	OccurredAt   time.Time
}

// Engagement is one content touch for a customer.
type Engagement struct {
	ContentID    uuid.UUID
	ContentTitle string
	Type         string
	OccurredAt   time.Time
}

// BundleRef identifies the bundle a product belongs to.
type BundleRef struct {
	ID   uuid.UUID
	Name string
}

// AttributionRecord is the per-order outcome of a run. Immutable once
// produced; consumed only by aggregation, never persisted.
type AttributionRecord struct {
	OrderID                 uuid.UUID               `json:"order_id"`
	OrderValue              decimal.Decimal         `json:"order_value"`
	CustomerID              uuid.UUID               `json:"customer_id"`
	CustomerSegment         enums.CustomerSegment   `json:"customer_segment"`
	Source                  enums.AttributionSource `json:"attribution_source"`
	SourceID                *uuid.UUID              `json:"source_id,omitempty"`
	SourceName              *string                 `json:"source_name,omitempty"`
	ConversionPath          []string                `json:"conversion_path"`
	TimeToConversionMinutes float64                 `json:"time_to_conversion_minutes"`
	Products                []string                `json:"-"`
	CreatedAt               time.Time               `json:"created_at"`
}

// SegmentStat is one slice of a summary's customer-segment breakdown.
type SegmentStat struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// ConversionTimeStats covers only records with a positive
// time-to-conversion; zero means immediate or unknown and is excluded.
type ConversionTimeStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// CampaignSummary aggregates the records attributed to one campaign.
type CampaignSummary struct {
	CampaignID             uuid.UUID                             `json:"campaign_id"`
	CampaignName           string                                `json:"campaign_name"`
	TotalAttributedOrders  int                                   `json:"total_attributed_orders"`
	TotalAttributedRevenue decimal.Decimal                       `json:"total_attributed_revenue"`
	AverageOrderValue      decimal.Decimal                       `json:"average_order_value"`
	ConversionTime         ConversionTimeStats                   `json:"conversion_time_minutes"`
	SegmentBreakdown       map[enums.CustomerSegment]SegmentStat `json:"segment_breakdown"`
	TopProducts            []string                              `json:"top_products"`
}

// ContentSummary aggregates the records attributed to one content piece.
type ContentSummary struct {
	ContentID              uuid.UUID                             `json:"content_id"`
	ContentTitle           string                                `json:"content_title"`
	TotalAttributedOrders  int                                   `json:"total_attributed_orders"`
	TotalAttributedRevenue decimal.Decimal                       `json:"total_attributed_revenue"`
	AverageOrderValue      decimal.Decimal                       `json:"average_order_value"`
	ConversionTime         ConversionTimeStats                   `json:"conversion_time_minutes"`
	SegmentBreakdown       map[enums.CustomerSegment]SegmentStat `json:"segment_breakdown"`
	ConversionImpact       float64                               `json:"conversion_impact"`
	TopProducts            []string                              `json:"top_products"`
}

// Distribution is the five-way percentage split of a batch. Values sum
// to ~100 for a non-empty batch and are all zero for an empty one.
type Distribution struct {
	CampaignDriven float64 `json:"campaign_driven"`
	ContentDriven  float64 `json:"content_driven"`
	BundleDriven   float64 `json:"bundle_driven"`
	Organic        float64 `json:"organic"`
	Direct         float64 `json:"direct"`
}

// Insight is one ranked, actionable recommendation.
type Insight struct {
	Type     enums.InsightType     `json:"type"`
	Priority enums.InsightPriority `json:"priority"`
	Message  string                `json:"message"`
	Action   string                `json:"action"`
}

// BatchResult carries the records plus the fault-isolation counts.
// Processed + Skipped always equals the number of input orders.
type BatchResult struct {
	Records   []AttributionRecord
	Processed int
	Skipped   int
}

// Aggregation is the reduced view of one batch.
type Aggregation struct {
	CampaignSummaries []CampaignSummary
	ContentSummaries  []ContentSummary
	Distribution      Distribution
	TotalRevenue      decimal.Decimal
	TotalRecords      int
}

// DashboardAnalytics is the overview payload for the dashboard endpoint.
type DashboardAnalytics struct {
	TimeRange         TimeRange         `json:"time_range"`
	TotalOrders       int               `json:"total_orders"`
	Processed         int               `json:"processed"`
	Skipped           int               `json:"skipped"`
	TotalRevenue      decimal.Decimal   `json:"total_revenue"`
	CampaignSummaries []CampaignSummary `json:"campaign_summaries"`
	ContentSummaries  []ContentSummary  `json:"content_summaries"`
	Distribution      Distribution      `json:"distribution"`
	GeneratedAt       time.Time         `json:"generated_at"`
}

// AttributionInsights is the recommendation payload.
type AttributionInsights struct {
	TimeRange              TimeRange         `json:"time_range"`
	Processed              int               `json:"processed"`
	Skipped                int               `json:"skipped"`
	CampaignSummaries      []CampaignSummary `json:"campaign_summaries"`
	ContentSummaries       []ContentSummary  `json:"content_summaries"`
	Distribution           Distribution      `json:"distribution"`
	Recommendations        []Insight         `json:"recommendations"`
	TopPerformingCampaigns []CampaignSummary `json:"top_performing_campaigns"`
	TopInfluentialContent  []ContentSummary  `json:"top_influential_content"`
	GeneratedAt            time.Time         `json:"generated_at"`
}

// RunReport is handed to the observability sink when a run completes.
type RunReport struct {
	Operation    string       `json:"operation"`
	Window       TimeRange    `json:"window"`
	TotalOrders  int          `json:"total_orders"`
	Processed    int          `json:"processed"`
	Skipped      int          `json:"skipped"`
	Distribution Distribution `json:"distribution"`
	Duration     time.Duration `json:"duration"`
}

// Config names the engine's tunable thresholds. Money thresholds are
// decimal currency units.
type Config struct {
	HighValueTotal    decimal.Decimal
	PremiumAvg        decimal.Decimal
	RegularOrderCount int

	InteractionLimit int
	EngagementLimit  int

	CampaignShareFloorPct float64
	ContentShareFloorPct  float64
	DirectShareCeilingPct float64
	HighRevenueCampaign   decimal.Decimal
	ContentImpactFloorPct float64

	Workers int
}

// DefaultConfig mirrors the shipped threshold defaults.
func DefaultConfig() Config {
	return Config{
		HighValueTotal:        decimal.NewFromInt(200),
		PremiumAvg:            decimal.NewFromInt(50),
		RegularOrderCount:     3,
		InteractionLimit:      10,
		EngagementLimit:       10,
		CampaignShareFloorPct: 30,
		ContentShareFloorPct:  20,
		DirectShareCeilingPct: 60,
		HighRevenueCampaign:   decimal.NewFromInt(1000),
		ContentImpactFloorPct: 15,
		Workers:               8,
	}
}

// ConfigFromApp converts the env-level attribution settings (cents) into
// engine thresholds (decimal currency units).
func ConfigFromApp(cfg config.AttributionConfig) Config {
	out := Config{
		HighValueTotal:        decimal.New(cfg.HighValueTotalCents, -2),
		PremiumAvg:            decimal.New(cfg.PremiumAvgCents, -2),
		RegularOrderCount:     cfg.RegularOrderCount,
		InteractionLimit:      cfg.InteractionLimit,
		EngagementLimit:       cfg.EngagementLimit,
		CampaignShareFloorPct: cfg.CampaignShareFloorPct,
		ContentShareFloorPct:  cfg.ContentShareFloorPct,
		DirectShareCeilingPct: cfg.DirectShareCeilingPct,
		HighRevenueCampaign:   decimal.New(cfg.HighRevenueCampaignCents, -2),
		ContentImpactFloorPct: cfg.ContentImpactFloorPct,
		Workers:               cfg.Workers,
	}
	if out.Workers <= 0 {
		out.Workers = 1
	}
	return out
}

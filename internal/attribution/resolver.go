package attribution

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/brandpulse/backend/pkg/enums"
)

// ResolutionError marks a single order whose attribution lookups failed.
// The batch processor recovers these locally; they never abort a run.
type ResolutionError struct {
	OrderID uuid.UUID
	Cause   error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolving order %s: %v", e.OrderID, e.Cause)
}

func (e *ResolutionError) Unwrap() error {
	return e.Cause
}

// touchpointMatch is the fragment a strategy contributes when it claims
// an order.
type touchpointMatch struct {
	source     enums.AttributionSource
	sourceID   uuid.UUID
	sourceName string
	path       []string
	minutes    float64
}

// touchpointStrategy is one link in the priority chain. Returning
// (nil, nil) means "no claim, try the next one".
type touchpointStrategy struct {
	name    string
	resolve func(ctx context.Context, order Order) (*touchpointMatch, error)
}

// Resolver turns one order into exactly one AttributionRecord by walking
// an ordered strategy list: campaign, then content, then bundle, with
// direct as the unconditional fallback. First match wins.
type Resolver struct {
	interactions CampaignInteractionReader
	engagements  ContentEngagementReader
	bundles      BundleMembershipReader
	history      CustomerHistoryReader
	cfg          Config
	strategies   []touchpointStrategy
	now          func() time.Time
}

// NewResolver builds a resolver over the touchpoint readers.
func NewResolver(
	interactions CampaignInteractionReader,
	engagements ContentEngagementReader,
	bundles BundleMembershipReader,
	history CustomerHistoryReader,
	cfg Config,
) (*Resolver, error) {
	if interactions == nil {
		return nil, fmt.Errorf("campaign interaction reader required")
	}
	if engagements == nil {
		return nil, fmt.Errorf("content engagement reader required")
	}
	if bundles == nil {
		return nil, fmt.Errorf("bundle membership reader required")
	}
	if history == nil {
		return nil, fmt.Errorf("customer history reader required")
	}

	r := &Resolver{
		interactions: interactions,
		engagements:  engagements,
		bundles:      bundles,
		history:      history,
		cfg:          cfg,
		now:          time.Now,
	}
	// Priority order is load-bearing: campaign beats content beats bundle.
	r.strategies = []touchpointStrategy{
		{name: "campaign", resolve: r.resolveCampaign},
		{name: "content", resolve: r.resolveContent},
		{name: "bundle", resolve: r.resolveBundle},
	}
	return r, nil
}

// Resolve produces the AttributionRecord for one order. Any lookup
// failure comes back as a *ResolutionError.
func (r *Resolver) Resolve(ctx context.Context, order Order) (AttributionRecord, error) {
	// Segmentation always runs, whatever the touchpoint outcome.
	prior, err := r.history.OrdersExcluding(ctx, order.CustomerID, order.ID)
	if err != nil {
		return AttributionRecord{}, &ResolutionError{OrderID: order.ID, Cause: fmt.Errorf("customer history: %w", err)}
	}
	segment := classifySegment(prior, r.cfg)

	record := AttributionRecord{
		OrderID:         order.ID,
		OrderValue:      order.Total,
		CustomerID:      order.CustomerID,
		CustomerSegment: segment,
		Products:        productNames(order),
		CreatedAt:       r.now().UTC(),
	}

	for _, strategy := range r.strategies {
		match, err := strategy.resolve(ctx, order)
		if err != nil {
			return AttributionRecord{}, &ResolutionError{OrderID: order.ID, Cause: fmt.Errorf("%s lookup: %w", strategy.name, err)}
		}
		if match == nil {
			continue
		}
		sourceID := match.sourceID
		sourceName := match.sourceName
		record.Source = match.source
		record.SourceID = &sourceID
		record.SourceName = &sourceName
		record.ConversionPath = match.path
		record.TimeToConversionMinutes = match.minutes
		return record, nil
	}

	// Fallback: nothing claimed the order.
	record.Source = enums.AttributionSourceDirect
	record.ConversionPath = []string{"direct"}
	record.TimeToConversionMinutes = 0
	return record, nil
}

func (r *Resolver) resolveCampaign(ctx context.Context, order Order) (*touchpointMatch, error) {
	interactions, err := r.interactions.RecentInteractions(ctx, order.CustomerID, r.cfg.InteractionLimit)
	if err != nil {
		return nil, err
	}
	if len(interactions) == 0 {
		return nil, nil
	}
	latest := interactions[0]
	return &touchpointMatch{
		source:     enums.AttributionSourceCampaign,
		sourceID:   latest.CampaignID,
		sourceName: latest.CampaignName,
		path:       []string{latest.Type, "order"},
		minutes:    minutesBetween(latest.OccurredAt, order.CreatedAt),
	}, nil
}

func (r *Resolver) resolveContent(ctx context.Context, order Order) (*touchpointMatch, error) {
	engagements, err := r.engagements.RecentEngagements(ctx, order.CustomerID, r.cfg.EngagementLimit)
	if err != nil {
		return nil, err
	}
	if len(engagements) == 0 {
		return nil, nil
	}
	latest := engagements[0]
	return &touchpointMatch{
		source:     enums.AttributionSourceContent,
		sourceID:   latest.ContentID,
		sourceName: latest.ContentTitle,
		path:       []string{"content_view", "order"},
		minutes:    minutesBetween(latest.OccurredAt, order.CreatedAt),
	}, nil
}

func (r *Resolver) resolveBundle(ctx context.Context, order Order) (*touchpointMatch, error) {
	for _, item := range order.Items {
		bundle, err := r.bundles.BundleForProduct(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if bundle == nil {
			continue
		}
		// Bundle purchases are treated as immediate conversions.
		return &touchpointMatch{
			source:     enums.AttributionSourceBundle,
			sourceID:   bundle.ID,
			sourceName: bundle.Name,
			path:       []string{"bundle_view", "order"},
			minutes:    0,
		}, nil
	}
	return nil, nil
}

// minutesBetween clamps negatives: a touch recorded after the order
// (clock skew, backfill) counts as immediate.
func minutesBetween(touch, order time.Time) float64 {
	minutes := order.Sub(touch).Minutes()
	if minutes < 0 {
		return 0
	}
	return minutes
}

func productNames(order Order) []string {
	if len(order.Items) == 0 {
		return nil
	}
	names := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		if item.ProductName != "" {
			names = append(names, item.ProductName)
		}
	}
	return names
}

package attribution

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/brandpulse/backend/pkg/enums"
	pkgerrors "github.com/brandpulse/backend/pkg/errors"
	"github.com/brandpulse/backend/pkg/logger"
	"github.com/brandpulse/backend/pkg/metrics"
)

const (
	opDashboard = "dashboard"
	opInsights  = "insights"
)

// resultCache is the slice of the redis client the service uses to cache
// computed payloads. A nil cache disables caching.
type resultCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	ResultKey(parts ...string) string
}

// Service exposes the two analytics entry points. Both gate on the
// campaigns:view capability before touching any repository.
type Service interface {
	RunDashboardAnalytics(ctx context.Context, window TimeRange, callerID uuid.UUID) (*DashboardAnalytics, error)
	RunAttributionInsights(ctx context.Context, window TimeRange, callerID uuid.UUID) (*AttributionInsights, error)
}

type service struct {
	orders    OrderReader
	perms     PermissionChecker
	processor *BatchProcessor
	sink      ObservabilitySink
	cache     resultCache
	runStats  *metrics.RunMetrics
	cfg       Config
	cacheTTL  time.Duration
	logg      *logger.Logger
	now       func() time.Time
}

// NewService wires the engine together. Sink, cache, metrics, and
// logger are optional; readers and the permission checker are not.
func NewService(
	orders OrderReader,
	perms PermissionChecker,
	processor *BatchProcessor,
	sink ObservabilitySink,
	cache resultCache,
	runStats *metrics.RunMetrics,
	cfg Config,
	cacheTTL time.Duration,
	logg *logger.Logger,
) (Service, error) {
	if orders == nil {
		return nil, fmt.Errorf("order reader required")
	}
	if perms == nil {
		return nil, fmt.Errorf("permission checker required")
	}
	if processor == nil {
		return nil, fmt.Errorf("batch processor required")
	}
	return &service{
		orders:    orders,
		perms:     perms,
		processor: processor,
		sink:      sink,
		cache:     cache,
		runStats:  runStats,
		cfg:       cfg,
		cacheTTL:  cacheTTL,
		logg:      logg,
		now:       time.Now,
	}, nil
}

func (s *service) RunDashboardAnalytics(ctx context.Context, window TimeRange, callerID uuid.UUID) (*DashboardAnalytics, error) {
	if err := s.authorize(ctx, callerID); err != nil {
		return nil, err
	}

	cacheKey := s.cacheKey(opDashboard, window)
	if cached, ok := cacheLookup[DashboardAnalytics](ctx, s, cacheKey, opDashboard); ok {
		return cached, nil
	}

	started := s.now()
	batch, agg, err := s.runBatch(ctx, window, opDashboard)
	if err != nil {
		return nil, err
	}

	out := &DashboardAnalytics{
		TimeRange:         window,
		TotalOrders:       batch.Processed + batch.Skipped,
		Processed:         batch.Processed,
		Skipped:           batch.Skipped,
		TotalRevenue:      agg.TotalRevenue,
		CampaignSummaries: agg.CampaignSummaries,
		ContentSummaries:  agg.ContentSummaries,
		Distribution:      agg.Distribution,
		GeneratedAt:       s.now().UTC(),
	}

	s.finishRun(ctx, opDashboard, window, batch, agg, s.now().Sub(started))
	s.cacheStore(ctx, cacheKey, out)
	return out, nil
}

func (s *service) RunAttributionInsights(ctx context.Context, window TimeRange, callerID uuid.UUID) (*AttributionInsights, error) {
	if err := s.authorize(ctx, callerID); err != nil {
		return nil, err
	}

	cacheKey := s.cacheKey(opInsights, window)
	if cached, ok := cacheLookup[AttributionInsights](ctx, s, cacheKey, opInsights); ok {
		return cached, nil
	}

	started := s.now()
	batch, agg, err := s.runBatch(ctx, window, opInsights)
	if err != nil {
		return nil, err
	}

	out := &AttributionInsights{
		TimeRange:              window,
		Processed:              batch.Processed,
		Skipped:                batch.Skipped,
		CampaignSummaries:      agg.CampaignSummaries,
		ContentSummaries:       agg.ContentSummaries,
		Distribution:           agg.Distribution,
		Recommendations:        GenerateInsights(agg, s.cfg),
		TopPerformingCampaigns: TopPerformingCampaigns(agg.CampaignSummaries),
		TopInfluentialContent:  TopInfluentialContent(agg.ContentSummaries),
		GeneratedAt:            s.now().UTC(),
	}

	s.finishRun(ctx, opInsights, window, batch, agg, s.now().Sub(started))
	s.cacheStore(ctx, cacheKey, out)
	return out, nil
}

// authorize fails closed: a checker error denies the run just as a
// false answer does, before any repository is touched.
func (s *service) authorize(ctx context.Context, callerID uuid.UUID) error {
	allowed, err := s.perms.HasPermission(ctx, callerID, enums.CapabilityCampaignsView)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking caller permissions")
	}
	if !allowed {
		return pkgerrors.New(pkgerrors.CodeForbidden, "caller lacks the campaigns:view capability")
	}
	return nil
}

func (s *service) runBatch(ctx context.Context, window TimeRange, operation string) (BatchResult, Aggregation, error) {
	orders, err := s.orders.FetchOrders(ctx, window)
	if err != nil {
		wrapped := pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetching orders for attribution window")
		if s.runStats != nil {
			s.runStats.IncFailure(operation)
		}
		if s.sink != nil {
			s.sink.RunFailed(ctx, operation, window, wrapped)
		}
		return BatchResult{}, Aggregation{}, wrapped
	}

	batch := s.processor.Process(ctx, orders)
	agg := Aggregate(batch.Records)
	return batch, agg, nil
}

func (s *service) finishRun(ctx context.Context, operation string, window TimeRange, batch BatchResult, agg Aggregation, took time.Duration) {
	if s.runStats != nil {
		s.runStats.ObserveDuration(operation, took)
		s.runStats.AddProcessed(operation, batch.Processed)
		s.runStats.AddSkipped(operation, batch.Skipped)
	}
	if s.sink != nil {
		s.sink.RunCompleted(ctx, RunReport{
			Operation:    operation,
			Window:       window,
			TotalOrders:  batch.Processed + batch.Skipped,
			Processed:    batch.Processed,
			Skipped:      batch.Skipped,
			Distribution: agg.Distribution,
			Duration:     took,
		})
	}
	if s.logg != nil {
		runCtx := s.logg.WithFields(ctx, map[string]any{
			"operation": operation,
			"processed": batch.Processed,
			"skipped":   batch.Skipped,
		})
		s.logg.Info(runCtx, "attribution run completed")
	}
}

func (s *service) cacheKey(operation string, window TimeRange) string {
	if s.cache == nil {
		return ""
	}
	return s.cache.ResultKey(
		operation,
		window.From.UTC().Format(time.RFC3339),
		window.To.UTC().Format(time.RFC3339),
	)
}

// cacheLookup treats every cache problem (miss, unreachable, stale
// shape) as a miss; the run proceeds normally.
func cacheLookup[T any](ctx context.Context, s *service, key, operation string) (*T, bool) {
	if s.cache == nil || key == "" {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil || raw == "" {
		return nil, false
	}
	var out T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, false
	}
	if s.runStats != nil {
		s.runStats.IncCacheHit(operation)
	}
	return &out, true
}

func (s *service) cacheStore(ctx context.Context, key string, payload any) {
	if s.cache == nil || key == "" || s.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(raw), s.cacheTTL); err != nil && s.logg != nil {
		s.logg.Warn(ctx, fmt.Sprintf("caching analytics result: %v", err))
	}
}

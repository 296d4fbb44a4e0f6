package attribution

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/brandpulse/backend/pkg/logger"
)

// BatchProcessor fans order resolution out over a bounded worker pool
// with per-order fault isolation: a failing order is recorded and
// skipped, never allowed to abort the batch.
type BatchProcessor struct {
	resolver *Resolver
	sink     ObservabilitySink
	logg     *logger.Logger
	workers  int
}

// NewBatchProcessor builds a processor over the resolver. The sink may
// be nil when no observability wiring is present (tests).
func NewBatchProcessor(resolver *Resolver, sink ObservabilitySink, logg *logger.Logger, workers int) (*BatchProcessor, error) {
	if resolver == nil {
		return nil, fmt.Errorf("resolver required")
	}
	if workers <= 0 {
		workers = 1
	}
	return &BatchProcessor{
		resolver: resolver,
		sink:     sink,
		logg:     logg,
		workers:  workers,
	}, nil
}

// Process resolves every order in the batch. Record ordering is not
// guaranteed to match input ordering; aggregation is order-independent.
// Always: Processed + Skipped == len(orders).
func (p *BatchProcessor) Process(ctx context.Context, orders []Order) BatchResult {
	result := BatchResult{
		Records: make([]AttributionRecord, 0, len(orders)),
	}
	if len(orders) == 0 {
		return result
	}

	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.workers)

	for _, order := range orders {
		order := order
		group.Go(func() error {
			// A cancelled context skips the remaining orders; that still
			// honors the skip-on-error contract.
			if err := groupCtx.Err(); err != nil {
				p.recordSkip(ctx, &mu, &result, order, err)
				return nil
			}

			record, err := p.resolver.Resolve(groupCtx, order)
			if err != nil {
				p.recordSkip(ctx, &mu, &result, order, err)
				return nil
			}

			mu.Lock()
			result.Records = append(result.Records, record)
			result.Processed++
			mu.Unlock()
			return nil
		})
	}

	// Workers never return errors; failures are counted, not propagated.
	_ = group.Wait()
	return result
}

func (p *BatchProcessor) recordSkip(ctx context.Context, mu *sync.Mutex, result *BatchResult, order Order, cause error) {
	mu.Lock()
	result.Skipped++
	mu.Unlock()

	if p.logg != nil {
		skipCtx := p.logg.WithFields(ctx, map[string]any{
			"order_id": order.ID.String(),
		})
		p.logg.Warn(skipCtx, fmt.Sprintf("skipping order: %v", cause))
	}
	if p.sink != nil {
		p.sink.OrderSkipped(ctx, order.ID, cause)
	}
}

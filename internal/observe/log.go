package observe

import (
	"context"
	"fmt"
	"time"

	"github.com/brandpulse/backend/internal/attribution"
	"github.com/brandpulse/backend/pkg/logger"
	"github.com/google/uuid"
)

// LogSink emits run lifecycle events as structured log lines.
type LogSink struct {
	logg *logger.Logger
}

// NewLogSink wraps the shared logger in an attribution sink.
func NewLogSink(logg *logger.Logger) (*LogSink, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &LogSink{logg: logg}, nil
}

func (s *LogSink) OrderSkipped(ctx context.Context, orderID uuid.UUID, cause error) {
	ctx = s.logg.WithField(ctx, "order_id", orderID.String())
	s.logg.Warn(s.logg.WithField(ctx, "cause", cause.Error()), "order skipped during attribution")
}

func (s *LogSink) RunCompleted(ctx context.Context, report attribution.RunReport) {
	ctx = s.logg.WithFields(ctx, runFields(report.Operation, report.Window))
	ctx = s.logg.WithFields(ctx, map[string]any{
		"total_orders": report.TotalOrders,
		"processed":    report.Processed,
		"skipped":      report.Skipped,
		"duration_ms":  report.Duration.Milliseconds(),
	})
	s.logg.Info(ctx, "attribution run completed")
}

func (s *LogSink) RunFailed(ctx context.Context, operation string, window attribution.TimeRange, err error) {
	ctx = s.logg.WithFields(ctx, runFields(operation, window))
	s.logg.Error(ctx, "attribution run failed", err)
}

func runFields(operation string, window attribution.TimeRange) map[string]any {
	return map[string]any{
		"operation":   operation,
		"window_from": window.From.Format(time.RFC3339),
		"window_to":   window.To.Format(time.RFC3339),
	}
}

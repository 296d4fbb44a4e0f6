package observe

import (
	"context"

	"github.com/brandpulse/backend/internal/attribution"
	"github.com/google/uuid"
)

// MultiSink fans run events out to several sinks. Nil entries are skipped.
type MultiSink struct {
	sinks []attribution.ObservabilitySink
}

// NewMultiSink combines the given sinks into one.
func NewMultiSink(sinks ...attribution.ObservabilitySink) *MultiSink {
	kept := make([]attribution.ObservabilitySink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &MultiSink{sinks: kept}
}

func (m *MultiSink) OrderSkipped(ctx context.Context, orderID uuid.UUID, cause error) {
	for _, s := range m.sinks {
		s.OrderSkipped(ctx, orderID, cause)
	}
}

func (m *MultiSink) RunCompleted(ctx context.Context, report attribution.RunReport) {
	for _, s := range m.sinks {
		s.RunCompleted(ctx, report)
	}
}

func (m *MultiSink) RunFailed(ctx context.Context, operation string, window attribution.TimeRange, err error) {
	for _, s := range m.sinks {
		s.RunFailed(ctx, operation, window, err)
	}
}

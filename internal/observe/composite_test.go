package observe

import (
	"context"
	"errors"
	"testing"

	"github.com/brandpulse/backend/internal/attribution"
	"github.com/google/uuid"
)

type countingSink struct {
	skipped   int
	completed int
	failed    int
}

func (s *countingSink) OrderSkipped(ctx context.Context, orderID uuid.UUID, cause error) {
	s.skipped++
}

func (s *countingSink) RunCompleted(ctx context.Context, report attribution.RunReport) {
	s.completed++
}

func (s *countingSink) RunFailed(ctx context.Context, operation string, window attribution.TimeRange, err error) {
	s.failed++
}

func TestMultiSinkFansOut(t *testing.T) {
	a := &countingSink{}
	b := &countingSink{}
	sink := NewMultiSink(a, nil, b)

	ctx := context.Background()
	sink.OrderSkipped(ctx, uuid.New(), errors.New("boom"))
	sink.RunCompleted(ctx, attribution.RunReport{Operation: "dashboard"})
	sink.RunFailed(ctx, "insights", attribution.TimeRange{}, errors.New("boom"))

	for _, s := range []*countingSink{a, b} {
		if s.skipped != 1 || s.completed != 1 || s.failed != 1 {
			t.Fatalf("sink counts = %+v", s)
		}
	}
}

func TestMultiSinkEmptyIsSafe(t *testing.T) {
	sink := NewMultiSink()
	sink.RunCompleted(context.Background(), attribution.RunReport{})
}

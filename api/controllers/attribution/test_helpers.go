package attribution

import (
	"context"
	"time"

	attrib "github.com/brandpulse/backend/internal/attribution"
	"github.com/google/uuid"
)

type testAttributionService struct {
	lastWindow attrib.TimeRange
	lastCaller uuid.UUID
	dashboard  *attrib.DashboardAnalytics
	insights   *attrib.AttributionInsights
	err        error
	calls      int
}

func (s *testAttributionService) RunDashboardAnalytics(ctx context.Context, window attrib.TimeRange, callerID uuid.UUID) (*attrib.DashboardAnalytics, error) {
	s.calls++
	s.lastWindow = window
	s.lastCaller = callerID
	if s.err != nil {
		return nil, s.err
	}
	if s.dashboard == nil {
		s.dashboard = &attrib.DashboardAnalytics{}
	}
	return s.dashboard, nil
}

func (s *testAttributionService) RunAttributionInsights(ctx context.Context, window attrib.TimeRange, callerID uuid.UUID) (*attrib.AttributionInsights, error) {
	s.calls++
	s.lastWindow = window
	s.lastCaller = callerID
	if s.err != nil {
		return nil, s.err
	}
	if s.insights == nil {
		s.insights = &attrib.AttributionInsights{}
	}
	return s.insights, nil
}

func (s *testAttributionService) period() time.Duration {
	return s.lastWindow.To.Sub(s.lastWindow.From)
}

type testDispatcher struct {
	lastOperation string
	lastWindow    attrib.TimeRange
	lastRequester uuid.UUID
	eventID       uuid.UUID
	err           error
	calls         int
}

func (d *testDispatcher) Enqueue(ctx context.Context, operation string, window attrib.TimeRange, requestedBy uuid.UUID) (uuid.UUID, error) {
	d.calls++
	d.lastOperation = operation
	d.lastWindow = window
	d.lastRequester = requestedBy
	if d.err != nil {
		return uuid.Nil, d.err
	}
	if d.eventID == uuid.Nil {
		d.eventID = uuid.New()
	}
	return d.eventID, nil
}

package attribution

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brandpulse/backend/pkg/enums"
)

// stubTouchpoints backs all four reader interfaces from in-memory maps.
type stubTouchpoints struct {
	mu sync.Mutex

	interactions   map[uuid.UUID][]Interaction
	interactionErr error
	engagements    map[uuid.UUID][]Engagement
	engagementErr  error
	bundles        map[uuid.UUID]BundleRef
	bundleErr      error
	history        map[uuid.UUID][]Order
	historyErr     map[uuid.UUID]error

	interactionCalls int
	engagementCalls  int
	bundleCalls      int
	historyCalls     int
}

func newStubTouchpoints() *stubTouchpoints {
	return &stubTouchpoints{
		interactions: map[uuid.UUID][]Interaction{},
		engagements:  map[uuid.UUID][]Engagement{},
		bundles:      map[uuid.UUID]BundleRef{},
		history:      map[uuid.UUID][]Order{},
		historyErr:   map[uuid.UUID]error{},
	}
}

func (s *stubTouchpoints) RecentInteractions(_ context.Context, customerID uuid.UUID, _ int) ([]Interaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interactionCalls++
	if s.interactionErr != nil {
		return nil, s.interactionErr
	}
	return s.interactions[customerID], nil
}

func (s *stubTouchpoints) RecentEngagements(_ context.Context, customerID uuid.UUID, _ int) ([]Engagement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engagementCalls++
	if s.engagementErr != nil {
		return nil, s.engagementErr
	}
	return s.engagements[customerID], nil
}

func (s *stubTouchpoints) BundleForProduct(_ context.Context, productID uuid.UUID) (*BundleRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bundleCalls++
	if s.bundleErr != nil {
		return nil, s.bundleErr
	}
	if ref, ok := s.bundles[productID]; ok {
		out := ref
		return &out, nil
	}
	return nil, nil
}

func (s *stubTouchpoints) OrdersExcluding(_ context.Context, customerID, _ uuid.UUID) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.historyCalls++
	if err := s.historyErr[customerID]; err != nil {
		return nil, err
	}
	return s.history[customerID], nil
}

type stubOrderReader struct {
	orders []Order
	err    error
	calls  int
}

func (s *stubOrderReader) FetchOrders(context.Context, TimeRange) ([]Order, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.orders, nil
}

type stubPermissions struct {
	allowed bool
	err     error
	calls   int
}

func (s *stubPermissions) HasPermission(context.Context, uuid.UUID, enums.Capability) (bool, error) {
	s.calls++
	return s.allowed, s.err
}

type stubSink struct {
	mu        sync.Mutex
	skipped   []uuid.UUID
	completed []RunReport
	failed    int
}

func (s *stubSink) OrderSkipped(_ context.Context, orderID uuid.UUID, _ error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skipped = append(s.skipped, orderID)
}

func (s *stubSink) RunCompleted(_ context.Context, report RunReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed = append(s.completed, report)
}

func (s *stubSink) RunFailed(context.Context, string, TimeRange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed++
}

type stubCache struct {
	data map[string]string
	gets int
	sets int
}

func newStubCache() *stubCache {
	return &stubCache{data: map[string]string{}}
}

func (s *stubCache) Get(_ context.Context, key string) (string, error) {
	s.gets++
	return s.data[key], nil
}

func (s *stubCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	s.sets++
	s.data[key] = value.(string)
	return nil
}

func (s *stubCache) ResultKey(parts ...string) string {
	key := "bp:result"
	for _, part := range parts {
		key += ":" + part
	}
	return key
}

func testOrder(customerID uuid.UUID, total int64, created time.Time, items ...LineItem) Order {
	return Order{
		ID:         uuid.New(),
		CustomerID: customerID,
		Total:      decimal.NewFromInt(total),
		CreatedAt:  created,
		Items:      items,
	}
}

func strPtr(v string) *string { return &v }

func uuidPtr(v uuid.UUID) *uuid.UUID { return &v }

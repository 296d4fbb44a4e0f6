package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/brandpulse/backend/internal/attribution"
	"github.com/brandpulse/backend/pkg/events"
	"github.com/brandpulse/backend/pkg/logger"
	"github.com/google/uuid"
)

type stubHandler struct {
	called bool
	last   RunRequest
	err    error
}

func (h *stubHandler) Handle(ctx context.Context, req RunRequest) error {
	h.called = true
	h.last = req
	return h.err
}

type stubManager struct {
	checkResult bool
	checkErr    error
	checked     []uuid.UUID
	deleted     []uuid.UUID
}

func (m *stubManager) CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error) {
	m.checked = append(m.checked, eventID)
	return m.checkResult, m.checkErr
}

func (m *stubManager) Delete(ctx context.Context, consumer string, eventID uuid.UUID) error {
	m.deleted = append(m.deleted, eventID)
	return nil
}

func newTestService(t *testing.T, handler Handler, manager idempotencyChecker) *Service {
	t.Helper()
	if handler == nil {
		handler = &stubHandler{}
	}
	if manager == nil {
		manager = &stubManager{}
	}
	return &Service{
		subscription: &gcppubsub.Subscriber{},
		handler:      handler,
		manager:      manager,
		logg:         logger.New(logger.Options{ServiceName: "worker-test"}),
	}
}

func buildRunMessage(t *testing.T, eventID uuid.UUID, payload events.RunRequestedPayload) *gcppubsub.Message {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	envelope := events.Envelope{
		Version:    events.Version,
		EventID:    eventID.String(),
		EventType:  "attribution_run_requested",
		OccurredAt: time.Date(2025, 9, 10, 8, 0, 0, 0, time.UTC),
		Data:       data,
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return &gcppubsub.Message{
		ID:   "msg-1",
		Data: body,
		Attributes: map[string]string{
			"event_id":   eventID.String(),
			"event_type": "attribution_run_requested",
		},
	}
}

func validPayload() events.RunRequestedPayload {
	return events.RunRequestedPayload{
		Operation:   events.OperationDashboard,
		WindowFrom:  time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		WindowTo:    time.Date(2025, 9, 8, 0, 0, 0, 0, time.UTC),
		RequestedBy: uuid.New(),
	}
}

func TestBuildRequest(t *testing.T) {
	svc := newTestService(t, nil, nil)
	eventID := uuid.New()
	payload := validPayload()

	req, err := svc.buildRequest(buildRunMessage(t, eventID, payload))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if req.EventID != eventID {
		t.Fatalf("unexpected event id %s", req.EventID)
	}
	if req.Operation != events.OperationDashboard {
		t.Fatalf("unexpected operation %q", req.Operation)
	}
	if !req.Window.From.Equal(payload.WindowFrom) || !req.Window.To.Equal(payload.WindowTo) {
		t.Fatalf("unexpected window %+v", req.Window)
	}
	if req.RequestedBy != payload.RequestedBy {
		t.Fatalf("unexpected requester %s", req.RequestedBy)
	}
}

func TestBuildRequestRejectsBadInput(t *testing.T) {
	svc := newTestService(t, nil, nil)

	cases := map[string]func(*events.RunRequestedPayload){
		"unknown operation": func(p *events.RunRequestedPayload) { p.Operation = "export" },
		"missing window":    func(p *events.RunRequestedPayload) { p.WindowFrom = time.Time{} },
		"inverted window": func(p *events.RunRequestedPayload) {
			p.WindowFrom, p.WindowTo = p.WindowTo, p.WindowFrom
		},
		"missing requester": func(p *events.RunRequestedPayload) { p.RequestedBy = uuid.Nil },
	}

	for name, mutate := range cases {
		payload := validPayload()
		mutate(&payload)
		if _, err := svc.buildRequest(buildRunMessage(t, uuid.New(), payload)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestBuildRequestRejectsWrongEventType(t *testing.T) {
	svc := newTestService(t, nil, nil)
	msg := buildRunMessage(t, uuid.New(), validPayload())

	var envelope events.Envelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	envelope.EventType = "attribution_run_completed"
	body, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	msg.Data = body

	if _, err := svc.buildRequest(msg); err == nil {
		t.Fatal("expected error for completed event on the request topic")
	}
}

func TestProcessInvalidMessageAcks(t *testing.T) {
	handler := &stubHandler{}
	svc := newTestService(t, handler, nil)

	res := svc.process(context.Background(), &gcppubsub.Message{ID: "bad", Data: []byte("not-json")})
	if res.nack {
		t.Fatal("malformed messages should be acked, not retried")
	}
	if handler.called {
		t.Fatal("handler should not run for malformed messages")
	}
}

func TestProcessAlreadyProcessed(t *testing.T) {
	manager := &stubManager{checkResult: true}
	handler := &stubHandler{}
	svc := newTestService(t, handler, manager)

	res := svc.process(context.Background(), buildRunMessage(t, uuid.New(), validPayload()))
	if res.nack {
		t.Fatal("expected ack, got nack")
	}
	if handler.called {
		t.Fatal("handler should not be invoked when already processed")
	}
	if len(manager.checked) != 1 {
		t.Fatalf("expected check once, got %d", len(manager.checked))
	}
}

func TestProcessHandlerErrorRetries(t *testing.T) {
	manager := &stubManager{}
	handler := &stubHandler{err: errors.New("boom")}
	svc := newTestService(t, handler, manager)

	eventID := uuid.New()
	res := svc.process(context.Background(), buildRunMessage(t, eventID, validPayload()))
	if !res.nack {
		t.Fatal("expected nack on handler error")
	}
	if len(manager.deleted) != 1 || manager.deleted[0] != eventID {
		t.Fatalf("expected idempotency mark cleared for %s, got %v", eventID, manager.deleted)
	}
}

func TestProcessIdempotencyErrorRetries(t *testing.T) {
	manager := &stubManager{checkErr: errors.New("redis down")}
	handler := &stubHandler{}
	svc := newTestService(t, handler, manager)

	res := svc.process(context.Background(), buildRunMessage(t, uuid.New(), validPayload()))
	if !res.nack {
		t.Fatal("expected nack when idempotency store is unavailable")
	}
	if handler.called {
		t.Fatal("handler should not run when idempotency check fails")
	}
}

func TestProcessSuccess(t *testing.T) {
	manager := &stubManager{}
	handler := &stubHandler{}
	svc := newTestService(t, handler, manager)

	payload := validPayload()
	res := svc.process(context.Background(), buildRunMessage(t, uuid.New(), payload))
	if res.nack {
		t.Fatal("expected ack")
	}
	if !handler.called {
		t.Fatal("handler should be invoked")
	}
	if handler.last.Operation != events.OperationDashboard {
		t.Fatalf("unexpected operation %q", handler.last.Operation)
	}
	if len(manager.deleted) != 0 {
		t.Fatal("idempotency mark should stay after success")
	}
}

func TestNewRunHandlerDispatch(t *testing.T) {
	svc := &stubAttributionService{}
	handler, err := NewRunHandler(svc)
	if err != nil {
		t.Fatalf("NewRunHandler: %v", err)
	}

	window := attribution.TimeRange{
		From: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 9, 8, 0, 0, 0, 0, time.UTC),
	}
	caller := uuid.New()

	if err := handler.Handle(context.Background(), RunRequest{Operation: events.OperationDashboard, Window: window, RequestedBy: caller}); err != nil {
		t.Fatalf("dashboard dispatch: %v", err)
	}
	if svc.dashboardCalls != 1 {
		t.Fatalf("dashboard calls = %d", svc.dashboardCalls)
	}

	if err := handler.Handle(context.Background(), RunRequest{Operation: events.OperationInsights, Window: window, RequestedBy: caller}); err != nil {
		t.Fatalf("insights dispatch: %v", err)
	}
	if svc.insightCalls != 1 {
		t.Fatalf("insight calls = %d", svc.insightCalls)
	}

	if err := handler.Handle(context.Background(), RunRequest{Operation: "export", Window: window, RequestedBy: caller}); err == nil {
		t.Fatal("expected error for unsupported operation")
	}
}

type stubAttributionService struct {
	dashboardCalls int
	insightCalls   int
}

func (s *stubAttributionService) RunDashboardAnalytics(ctx context.Context, window attribution.TimeRange, callerID uuid.UUID) (*attribution.DashboardAnalytics, error) {
	s.dashboardCalls++
	return &attribution.DashboardAnalytics{}, nil
}

func (s *stubAttributionService) RunAttributionInsights(ctx context.Context, window attribution.TimeRange, callerID uuid.UUID) (*attribution.AttributionInsights, error) {
	s.insightCalls++
	return &attribution.AttributionInsights{}, nil
}

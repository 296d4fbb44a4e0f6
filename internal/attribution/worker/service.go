package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/brandpulse/backend/internal/attribution"
	"github.com/brandpulse/backend/pkg/enums"
	"github.com/brandpulse/backend/pkg/events"
	"github.com/brandpulse/backend/pkg/logger"
	"github.com/google/uuid"
)

const runConsumerName = "attribution-run"

// RunRequest is a decoded, validated run request from the run-request topic.
type RunRequest struct {
	EventID     uuid.UUID
	Operation   string
	Window      attribution.TimeRange
	RequestedBy uuid.UUID
	OccurredAt  time.Time
}

// Handler defines how to process run requests.
type Handler interface {
	Handle(ctx context.Context, req RunRequest) error
}

// HandlerFunc adapts functions to the Handler interface.
type HandlerFunc func(ctx context.Context, req RunRequest) error

// Handle calls the underlying function.
func (fn HandlerFunc) Handle(ctx context.Context, req RunRequest) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, req)
}

// NewRunHandler routes run requests to the attribution service.
func NewRunHandler(svc attribution.Service) (Handler, error) {
	if svc == nil {
		return nil, errors.New("attribution service is required")
	}
	return HandlerFunc(func(ctx context.Context, req RunRequest) error {
		switch req.Operation {
		case events.OperationDashboard:
			_, err := svc.RunDashboardAnalytics(ctx, req.Window, req.RequestedBy)
			return err
		case events.OperationInsights:
			_, err := svc.RunAttributionInsights(ctx, req.Window, req.RequestedBy)
			return err
		default:
			return fmt.Errorf("unsupported operation %q", req.Operation)
		}
	}), nil
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Service consumes run requests from Pub/Sub while honoring Redis idempotency.
type Service struct {
	subscription *gcppubsub.Subscriber
	handler      Handler
	manager      idempotencyChecker
	logg         *logger.Logger
}

// NewService creates a new run-request worker.
func NewService(subscription *gcppubsub.Subscriber, handler Handler, manager idempotencyChecker, logg *logger.Logger) (*Service, error) {
	if subscription == nil {
		return nil, errors.New("run request subscription is required")
	}
	if handler == nil {
		return nil, errors.New("run handler is required")
	}
	if manager == nil {
		return nil, errors.New("idempotency manager is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}

	return &Service{
		subscription: subscription,
		handler:      handler,
		manager:      manager,
		logg:         logg,
	}, nil
}

type processResult struct {
	nack bool
}

// Run starts consuming run requests until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.subscription.Receive(ctx, func(innerCtx context.Context, msg *gcppubsub.Message) {
		if s.process(innerCtx, msg).nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

func (s *Service) process(ctx context.Context, msg *gcppubsub.Message) processResult {
	fields := map[string]any{"message_id": msg.ID}
	logCtx := s.logg.WithFields(ctx, fields)

	req, err := s.buildRequest(msg)
	if err != nil {
		fields["error"] = err.Error()
		s.logg.Warn(s.logg.WithFields(ctx, fields), "invalid run request")
		return processResult{}
	}
	fields["event_id"] = req.EventID.String()
	fields["operation"] = req.Operation
	fields["window_from"] = req.Window.From.Format(time.RFC3339)
	fields["window_to"] = req.Window.To.Format(time.RFC3339)
	fields["requested_by"] = req.RequestedBy.String()
	logCtx = s.logg.WithFields(ctx, fields)

	already, err := s.manager.CheckAndMarkProcessed(logCtx, runConsumerName, req.EventID)
	if err != nil {
		s.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		s.logg.Info(logCtx, "run request already processed")
		return processResult{}
	}

	if err := s.handler.Handle(logCtx, *req); err != nil {
		s.logg.Error(logCtx, "run request failed", err)
		_ = s.manager.Delete(logCtx, runConsumerName, req.EventID)
		return processResult{nack: true}
	}

	s.logg.Info(logCtx, "run request handled")
	return processResult{}
}

func (s *Service) buildRequest(msg *gcppubsub.Message) (*RunRequest, error) {
	var envelope events.Envelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	eventTypeStr := strings.TrimSpace(string(envelope.EventType))
	if eventTypeStr == "" {
		eventTypeStr = strings.TrimSpace(msg.Attributes["event_type"])
	}
	eventType, err := enums.ParseRunEventType(eventTypeStr)
	if err != nil {
		return nil, fmt.Errorf("event_type: %w", err)
	}
	if eventType != enums.RunEventRequested {
		return nil, fmt.Errorf("unexpected event type %s", eventType)
	}

	eventIDStr := strings.TrimSpace(envelope.EventID)
	if eventIDStr == "" {
		eventIDStr = strings.TrimSpace(msg.Attributes["event_id"])
	}
	eventID, err := uuid.Parse(eventIDStr)
	if err != nil {
		return nil, fmt.Errorf("event_id: %w", err)
	}

	var payload events.RunRequestedPayload
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	operation := strings.TrimSpace(payload.Operation)
	if operation != events.OperationDashboard && operation != events.OperationInsights {
		return nil, fmt.Errorf("unsupported operation %q", operation)
	}
	if payload.WindowFrom.IsZero() || payload.WindowTo.IsZero() {
		return nil, errors.New("window bounds are required")
	}
	if !payload.WindowTo.After(payload.WindowFrom) {
		return nil, errors.New("window end must be after start")
	}
	if payload.RequestedBy == uuid.Nil {
		return nil, errors.New("requestedBy is required")
	}

	return &RunRequest{
		EventID:   eventID,
		Operation: operation,
		Window: attribution.TimeRange{
			From: payload.WindowFrom.UTC(),
			To:   payload.WindowTo.UTC(),
		},
		RequestedBy: payload.RequestedBy,
		OccurredAt:  envelope.OccurredAt.UTC(),
	}, nil
}

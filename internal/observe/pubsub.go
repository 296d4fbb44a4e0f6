package observe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/brandpulse/backend/internal/attribution"
	"github.com/brandpulse/backend/pkg/enums"
	"github.com/brandpulse/backend/pkg/events"
	"github.com/brandpulse/backend/pkg/logger"
	pkgpubsub "github.com/brandpulse/backend/pkg/pubsub"
	"github.com/google/uuid"
)

const defaultPublishTimeout = 10 * time.Second

// runFailedPayload is the data block for attribution_run_failed events.
type runFailedPayload struct {
	Operation string                `json:"operation"`
	Window    attribution.TimeRange `json:"window"`
	Error     string                `json:"error"`
}

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

type publisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) publishResult
}

// EventPublisher publishes run lifecycle events to the run-events topic.
// Publishing is best effort; failures are logged, never propagated.
type EventPublisher struct {
	pub            publisher
	logg           *logger.Logger
	publishTimeout time.Duration
	now            func() time.Time
}

// NewEventPublisher builds an EventPublisher on the shared Pub/Sub client.
func NewEventPublisher(client *pkgpubsub.Client, logg *logger.Logger) (*EventPublisher, error) {
	if client == nil {
		return nil, fmt.Errorf("pubsub client is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	pub := newGCPPublisher(client.RunEventsPublisher())
	if pub == nil {
		return nil, fmt.Errorf("run events publisher is not configured")
	}
	return &EventPublisher{
		pub:            pub,
		logg:           logg,
		publishTimeout: defaultPublishTimeout,
		now:            time.Now,
	}, nil
}

func (p *EventPublisher) OrderSkipped(ctx context.Context, orderID uuid.UUID, cause error) {
	// Per-order skips stay local; only run-level events cross the wire.
}

func (p *EventPublisher) RunCompleted(ctx context.Context, report attribution.RunReport) {
	p.publish(ctx, enums.RunEventCompleted, report.Operation, report)
}

func (p *EventPublisher) RunFailed(ctx context.Context, operation string, window attribution.TimeRange, err error) {
	payload := runFailedPayload{Operation: operation, Window: window}
	if err != nil {
		payload.Error = err.Error()
	}
	p.publish(ctx, enums.RunEventFailed, operation, payload)
}

func (p *EventPublisher) publish(ctx context.Context, eventType enums.RunEventType, operation string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		p.logError(ctx, eventType, fmt.Errorf("marshal payload: %w", err))
		return
	}

	envelope := events.Envelope{
		Version:    events.Version,
		EventID:    uuid.NewString(),
		EventType:  eventType,
		OccurredAt: p.now().UTC(),
		Data:       data,
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		p.logError(ctx, eventType, fmt.Errorf("marshal envelope: %w", err))
		return
	}

	msg := &gcppubsub.Message{
		Data: body,
		Attributes: map[string]string{
			"event_id":   envelope.EventID,
			"event_type": string(eventType),
			"operation":  operation,
		},
	}

	publishCtx, cancel := context.WithTimeout(ctx, p.publishTimeout)
	defer cancel()

	result := p.pub.Publish(publishCtx, msg)
	if result == nil {
		p.logError(ctx, eventType, errors.New("publisher returned nil result"))
		return
	}
	if _, err := result.Get(publishCtx); err != nil {
		p.logError(ctx, eventType, err)
	}
}

func (p *EventPublisher) logError(ctx context.Context, eventType enums.RunEventType, err error) {
	ctx = p.logg.WithField(ctx, "event_type", string(eventType))
	p.logg.Error(ctx, "publish run event", err)
}

func newGCPPublisher(pub *gcppubsub.Publisher) publisher {
	if pub == nil {
		return nil
	}
	return &gcpPublisher{Publisher: pub}
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return p.Publisher.Publish(ctx, msg)
}

package dispatch

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
	pkgerrors "github.com/brandpulse/backend/pkg/errors"
	pkgpubsub "github.com/brandpulse/backend/pkg/pubsub"
	"github.com/google/uuid"
)

const defaultPublishTimeout = 10 * time.Second

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

type publisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) publishResult
}

// Dispatcher enqueues attribution run requests on the run-request topic.
type Dispatcher struct {
	pub            publisher
	publishTimeout time.Duration
	now            func() time.Time
}

// NewDispatcher builds a Dispatcher on the shared Pub/Sub client.
func NewDispatcher(client *pkgpubsub.Client) (*Dispatcher, error) {
	if client == nil {
		return nil, errors.New("pubsub client is required")
	}
	pub := newGCPPublisher(client.RunRequestPublisher())
	if pub == nil {
		return nil, errors.New("run request publisher is not configured")
	}
	return &Dispatcher{
		pub:            pub,
		publishTimeout: defaultPublishTimeout,
		now:            time.Now,
	}, nil
}

// Enqueue publishes a run request and returns its event ID.
func (d *Dispatcher) Enqueue(ctx context.Context, operation string, window attribution.TimeRange, requestedBy uuid.UUID) (uuid.UUID, error) {
	if operation != events.OperationDashboard && operation != events.OperationInsights {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported operation %q", operation))
	}
	if requestedBy == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "requester is required")
	}
	if !window.To.After(window.From) {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "window end must be after start")
	}

	eventID := uuid.New()
	payload := events.RunRequestedPayload{
		Operation:   operation,
		WindowFrom:  window.From.UTC(),
		WindowTo:    window.To.UTC(),
		RequestedBy: requestedBy,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal run request")
	}

	envelope := events.Envelope{
		Version:    events.Version,
		EventID:    eventID.String(),
		EventType:  enums.RunEventRequested,
		OccurredAt: d.now().UTC(),
		Data:       data,
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal run request envelope")
	}

	msg := &gcppubsub.Message{
		Data: body,
		Attributes: map[string]string{
			"event_id":   envelope.EventID,
			"event_type": string(enums.RunEventRequested),
			"operation":  operation,
		},
	}

	publishCtx, cancel := context.WithTimeout(ctx, d.publishTimeout)
	defer cancel()

	result := d.pub.Publish(publishCtx, msg)
	if result == nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeDependency, "run request publisher unavailable")
	}
	if _, err := result.Get(publishCtx); err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "publish run request")
	}
	return eventID, nil
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

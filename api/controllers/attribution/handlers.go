package attribution

import (
	"context"
	"net/http"
	"time"

	"github.com/brandpulse/backend/api/middleware"
	"github.com/brandpulse/backend/api/responses"
	"github.com/brandpulse/backend/api/validators"
	attrib "github.com/brandpulse/backend/internal/attribution"
	pkgerrors "github.com/brandpulse/backend/pkg/errors"
	"github.com/brandpulse/backend/pkg/logger"
	"github.com/google/uuid"
)

// RunDispatcher enqueues asynchronous attribution runs.
type RunDispatcher interface {
	Enqueue(ctx context.Context, operation string, window attrib.TimeRange, requestedBy uuid.UUID) (uuid.UUID, error)
}

// Dashboard serves synchronous dashboard analytics for a time window.
func Dashboard(service attrib.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		callerID, err := callerFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		window, err := resolveWindow(r, timeNowUTC())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := service.RunDashboardAnalytics(ctx, window, callerID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// Insights serves attribution insights and recommendations for a time window.
func Insights(service attrib.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		callerID, err := callerFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		window, err := resolveWindow(r, timeNowUTC())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := service.RunAttributionInsights(ctx, window, callerID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

type enqueueRunRequest struct {
	Operation string    `json:"operation" validate:"required,oneof=dashboard insights"`
	From      time.Time `json:"from" validate:"required"`
	To        time.Time `json:"to" validate:"required"`
}

type enqueueRunResponse struct {
	RunRequestID string    `json:"runRequestId"`
	Operation    string    `json:"operation"`
	WindowFrom   time.Time `json:"windowFrom"`
	WindowTo     time.Time `json:"windowTo"`
}

// EnqueueRun accepts an asynchronous run request and publishes it for the worker.
func EnqueueRun(dispatcher RunDispatcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		callerID, err := callerFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var body enqueueRunRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		window := attrib.TimeRange{From: body.From.UTC(), To: body.To.UTC()}
		eventID, err := dispatcher.Enqueue(ctx, body.Operation, window, callerID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusAccepted, enqueueRunResponse{
			RunRequestID: eventID.String(),
			Operation:    body.Operation,
			WindowFrom:   window.From,
			WindowTo:     window.To,
		})
	}
}

func callerFromContext(ctx context.Context) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(ctx)
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing caller identity")
	}
	callerID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid caller identity")
	}
	return callerID, nil
}

package attribution

import (
	"context"

	"github.com/google/uuid"

	"github.com/brandpulse/backend/pkg/enums"
)

// OrderReader fetches the orders for a run window, line items included.
type OrderReader interface {
	FetchOrders(ctx context.Context, window TimeRange) ([]Order, error)
}

// CampaignInteractionReader returns a customer's campaign touches,
// most-recent-first, bounded by limit.
type CampaignInteractionReader interface {
	RecentInteractions(ctx context.Context, customerID uuid.UUID, limit int) ([]Interaction, error)
}

// ContentEngagementReader returns a customer's content touches,
// most-recent-first, bounded by limit.
type ContentEngagementReader interface {
	RecentEngagements(ctx context.Context, customerID uuid.UUID, limit int) ([]Engagement, error)
}

// BundleMembershipReader resolves the active bundle a product belongs
// to. A nil BundleRef with nil error means no membership.
type BundleMembershipReader interface {
	BundleForProduct(ctx context.Context, productID uuid.UUID) (*BundleRef, error)
}

// CustomerHistoryReader fetches a customer's prior orders for
// segmentation, excluding the order under attribution.
type CustomerHistoryReader interface {
	OrdersExcluding(ctx context.Context, customerID, excludeOrderID uuid.UUID) ([]Order, error)
}

// PermissionChecker decides whether a caller may run analytics. The
// engine fails closed on both a false answer and an error.
type PermissionChecker interface {
	HasPermission(ctx context.Context, userID uuid.UUID, capability enums.Capability) (bool, error)
}

// ObservabilitySink receives run events and per-order skip records.
// Sinks are fire-and-forget; they never influence control flow.
type ObservabilitySink interface {
	OrderSkipped(ctx context.Context, orderID uuid.UUID, cause error)
	RunCompleted(ctx context.Context, report RunReport)
	RunFailed(ctx context.Context, operation string, window TimeRange, err error)
}

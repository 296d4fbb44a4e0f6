package attribution

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/brandpulse/backend/pkg/db/models"
	"github.com/brandpulse/backend/pkg/enums"
)

// Repo implements every reader the engine consumes against the
// marketing schema, plus a membership-backed PermissionChecker.
type Repo struct {
	db *gorm.DB
}

// NewRepo builds the attribution repository bound to the provided DB.
func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// FetchOrders returns the orders created inside the window, oldest
// first, line items included.
func (r *Repo) FetchOrders(ctx context.Context, window TimeRange) ([]Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("created_at >= ? AND created_at < ?", window.From, window.To).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	orders := make([]Order, 0, len(rows))
	for _, row := range rows {
		orders = append(orders, orderFromModel(row))
	}
	return orders, nil
}

// RecentInteractions returns the customer's campaign touches,
// most-recent-first.
func (r *Repo) RecentInteractions(ctx context.Context, customerID uuid.UUID, limit int) ([]Interaction, error) {
	var rows []models.CampaignInteraction
	err := r.db.WithContext(ctx).
		Preload("Campaign").
		Where("customer_id = ?", customerID).
		Order("occurred_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	interactions := make([]Interaction, 0, len(rows))
	for _, row := range rows {
		name := ""
		if row.Campaign != nil {
			name = row.Campaign.Name
		}
		interactions = append(interactions, Interaction{
			CampaignID:   row.CampaignID,
			CampaignName: name,
			Type:         row.InteractionType,
			OccurredAt:   row.OccurredAt,
		})
	}
	return interactions, nil
}

// RecentEngagements returns the customer's content touches,
// most-recent-first.
func (r *Repo) RecentEngagements(ctx context.Context, customerID uuid.UUID, limit int) ([]Engagement, error) {
	var rows []models.ContentEngagement
	err := r.db.WithContext(ctx).
		Preload("Content").
		Where("customer_id = ?", customerID).
		Order("occurred_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	engagements := make([]Engagement, 0, len(rows))
	for _, row := range rows {
		title := ""
		if row.Content != nil {
			title = row.Content.Title
		}
		engagements = append(engagements, Engagement{
			ContentID:    row.ContentID,
			ContentTitle: title,
			Type:         row.EngagementType,
			OccurredAt:   row.OccurredAt,
		})
	}
	return engagements, nil
}

// BundleForProduct resolves the first active bundle the product belongs
// to; nil when none.
func (r *Repo) BundleForProduct(ctx context.Context, productID uuid.UUID) (*BundleRef, error) {
	var bundle models.Bundle
	err := r.db.WithContext(ctx).
		Joins("JOIN bundle_products ON bundle_products.bundle_id = bundles.id").
		Where("bundle_products.product_id = ? AND bundles.active = ?", productID, true).
		Order("bundles.created_at ASC").
		First(&bundle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &BundleRef{ID: bundle.ID, Name: bundle.Name}, nil
}

// OrdersExcluding returns the customer's other orders for segmentation.
func (r *Repo) OrdersExcluding(ctx context.Context, customerID, excludeOrderID uuid.UUID) ([]Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND id <> ?", customerID, excludeOrderID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	orders := make([]Order, 0, len(rows))
	for _, row := range rows {
		orders = append(orders, orderFromModel(row))
	}
	return orders, nil
}

// roleCapabilities maps a workspace role to the capabilities it grants.
var roleCapabilities = map[enums.MemberRole][]enums.Capability{
	enums.MemberRoleAdmin: {
		enums.CapabilityCampaignsView,
		enums.CapabilityCampaignsManage,
		enums.CapabilityContentView,
		enums.CapabilityContentManage,
		enums.CapabilityBundlesManage,
	},
	enums.MemberRoleMarketer: {
		enums.CapabilityCampaignsView,
		enums.CapabilityCampaignsManage,
		enums.CapabilityContentView,
		enums.CapabilityContentManage,
		enums.CapabilityBundlesManage,
	},
	enums.MemberRoleAnalyst: {
		enums.CapabilityCampaignsView,
		enums.CapabilityContentView,
	},
	enums.MemberRoleViewer: {
		enums.CapabilityCampaignsView,
		enums.CapabilityContentView,
	},
}

// HasPermission answers from the caller's membership role. No
// membership means no capabilities.
func (r *Repo) HasPermission(ctx context.Context, userID uuid.UUID, capability enums.Capability) (bool, error) {
	var membership models.Membership
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	for _, granted := range roleCapabilities[membership.Role] {
		if granted == capability {
			return true, nil
		}
	}
	return false, nil
}

func orderFromModel(row models.Order) Order {
	order := Order{
		ID:         row.ID,
		CustomerID: row.CustomerID,
		Total:      decimal.New(row.TotalCents, -2),
		CreatedAt:  row.CreatedAt,
	}
	for _, item := range row.Items {
		order.Items = append(order.Items, LineItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Qty:         item.Qty,
			LineTotal:   decimal.New(item.LineTotalCents, -2),
		})
	}
	return order
}

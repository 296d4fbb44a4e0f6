package attribution

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/brandpulse/backend/pkg/db/models"
	"github.com/brandpulse/backend/pkg/enums"
)

func setupAttributionTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := []string{
		`CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  total_cents INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS order_line_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  qty INTEGER NOT NULL,
  line_total_cents INTEGER NOT NULL,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS campaigns (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  status TEXT NOT NULL,
  starts_at DATETIME,
  ends_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS campaign_interactions (
  id TEXT PRIMARY KEY,
  campaign_id TEXT NOT NULL,
  customer_id TEXT NOT NULL,
  interaction_type TEXT NOT NULL,
  occurred_at DATETIME NOT NULL,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS content_pieces (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  kind TEXT NOT NULL,
  status TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS content_engagements (
  id TEXT PRIMARY KEY,
  content_id TEXT NOT NULL,
  customer_id TEXT NOT NULL,
  engagement_type TEXT NOT NULL,
  occurred_at DATETIME NOT NULL,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS bundles (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS bundle_products (
  id TEXT PRIMARY KEY,
  bundle_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS memberships (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  role TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
	}
	for _, stmt := range schema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func createTestOrder(t *testing.T, db *gorm.DB, customerID uuid.UUID, totalCents int64, created time.Time) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:         uuid.New(),
		CustomerID: customerID,
		TotalCents: totalCents,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestRepoFetchOrdersWindow(t *testing.T) {
	ctx := context.Background()
	db := setupAttributionTestDB(t)
	repo := NewRepo(db)
	customerID := uuid.New()

	inWindow := createTestOrder(t, db, customerID, 10000, time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC))
	createTestOrder(t, db, customerID, 5000, time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC))
	createTestOrder(t, db, customerID, 5000, time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC))

	item := &models.OrderLineItem{
		ID:             uuid.New(),
		OrderID:        inWindow.ID,
		ProductID:      uuid.New(),
		ProductName:    "Hoodie",
		Qty:            2,
		LineTotalCents: 10000,
	}
	require.NoError(t, db.Create(item).Error)

	orders, err := repo.FetchOrders(ctx, TimeRange{
		From: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.Len(t, orders, 1)
	assert.Equal(t, inWindow.ID, orders[0].ID)
	assert.Equal(t, "100", orders[0].Total.String())
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, "Hoodie", orders[0].Items[0].ProductName)
}

func TestRepoRecentInteractionsMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	db := setupAttributionTestDB(t)
	repo := NewRepo(db)
	customerID := uuid.New()

	campaign := &models.Campaign{ID: uuid.New(), Name: "spring-sale", Status: "active"}
	require.NoError(t, db.Create(campaign).Error)

	older := &models.CampaignInteraction{
		ID:              uuid.New(),
		CampaignID:      campaign.ID,
		CustomerID:      customerID,
		InteractionType: "email_open",
		OccurredAt:      time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
	newer := &models.CampaignInteraction{
		ID:              uuid.New(),
		CampaignID:      campaign.ID,
		CustomerID:      customerID,
		InteractionType: "promo_click",
		OccurredAt:      time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.Create(older).Error)
	require.NoError(t, db.Create(newer).Error)

	interactions, err := repo.RecentInteractions(ctx, customerID, 10)
	require.NoError(t, err)

	require.Len(t, interactions, 2)
	assert.Equal(t, "promo_click", interactions[0].Type)
	assert.Equal(t, "spring-sale", interactions[0].CampaignName)
	assert.Equal(t, "email_open", interactions[1].Type)
}

func TestRepoRecentEngagements(t *testing.T) {
	ctx := context.Background()
	db := setupAttributionTestDB(t)
	repo := NewRepo(db)
	customerID := uuid.New()

	content := &models.ContentPiece{ID: uuid.New(), Title: "buying-guide", Kind: "article", Status: "published"}
	require.NoError(t, db.Create(content).Error)

	engagement := &models.ContentEngagement{
		ID:             uuid.New(),
		ContentID:      content.ID,
		CustomerID:     customerID,
		EngagementType: "view",
		OccurredAt:     time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.Create(engagement).Error)

	engagements, err := repo.RecentEngagements(ctx, customerID, 10)
	require.NoError(t, err)

	require.Len(t, engagements, 1)
	assert.Equal(t, "buying-guide", engagements[0].ContentTitle)

	none, err := repo.RecentEngagements(ctx, uuid.New(), 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRepoBundleForProduct(t *testing.T) {
	ctx := context.Background()
	db := setupAttributionTestDB(t)
	repo := NewRepo(db)
	productID := uuid.New()

	active := &models.Bundle{ID: uuid.New(), Name: "starter-pack", Active: true}
	inactive := &models.Bundle{ID: uuid.New(), Name: "retired-pack", Active: false}
	require.NoError(t, db.Create(active).Error)
	require.NoError(t, db.Create(inactive).Error)

	require.NoError(t, db.Create(&models.BundleProduct{ID: uuid.New(), BundleID: active.ID, ProductID: productID}).Error)

	ref, err := repo.BundleForProduct(ctx, productID)
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.Equal(t, "starter-pack", ref.Name)

	// Inactive bundles never claim an order.
	retiredProduct := uuid.New()
	require.NoError(t, db.Create(&models.BundleProduct{ID: uuid.New(), BundleID: inactive.ID, ProductID: retiredProduct}).Error)
	ref, err = repo.BundleForProduct(ctx, retiredProduct)
	require.NoError(t, err)
	assert.Nil(t, ref)

	ref, err = repo.BundleForProduct(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, ref)
}

func TestRepoPersistsInactiveBundle(t *testing.T) {
	db := setupAttributionTestDB(t)

	bundle := &models.Bundle{ID: uuid.New(), Name: "retired-pack", Active: false}
	require.NoError(t, db.Create(bundle).Error)

	var stored models.Bundle
	require.NoError(t, db.First(&stored, "id = ?", bundle.ID).Error)
	assert.False(t, stored.Active, "Active:false must survive the insert")
}

func TestRepoOrdersExcluding(t *testing.T) {
	ctx := context.Background()
	db := setupAttributionTestDB(t)
	repo := NewRepo(db)
	customerID := uuid.New()
	now := time.Now().UTC()

	current := createTestOrder(t, db, customerID, 2500, now)
	createTestOrder(t, db, customerID, 5000, now.Add(-24*time.Hour))
	createTestOrder(t, db, customerID, 7500, now.Add(-48*time.Hour))
	createTestOrder(t, db, uuid.New(), 9999, now)

	history, err := repo.OrdersExcluding(ctx, customerID, current.ID)
	require.NoError(t, err)

	require.Len(t, history, 2)
	for _, order := range history {
		assert.NotEqual(t, current.ID, order.ID)
		assert.Equal(t, customerID, order.CustomerID)
	}
}

func TestRepoHasPermission(t *testing.T) {
	ctx := context.Background()
	db := setupAttributionTestDB(t)
	repo := NewRepo(db)

	analyst := uuid.New()
	require.NoError(t, db.Create(&models.Membership{ID: uuid.New(), UserID: analyst, Role: enums.MemberRoleAnalyst}).Error)

	ok, err := repo.HasPermission(ctx, analyst, enums.CapabilityCampaignsView)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.HasPermission(ctx, analyst, enums.CapabilityCampaignsManage)
	require.NoError(t, err)
	assert.False(t, ok)

	// No membership, no capabilities.
	ok, err = repo.HasPermission(ctx, uuid.New(), enums.CapabilityCampaignsView)
	require.NoError(t, err)
	assert.False(t, ok)
}

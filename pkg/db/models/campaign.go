package models

import (
	"time"

	"github.com/google/uuid"
)

// Campaign is a marketing campaign managed elsewhere in the product; the
// attribution engine only reads its identity.
type Campaign struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string     `gorm:"column:name;not null"`
	Status    string     `gorm:"column:status;not null;default:'active'"`
	StartsAt  *time.Time `gorm:"column:starts_at"`
	EndsAt    *time.Time `gorm:"column:ends_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default pluralization.
func (Campaign) TableName() string { return "campaigns" }

// CampaignInteraction records a customer touching a campaign (click, open,
// promo redemption). Most-recent-first reads drive attribution.
type CampaignInteraction struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CampaignID      uuid.UUID `gorm:"column:campaign_id;type:uuid;not null;index"`
	CustomerID      uuid.UUID `gorm:"column:customer_id;type:uuid;not null;index"`
	InteractionType string    `gorm:"column:interaction_type;not null"`
	OccurredAt      time.Time `gorm:"column:occurred_at;not null;index"`
	Campaign        *Campaign `gorm:"foreignKey:CampaignID"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName overrides the default pluralization.
func (CampaignInteraction) TableName() string { return "campaign_interactions" }

package models

import (
	"time"

	"github.com/google/uuid"
)

// ContentPiece is a published marketing asset (article, video, lookbook).
type ContentPiece struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title     string    `gorm:"column:title;not null"`
	Kind      string    `gorm:"column:kind;not null;default:'article'"`
	Status    string    `gorm:"column:status;not null;default:'published'"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default pluralization.
func (ContentPiece) TableName() string { return "content_pieces" }

// ContentEngagement records a customer viewing or interacting with content.
type ContentEngagement struct {
	ID             uuid.UUID     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ContentID      uuid.UUID     `gorm:"column:content_id;type:uuid;not null;index"`
	CustomerID     uuid.UUID     `gorm:"column:customer_id;type:uuid;not null;index"`
	EngagementType string        `gorm:"column:engagement_type;not null;default:'view'"`
	OccurredAt     time.Time     `gorm:"column:occurred_at;not null;index"`
	Content        *ContentPiece `gorm:"foreignKey:ContentID"`
	CreatedAt      time.Time     `gorm:"column:created_at;autoCreateTime"`
}

// TableName overrides the default pluralization.
func (ContentEngagement) TableName() string { return "content_engagements" }

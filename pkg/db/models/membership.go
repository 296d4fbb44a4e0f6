package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/brandpulse/backend/pkg/enums"
)

// Membership binds a user to the workspace with a role. Role determines
// which capabilities the user holds.
type Membership struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID        `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_memberships_user"`
	Role      enums.MemberRole `gorm:"column:role;not null;default:'viewer'"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default pluralization.
func (Membership) TableName() string { return "memberships" }

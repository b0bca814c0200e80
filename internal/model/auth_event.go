package model

import (
	"time"

	"gorm.io/datatypes"
)

// Auth event names
const (
	EventRegister       = "auth.register"
	EventLogin          = "auth.login"
	EventLockout        = "auth.lockout"
	EventRefresh        = "auth.refresh"
	EventRevoke         = "auth.revoke"
	EventResetRequest   = "auth.reset_request"
	EventResetPassword  = "auth.reset_password"
	EventChangePassword = "auth.change_password"
)

// AuthEvent is one row of the authentication audit trail
type AuthEvent struct {
	ID        string            `gorm:"column:id;type:varchar(36);primaryKey"`
	UserID    *string           `gorm:"column:user_id;type:varchar(36);index"` // nullable for unknown accounts
	Email     string            `gorm:"column:email;size:255;index"`
	Event     string            `gorm:"column:event;size:100;not null;index"`
	Success   bool              `gorm:"column:success;not null"`
	Metadata  datatypes.JSONMap `gorm:"column:metadata"`
	IP        string            `gorm:"column:ip;size:64"`
	UserAgent string            `gorm:"column:user_agent;size:255"`
	CreatedAt time.Time         `gorm:"column:created_at;index"`
}

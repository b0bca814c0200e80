package model

import (
	"time"
)

type User struct {
	Base
	FirstName             string         `gorm:"column:first_name;size:100;not null"`
	LastName              string         `gorm:"column:last_name;size:100;not null"`
	Email                 string         `gorm:"column:email;size:255;uniqueIndex;not null"`
	PasswordHash          string         `gorm:"column:password_hash;not null" json:"-"`
	IsActive              bool           `gorm:"column:is_active;default:true;not null"`
	FailedAccessCount     int            `gorm:"column:failed_access_count;default:0;not null"`
	LockoutUntil          *time.Time     `gorm:"column:lockout_until;default:null"`
	LastLogin             *time.Time     `gorm:"column:last_login;default:null"`
	RefreshTokenHash      *string        `gorm:"column:refresh_token_hash;size:64;default:null;index:idx_users_refresh_token_hash" json:"-"`
	RefreshTokenExpiresAt *time.Time     `gorm:"column:refresh_token_expires_at;default:null"`
	PrimaryOrganizationID *string        `gorm:"column:primary_organization_id;type:varchar(36);default:null"`
	Roles                 []Role         `gorm:"many2many:user_roles;"`
	Organizations         []Organization `gorm:"many2many:user_organizations;"`
}

// IsLockedOut reports whether the lockout window is still open at now
func (u *User) IsLockedOut(now time.Time) bool {
	return u.LockoutUntil != nil && u.LockoutUntil.After(now)
}

// PrimaryRole returns the first bound role name or fallback when none is bound
func (u *User) PrimaryRole(fallback string) string {
	if len(u.Roles) == 0 || u.Roles[0].Name == "" {
		return fallback
	}
	return u.Roles[0].Name
}

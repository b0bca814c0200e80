package dto

import "time"

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,max=100"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

type UserResponse struct {
	ID                    string     `json:"id"`
	FirstName             string     `json:"first_name"`
	LastName              string     `json:"last_name"`
	Email                 string     `json:"email"`
	Role                  string     `json:"role"`
	IsActive              bool       `json:"is_active"`
	IsLockedOut           bool       `json:"is_locked_out"`
	LockoutUntil          *time.Time `json:"lockout_until,omitempty"`
	LastLogin             *time.Time `json:"last_login,omitempty"`
	PrimaryOrganizationID *string    `json:"primary_organization_id,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

type AuthEventResponse struct {
	Event     string                 `json:"event"`
	Success   bool                   `json:"success"`
	IP        string                 `json:"ip,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

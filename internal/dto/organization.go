package dto

import "time"

type CreateOrganizationRequest struct {
	Name string `json:"name" binding:"required,max=200"`
	Type string `json:"type" binding:"omitempty,max=100,alphanum"`
}

type AddMemberRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

type OrganizationResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

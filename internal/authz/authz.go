package authz

import (
	"context"

	"github.com/Payphone-Digital/tracker/internal/constants"
	"github.com/Payphone-Digital/tracker/internal/service"
	ctxutil "github.com/Payphone-Digital/tracker/pkg/context"
	"github.com/Payphone-Digital/tracker/pkg/logger"
)

// Principal is the caller identity carried by a validated access token
type Principal struct {
	UserID    string
	Email     string
	FirstName string
	LastName  string
	Role      string
	TokenID   string
}

func FromClaims(claims *service.AccessClaims) *Principal {
	return &Principal{
		UserID:    claims.UserID,
		Email:     claims.Email,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
		Role:      claims.Role,
		TokenID:   claims.ID,
	}
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == constants.RoleAdmin
}

// HasRole reports whether the principal holds any of roles
func (p *Principal) HasRole(roles ...string) bool {
	if p == nil {
		return false
	}
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

type membershipReader interface {
	IsMember(ctx context.Context, userID, orgID string) (bool, error)
}

// Checker decides organization-level access
type Checker struct {
	members membershipReader
}

func NewChecker(members membershipReader) *Checker {
	return &Checker{members: members}
}

// IsAuthorized allows admins everywhere and members inside their organizations.
// A failed membership lookup denies access.
func (c *Checker) IsAuthorized(ctx context.Context, principal *Principal, orgID string) bool {
	if principal == nil {
		return false
	}
	if principal.IsAdmin() {
		return true
	}
	if principal.UserID == "" || orgID == "" {
		return false
	}

	ok, err := c.members.IsMember(ctx, principal.UserID, orgID)
	if err != nil {
		ctx = ctxutil.WithFunction(ctx, "authz", "IsAuthorized")
		logger.ErrorWithContext(ctx, "Membership lookup failed").
			String("user_id", principal.UserID).
			String("organization_id", orgID).
			Err(err).
			Log()
		return false
	}
	return ok
}

package middleware

import (
	"strings"

	"github.com/Payphone-Digital/tracker/internal/authz"
	"github.com/Payphone-Digital/tracker/internal/constants"
	apperrors "github.com/Payphone-Digital/tracker/internal/errors"
	"github.com/Payphone-Digital/tracker/internal/service"
	ctxutil "github.com/Payphone-Digital/tracker/pkg/context"
	"github.com/Payphone-Digital/tracker/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type JWTMiddleware struct {
	issuer  *service.TokenIssuer
	checker *authz.Checker
}

func NewJWTMiddleware(issuer *service.TokenIssuer, checker *authz.Checker) *JWTMiddleware {
	return &JWTMiddleware{
		issuer:  issuer,
		checker: checker,
	}
}

// BearerToken extracts the token from "Authorization: Bearer <token>"
func BearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader(constants.HeaderAuthorization)
	tokenParts := strings.SplitN(authHeader, " ", 2)
	if len(tokenParts) != 2 || !strings.EqualFold(tokenParts[0], "Bearer") || strings.TrimSpace(tokenParts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(tokenParts[1]), true
}

// RequireAuth validates the access token, expiry included, and sets the principal in context
func (m *JWTMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := BearerToken(c)
		if !ok {
			logger.GetLogger().Warn("Missing or malformed Authorization header",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method))
			abortWithError(c, apperrors.ErrUnauthorized)
			return
		}

		claims, err := m.issuer.Validate(tokenString)
		if err != nil {
			logger.GetLogger().Warn("Invalid or expired token",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
				zap.Error(err))
			abortWithError(c, apperrors.ErrUnauthorized)
			return
		}

		principal := authz.FromClaims(claims)

		// Set user information in context
		c.Set(constants.GinKeyPrincipal, principal)
		c.Set(constants.GinKeyUserID, principal.UserID)
		c.Set(constants.GinKeyRole, principal.Role)
		c.Request = c.Request.WithContext(ctxutil.WithUserID(c.Request.Context(), principal.UserID))

		logger.GetLogger().Debug("User authenticated successfully",
			zap.String("user_id", principal.UserID),
			zap.String("role", principal.Role),
			zap.String("path", c.Request.URL.Path))

		c.Next()
	}
}

// RequireRole allows only principals holding one of roles. Must run after RequireAuth.
func (m *JWTMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := GetPrincipal(c)
		if principal == nil {
			abortWithError(c, apperrors.ErrUnauthorized)
			return
		}

		if !principal.HasRole(roles...) {
			logger.GetLogger().Warn("Role not permitted",
				zap.String("user_id", principal.UserID),
				zap.String("role", principal.Role),
				zap.Strings("required", roles),
				zap.String("path", c.Request.URL.Path))
			abortWithError(c, apperrors.ErrForbidden)
			return
		}

		c.Next()
	}
}

// RequireOrganizationAccess gates routes scoped by the organization id in path param
func (m *JWTMiddleware) RequireOrganizationAccess(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := GetPrincipal(c)
		if principal == nil {
			abortWithError(c, apperrors.ErrUnauthorized)
			return
		}

		orgID := c.Param(param)
		if !m.checker.IsAuthorized(c.Request.Context(), principal, orgID) {
			logger.GetLogger().Warn("Organization access denied",
				zap.String("user_id", principal.UserID),
				zap.String("organization_id", orgID))
			abortWithError(c, apperrors.ErrForbidden)
			return
		}

		c.Next()
	}
}

// GetPrincipal returns the principal set by RequireAuth, or nil
func GetPrincipal(c *gin.Context) *authz.Principal {
	value, exists := c.Get(constants.GinKeyPrincipal)
	if !exists {
		return nil
	}
	principal, _ := value.(*authz.Principal)
	return principal
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperrors.ToHTTPStatus(err), constants.BuildResultResponse(false, apperrors.GetErrorDetails(err)))
}

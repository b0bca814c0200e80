package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Payphone-Digital/tracker/internal/authz"
	"github.com/Payphone-Digital/tracker/internal/constants"
	"github.com/Payphone-Digital/tracker/internal/dto"
	apperrors "github.com/Payphone-Digital/tracker/internal/errors"
	"github.com/Payphone-Digital/tracker/internal/middleware"
	ctxutil "github.com/Payphone-Digital/tracker/pkg/context"
	"github.com/Payphone-Digital/tracker/pkg/logger"
	"github.com/gin-gonic/gin"
)

const forgotPasswordMessage = "If the email is registered, a password reset token has been issued."

type authService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error)
	RefreshToken(ctx context.Context, accessToken, refreshToken string) (*dto.AuthResponse, error)
	RevokeToken(ctx context.Context, accessToken string) error
	GeneratePasswordResetToken(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, email, token, newPassword string) (bool, error)
	ChangePassword(ctx context.Context, userID string, req dto.ChangePasswordRequest) error
}

type profileService interface {
	GetByID(ctx context.Context, id string) (*dto.UserResponse, error)
}

type auditReader interface {
	ListForUser(ctx context.Context, userID string, limit int) ([]dto.AuthEventResponse, error)
}

type AuthHandler struct {
	authService authService
	users       profileService
	audit       auditReader
	exposeToken bool
}

// NewAuthHandler wires the session endpoints. exposeResetToken returns reset
// tokens in the forgot-password response and must stay off in production.
func NewAuthHandler(authService authService, users profileService, audit auditReader, exposeResetToken bool) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		users:       users,
		audit:       audit,
		exposeToken: exposeResetToken,
	}
}

// Register handles account creation
func (h *AuthHandler) Register(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Register")

	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnWithContext(ctx, "Invalid register request").
			Err(err).
			Log()
		respondBindError(c, err)
		return
	}

	if req.Role != "" && !authz.IsSelfAssignable(req.Role) {
		respondError(c, apperrors.WithDetails(apperrors.ErrValidationFailed, fmt.Sprintf("Role '%s' is not valid.", req.Role)))
		return
	}

	response, err := h.authService.Register(ctx, req)
	if err != nil {
		logger.WarnWithContext(ctx, "Registration failed").
			String("email", req.Email).
			Err(err).
			Log()
		c.JSON(apperrors.ToHTTPStatus(err), dto.FailedAuthResponse(apperrors.GetErrorDetails(err)...))
		return
	}

	c.JSON(http.StatusOK, response)
}

// Login handles user authentication
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Login")

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnWithContext(ctx, "Invalid login request").
			Err(err).
			Log()
		respondBindError(c, err)
		return
	}

	response, err := h.authService.Login(ctx, req)
	if err != nil {
		logger.WarnWithContext(ctx, "Login failed").
			String("email", req.Email).
			Err(err).
			Log()
		c.JSON(apperrors.ToHTTPStatus(err), dto.FailedAuthResponse(apperrors.GetErrorDetails(err)...))
		return
	}

	logger.InfoWithContext(ctx, "User logged in successfully").
		String("user_id", response.UserID).
		Log()

	c.JSON(http.StatusOK, response)
}

// RefreshToken rotates the session of an expired access token
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "RefreshToken")

	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := h.authService.RefreshToken(ctx, req.Token, req.RefreshToken)
	if err != nil {
		logger.WarnWithContext(ctx, "Token refresh failed").
			Err(err).
			Log()
		c.JSON(apperrors.ToHTTPStatus(err), dto.FailedAuthResponse(apperrors.GetErrorDetails(err)...))
		return
	}

	c.JSON(http.StatusOK, response)
}

// RevokeToken drops the refresh token of the caller. The access token may be expired.
func (h *AuthHandler) RevokeToken(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "RevokeToken")

	var req dto.RevokeTokenRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}

	token := req.Token
	if token == "" {
		token, _ = middleware.BearerToken(c)
	}
	if token == "" {
		respondError(c, apperrors.ErrInvalidToken)
		return
	}

	if err := h.authService.RevokeToken(ctx, token); err != nil {
		logger.WarnWithContext(ctx, "Token revoke failed").
			Err(err).
			Log()
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildResultResponse(true, nil))
}

// ForgotPassword issues a reset token. The response is the same for known and unknown emails.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "ForgotPassword")

	var req dto.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	token, err := h.authService.GeneratePasswordResetToken(ctx, req.Email)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to issue reset token").
			Err(err).
			Log()
		respondError(c, err)
		return
	}

	response := dto.ForgotPasswordResponse{
		Success: true,
		Errors:  []string{},
		Message: forgotPasswordMessage,
	}
	if h.exposeToken {
		response.Token = token
	}

	c.JSON(http.StatusOK, response)
}

// ResetPassword consumes a reset token and sets the new password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "ResetPassword")

	var req dto.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ok, err := h.authService.ResetPassword(ctx, req.Email, req.Token, req.NewPassword)
	if err != nil {
		respondError(c, err)
		return
	}
	if !ok {
		respondError(c, apperrors.ErrInvalidToken)
		return
	}

	c.JSON(http.StatusOK, constants.BuildResultResponse(true, nil))
}

// Me returns the profile of the caller
func (h *AuthHandler) Me(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Me")

	principal := middleware.GetPrincipal(c)
	if principal == nil {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}

	user, err := h.users.GetByID(ctx, principal.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// MyEvents lists the caller's recent auth events
func (h *AuthHandler) MyEvents(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "MyEvents")

	principal := middleware.GetPrincipal(c)
	if principal == nil {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}

	pagination := constants.ParsePaginationParams(c)
	events, err := h.audit.ListForUser(ctx, principal.UserID, pagination.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{constants.ResponseFieldData: events})
}

// ChangePassword replaces the caller's password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "ChangePassword")

	principal := middleware.GetPrincipal(c)
	if principal == nil {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.authService.ChangePassword(ctx, principal.UserID, req); err != nil {
		logger.WarnWithContext(ctx, "Change password failed").
			String("user_id", principal.UserID).
			Err(err).
			Log()
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildResultResponse(true, nil))
}

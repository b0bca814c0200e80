package handler

import (
	"context"
	"net/http"

	"github.com/Payphone-Digital/tracker/internal/constants"
	"github.com/Payphone-Digital/tracker/internal/dto"
	apperrors "github.com/Payphone-Digital/tracker/internal/errors"
	"github.com/Payphone-Digital/tracker/internal/middleware"
	ctxutil "github.com/Payphone-Digital/tracker/pkg/context"
	"github.com/Payphone-Digital/tracker/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type userAdminService interface {
	GetByID(ctx context.Context, id string) (*dto.UserResponse, error)
	GetAll(ctx context.Context, limit, offset int, search string) ([]dto.UserResponse, int64, error)
	Deactivate(ctx context.Context, actorID, id string) error
	Activate(ctx context.Context, id string) error
}

type UserHandler struct {
	userService userAdminService
}

func NewUserHandler(service userAdminService) *UserHandler {
	return &UserHandler{userService: service}
}

func (h *UserHandler) GetByID(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "GetUserByID")

	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.GetByID(ctx, id)
	if err != nil {
		logger.WarnWithContext(ctx, "Failed to fetch user").
			String("user_id", id).
			Err(err).
			Log()
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) GetAll(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "GetAllUsers")

	pagination := constants.ParsePaginationParams(c)

	logger.DebugWithContext(ctx, "List users request").
		Int("page", pagination.Page).
		Int("limit", pagination.Limit).
		String("search", pagination.Search).
		Log()

	users, total, err := h.userService.GetAll(ctx, pagination.Limit, pagination.Offset, pagination.Search)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to list users").
			Err(err).
			Log()
		respondError(c, err)
		return
	}
	if users == nil {
		users = []dto.UserResponse{}
	}

	c.JSON(http.StatusOK, constants.BuildListResponse(total, pagination.Page, pagination.PageTotal(total), users))
}

func (h *UserHandler) Deactivate(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "DeactivateUser")

	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	principal := middleware.GetPrincipal(c)
	if principal == nil {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}

	if err := h.userService.Deactivate(ctx, principal.UserID, id); err != nil {
		logger.WarnWithContext(ctx, "Failed to deactivate user").
			String("user_id", id).
			Err(err).
			Log()
		respondError(c, err)
		return
	}

	logger.InfoWithContext(ctx, "User deactivated").
		String("user_id", id).
		String("actor_id", principal.UserID).
		Log()

	c.JSON(http.StatusOK, constants.BuildResultResponse(true, nil))
}

func (h *UserHandler) Activate(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "ActivateUser")

	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.userService.Activate(ctx, id); err != nil {
		logger.WarnWithContext(ctx, "Failed to activate user").
			String("user_id", id).
			Err(err).
			Log()
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildResultResponse(true, nil))
}

// uuidParam reads a path parameter that must be a UUID, writing 400 otherwise
func uuidParam(c *gin.Context, name string) (string, bool) {
	raw := c.Param(name)
	if _, err := uuid.Parse(raw); err != nil {
		respondError(c, apperrors.WithDetails(apperrors.ErrInvalidInput, "Invalid "+name+" format."))
		return "", false
	}
	return raw, true
}

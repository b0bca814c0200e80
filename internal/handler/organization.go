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
)

type organizationService interface {
	Create(ctx context.Context, req dto.CreateOrganizationRequest) (*dto.OrganizationResponse, error)
	List(ctx context.Context, userID string, all bool, limit, offset int) ([]dto.OrganizationResponse, int64, error)
	Get(ctx context.Context, id string) (*dto.OrganizationResponse, error)
	AddMember(ctx context.Context, orgID, userID string) error
}

type OrganizationHandler struct {
	orgService organizationService
}

func NewOrganizationHandler(service organizationService) *OrganizationHandler {
	return &OrganizationHandler{orgService: service}
}

func (h *OrganizationHandler) Create(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "CreateOrganization")

	var req dto.CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnWithContext(ctx, "Invalid create organization request").
			Err(err).
			Log()
		respondBindError(c, err)
		return
	}

	org, err := h.orgService.Create(ctx, req)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.InfoWithContext(ctx, "Organization created").
		String("organization_id", org.ID).
		String("name", org.Name).
		Log()

	c.JSON(http.StatusCreated, org)
}

// List returns every organization for admins and the caller's memberships otherwise
func (h *OrganizationHandler) List(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "ListOrganizations")

	principal := middleware.GetPrincipal(c)
	if principal == nil {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}

	pagination := constants.ParsePaginationParams(c)
	orgs, total, err := h.orgService.List(ctx, principal.UserID, principal.IsAdmin(), pagination.Limit, pagination.Offset)
	if err != nil {
		respondError(c, err)
		return
	}
	if orgs == nil {
		orgs = []dto.OrganizationResponse{}
	}

	c.JSON(http.StatusOK, constants.BuildListResponse(total, pagination.Page, pagination.PageTotal(total), orgs))
}

func (h *OrganizationHandler) Get(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "GetOrganization")

	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	org, err := h.orgService.Get(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, org)
}

func (h *OrganizationHandler) AddMember(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "AddOrganizationMember")

	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req dto.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.orgService.AddMember(ctx, id, req.UserID); err != nil {
		logger.WarnWithContext(ctx, "Failed to add organization member").
			String("organization_id", id).
			String("user_id", req.UserID).
			Err(err).
			Log()
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildResultResponse(true, nil))
}

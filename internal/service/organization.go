package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Payphone-Digital/tracker/internal/dto"
	apperrors "github.com/Payphone-Digital/tracker/internal/errors"
	"github.com/Payphone-Digital/tracker/internal/model"
	ctxutil "github.com/Payphone-Digital/tracker/pkg/context"
	"github.com/Payphone-Digital/tracker/pkg/logger"
	"gorm.io/gorm"
)

type organizationRepository interface {
	Create(ctx context.Context, org *model.Organization) error
	GetByID(ctx context.Context, id string) (*model.Organization, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	List(ctx context.Context, userID string, limit, offset int) ([]model.Organization, int64, error)
	AddMember(ctx context.Context, org *model.Organization, user *model.User) error
}

type userLookup interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

type OrganizationService struct {
	repoOrg  organizationRepository
	repoUser userLookup
}

func NewOrganizationService(repoOrg organizationRepository, repoUser userLookup) *OrganizationService {
	return &OrganizationService{repoOrg: repoOrg, repoUser: repoUser}
}

func (s *OrganizationService) Create(ctx context.Context, req dto.CreateOrganizationRequest) (*dto.OrganizationResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "CreateOrganization")

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.WithDetails(apperrors.ErrValidationFailed, "Organization name is required.")
	}

	exists, err := s.repoOrg.ExistsByName(ctx, name)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if exists {
		return nil, apperrors.ErrOrganizationExists
	}

	org := &model.Organization{Name: name, Type: req.Type, IsActive: true}
	if err := s.repoOrg.Create(ctx, org); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrOrganizationExists
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	res := toOrganizationResponse(org)
	return &res, nil
}

// List returns all organizations for admins and only memberships for everyone else
func (s *OrganizationService) List(ctx context.Context, userID string, all bool, limit, offset int) ([]dto.OrganizationResponse, int64, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "ListOrganizations")

	scope := userID
	if all {
		scope = ""
	}

	orgs, total, err := s.repoOrg.List(ctx, scope, limit, offset)
	if err != nil {
		return nil, 0, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	res := make([]dto.OrganizationResponse, 0, len(orgs))
	for i := range orgs {
		res = append(res, toOrganizationResponse(&orgs[i]))
	}
	return res, total, nil
}

func (s *OrganizationService) Get(ctx context.Context, id string) (*dto.OrganizationResponse, error) {
	org, err := s.getOrganization(ctx, id)
	if err != nil {
		return nil, err
	}
	res := toOrganizationResponse(org)
	return &res, nil
}

func (s *OrganizationService) AddMember(ctx context.Context, orgID, userID string) error {
	ctx = ctxutil.WithFunction(ctx, "service", "AddMember")

	org, err := s.getOrganization(ctx, orgID)
	if err != nil {
		return err
	}

	user, err := s.repoUser.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if err := s.repoOrg.AddMember(ctx, org, user); err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "Member added to organization").
		String("organization_id", org.ID).
		String("member_id", user.ID).
		Log()
	return nil
}

func (s *OrganizationService) getOrganization(ctx context.Context, id string) (*model.Organization, error) {
	org, err := s.repoOrg.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrOrganizationMissing
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return org, nil
}

func toOrganizationResponse(org *model.Organization) dto.OrganizationResponse {
	return dto.OrganizationResponse{
		ID:        org.ID,
		Name:      org.Name,
		Type:      org.Type,
		IsActive:  org.IsActive,
		CreatedAt: org.CreatedAt,
	}
}

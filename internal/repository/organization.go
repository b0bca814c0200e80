package repository

import (
	"context"
	"time"

	"github.com/Payphone-Digital/tracker/internal/model"
	ctxutil "github.com/Payphone-Digital/tracker/pkg/context"
	"github.com/Payphone-Digital/tracker/pkg/logger"
	"gorm.io/gorm"
)

type OrganizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

func (r *OrganizationRepository) Create(ctx context.Context, org *model.Organization) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "CreateOrganization")

	start := time.Now()
	if err := r.db.WithContext(ctx).Omit("Members").Create(org).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to create organization").
			String("name", org.Name).
			Duration(time.Since(start)).
			Err(err).
			Log()
		return err
	}

	logger.InfoWithContext(ctx, "Organization created").
		String("organization_id", org.ID).
		String("name", org.Name).
		Log()
	return nil
}

func (r *OrganizationRepository) GetByID(ctx context.Context, id string) (*model.Organization, error) {
	var org model.Organization
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *OrganizationRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Organization{}).Where("name = ?", name).Count(&count).Error
	return count > 0, err
}

// List returns every organization, or only userID's memberships when userID is set
func (r *OrganizationRepository) List(ctx context.Context, userID string, limit, offset int) ([]model.Organization, int64, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "ListOrganizations")

	query := r.db.WithContext(ctx).Model(&model.Organization{})
	if userID != "" {
		query = query.
			Joins("JOIN user_organizations uo ON uo.organization_id = organizations.id").
			Where("uo.user_id = ?", userID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to count organizations").Err(err).Log()
		return nil, 0, err
	}

	var orgs []model.Organization
	if err := query.Order("organizations.name ASC").Limit(limit).Offset(offset).Find(&orgs).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to fetch organizations").Err(err).Log()
		return nil, 0, err
	}
	return orgs, total, nil
}

// AddMember joins user to org. The first organization a user joins becomes primary.
func (r *OrganizationRepository) AddMember(ctx context.Context, org *model.Organization, user *model.User) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "AddMember")

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(org).Association("Members").Append(user); err != nil {
			return err
		}
		return tx.Model(&model.User{}).
			Where("id = ? AND primary_organization_id IS NULL", user.ID).
			Update("primary_organization_id", org.ID).Error
	})
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to add organization member").
			String("organization_id", org.ID).
			String("user_id", user.ID).
			Err(err).
			Log()
		return err
	}

	logger.InfoWithContext(ctx, "Organization member added").
		String("organization_id", org.ID).
		String("user_id", user.ID).
		Log()
	return nil
}

func (r *OrganizationRepository) IsMember(ctx context.Context, userID, orgID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("user_organizations").
		Where("user_id = ? AND organization_id = ?", userID, orgID).
		Count(&count).Error
	return count > 0, err
}

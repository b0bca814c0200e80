package repository

import (
	"context"
	"strings"
	"time"

	"github.com/Payphone-Digital/tracker/internal/model"
	ctxutil "github.com/Payphone-Digital/tracker/pkg/context"
	"github.com/Payphone-Digital/tracker/pkg/logger"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "GetByID")

	// Check if context is cancelled
	if err := ctx.Err(); err != nil {
		logger.WarnWithContext(ctx, "Context cancelled before query").
			Err(err).
			Log()
		return nil, err
	}

	start := time.Now()
	var user model.User

	result := r.db.WithContext(ctx).Preload("Roles").Where("id = ?", id).First(&user)
	duration := time.Since(start)

	if result.Error != nil {
		logger.DebugWithContext(ctx, "Failed to get user by ID").
			String("user_id", id).
			Duration(duration).
			Err(result.Error).
			Log()
		return nil, result.Error
	}

	logger.DebugWithContext(ctx, "User retrieved successfully").
		String("user_id", id).
		Duration(duration).
		Log()
	return &user, nil
}

// GetByEmail finds user by email, case-insensitive
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "GetByEmail")

	start := time.Now()
	var user model.User

	result := r.db.WithContext(ctx).
		Preload("Roles").
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user)
	if result.Error != nil {
		logger.DebugWithContext(ctx, "User not found by email").
			String("email", email).
			Duration(time.Since(start)).
			Err(result.Error).
			Log()
		return nil, result.Error
	}

	return &user, nil
}

func (r *UserRepository) GetAll(ctx context.Context, limit, offset int, search string) ([]model.User, int64, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "GetAll")

	start := time.Now()
	var users []model.User
	var total int64

	query := r.db.WithContext(ctx).Model(&model.User{})

	if search != "" {
		searchPattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR email LIKE ?",
			searchPattern, searchPattern, searchPattern,
		)
	}

	if err := query.Count(&total).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to count total users").
			Err(err).
			Log()
		return nil, 0, err
	}

	if err := query.Preload("Roles").Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to fetch users").
			Int("limit", limit).
			Int("offset", offset).
			String("search", search).
			Duration(time.Since(start)).
			Err(err).
			Log()
		return nil, 0, err
	}

	logger.DebugWithContext(ctx, "Users retrieved successfully").
		Int64("total", total).
		Int("returned_count", len(users)).
		Duration(time.Since(start)).
		Log()

	return users, total, nil
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "Create")

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	start := time.Now()
	// Roles are bound separately through AddRole
	result := r.db.WithContext(ctx).Omit("Roles", "Organizations").Create(user)
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to create user").
			String("email", user.Email).
			Duration(time.Since(start)).
			Err(result.Error).
			Log()
		return result.Error
	}

	logger.InfoWithContext(ctx, "User created successfully").
		String("user_id", user.ID).
		String("email", user.Email).
		Duration(time.Since(start)).
		Log()
	return nil
}

// Update persists profile, activation and lockout columns, zero values included.
// Refresh token columns are written only by UpdateRefreshToken and SwapRefreshToken.
func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "Update")

	start := time.Now()
	result := r.db.WithContext(ctx).
		Model(&model.User{Base: model.Base{ID: user.ID}}).
		Select(
			"first_name", "last_name", "is_active",
			"failed_access_count", "lockout_until", "last_login",
		).
		Updates(user)
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to update user").
			String("user_id", user.ID).
			Duration(time.Since(start)).
			Err(result.Error).
			Log()
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id string, hashedPassword string) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "UpdatePassword")

	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"password_hash":       hashedPassword,
			"failed_access_count": 0,
			"lockout_until":       nil,
		})
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to update password").
			String("user_id", id).
			Err(result.Error).
			Log()
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	logger.InfoWithContext(ctx, "Password updated successfully").
		String("user_id", id).
		Log()
	return nil
}

// UpdateRefreshToken stores or clears (nil, nil) the refresh token state unconditionally
func (r *UserRepository) UpdateRefreshToken(ctx context.Context, id string, refreshTokenHash *string, expiresAt *time.Time) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "UpdateRefreshToken")

	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"refresh_token_hash":       refreshTokenHash,
			"refresh_token_expires_at": expiresAt,
		})
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to update refresh token").
			String("user_id", id).
			Err(result.Error).
			Log()
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// SwapRefreshToken replaces the refresh token only while oldHash is still the stored one.
// It returns false when another request rotated the token first.
func (r *UserRepository) SwapRefreshToken(ctx context.Context, id, oldHash, newHash string, expiresAt time.Time) (bool, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "SwapRefreshToken")

	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND refresh_token_hash = ?", id, oldHash).
		Updates(map[string]interface{}{
			"refresh_token_hash":       newHash,
			"refresh_token_expires_at": expiresAt,
		})
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to rotate refresh token").
			String("user_id", id).
			Err(result.Error).
			Log()
		return false, result.Error
	}

	if result.RowsAffected == 0 {
		logger.WarnWithContext(ctx, "Refresh token rotation lost the race").
			String("user_id", id).
			Log()
		return false, nil
	}
	return true, nil
}

// SetActive toggles activation. Activating also lifts any lockout.
func (r *UserRepository) SetActive(ctx context.Context, id string, active bool) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "SetActive")

	updates := map[string]interface{}{"is_active": active}
	if active {
		updates["failed_access_count"] = 0
		updates["lockout_until"] = nil
	} else {
		updates["refresh_token_hash"] = nil
		updates["refresh_token_expires_at"] = nil
	}

	result := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to change user activation").
			String("user_id", id).
			Bool("active", active).
			Err(result.Error).
			Log()
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	logger.InfoWithContext(ctx, "User activation changed").
		String("user_id", id).
		Bool("active", active).
		Log()
	return nil
}

// AddRole binds role to the user through user_roles
func (r *UserRepository) AddRole(ctx context.Context, user *model.User, role *model.Role) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "AddRole")

	if err := r.db.WithContext(ctx).Model(user).Association("Roles").Append(role); err != nil {
		logger.ErrorWithContext(ctx, "Failed to bind role").
			String("user_id", user.ID).
			String("role", role.Name).
			Err(err).
			Log()
		return err
	}
	return nil
}

// HardDelete permanently removes the user and its join rows
func (r *UserRepository) HardDelete(ctx context.Context, id string) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "HardDelete")

	start := time.Now()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM user_roles WHERE user_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM user_organizations WHERE user_id = ?", id).Error; err != nil {
			return err
		}

		result := tx.Unscoped().Where("id = ?", id).Delete(&model.User{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to delete user").
			String("user_id", id).
			Duration(time.Since(start)).
			Err(err).
			Log()
		return err
	}

	logger.InfoWithContext(ctx, "User deleted permanently").
		String("user_id", id).
		Duration(time.Since(start)).
		Log()
	return nil
}

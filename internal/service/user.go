package service

import (
	"context"
	"errors"
	"time"

	"github.com/Payphone-Digital/tracker/internal/constants"
	"github.com/Payphone-Digital/tracker/internal/dto"
	apperrors "github.com/Payphone-Digital/tracker/internal/errors"
	"github.com/Payphone-Digital/tracker/internal/model"
	ctxutil "github.com/Payphone-Digital/tracker/pkg/context"
	"github.com/Payphone-Digital/tracker/pkg/logger"
	"gorm.io/gorm"
)

type userAdminRepository interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetAll(ctx context.Context, limit, offset int, search string) ([]model.User, int64, error)
	SetActive(ctx context.Context, id string, active bool) error
}

// UserService serves account lookups and administration
type UserService struct {
	repoUser userAdminRepository
	now      func() time.Time
}

func NewUserService(repo userAdminRepository) *UserService {
	return &UserService{repoUser: repo, now: time.Now}
}

func (s *UserService) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "GetByID")

	user, err := s.repoUser.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.InfoWithContext(ctx, "User not found").
				String("user_id", id).
				Log()
			return nil, apperrors.ErrUserNotFound
		}
		logger.ErrorWithContext(ctx, "Failed to get user by ID").
			String("user_id", id).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	res := s.toResponse(user)
	return &res, nil
}

func (s *UserService) GetAll(ctx context.Context, limit, offset int, search string) ([]dto.UserResponse, int64, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "GetAll")

	users, total, err := s.repoUser.GetAll(ctx, limit, offset, search)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to get all users").
			Int("limit", limit).
			Int("offset", offset).
			String("search", search).
			Err(err).
			Log()
		return nil, 0, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	res := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		res = append(res, s.toResponse(&users[i]))
	}

	logger.InfoWithContext(ctx, "Users retrieved successfully").
		Int64("total", total).
		Int("returned_count", len(res)).
		Log()

	return res, total, nil
}

// Deactivate disables an account and drops its refresh token. Admins cannot deactivate themselves.
func (s *UserService) Deactivate(ctx context.Context, actorID, id string) error {
	ctx = ctxutil.WithFunction(ctx, "service", "Deactivate")

	if actorID == id {
		return apperrors.ErrSelfDeactivation
	}
	return s.setActive(ctx, id, false)
}

// Activate re-enables an account and lifts any lockout
func (s *UserService) Activate(ctx context.Context, id string) error {
	ctx = ctxutil.WithFunction(ctx, "service", "Activate")
	return s.setActive(ctx, id, true)
}

func (s *UserService) setActive(ctx context.Context, id string, active bool) error {
	if err := s.repoUser.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return nil
}

func (s *UserService) toResponse(user *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:                    user.ID,
		FirstName:             user.FirstName,
		LastName:              user.LastName,
		Email:                 user.Email,
		Role:                  user.PrimaryRole(constants.FallbackRole),
		IsActive:              user.IsActive,
		IsLockedOut:           user.IsLockedOut(s.now()),
		LockoutUntil:          user.LockoutUntil,
		LastLogin:             user.LastLogin,
		PrimaryOrganizationID: user.PrimaryOrganizationID,
		CreatedAt:             user.CreatedAt,
		UpdatedAt:             user.UpdatedAt,
	}
}

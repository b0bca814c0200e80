package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Payphone-Digital/tracker/internal/constants"
	apperrors "github.com/Payphone-Digital/tracker/internal/errors"
	"github.com/Payphone-Digital/tracker/internal/model"
	ctxutil "github.com/Payphone-Digital/tracker/pkg/context"
	"github.com/Payphone-Digital/tracker/pkg/logger"
	"github.com/Payphone-Digital/tracker/pkg/security"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// CredentialStore owns account records and everything secret about them.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	// Create hashes password and inserts user. Field level problems come back as
	// messages with a nil error and nothing is written.
	Create(ctx context.Context, user *model.User, password string) ([]string, error)
	Update(ctx context.Context, user *model.User) error
	CheckPassword(user *model.User, password string) bool
	AddToRole(ctx context.Context, user *model.User, role string) error
	GetRoles(ctx context.Context, user *model.User) ([]string, error)
	SetRefreshToken(ctx context.Context, user *model.User, tokenHash *string, expiresAt *time.Time) error
	SwapRefreshToken(ctx context.Context, user *model.User, oldHash, newHash string, expiresAt time.Time) (bool, error)
	GenerateUserToken(ctx context.Context, user *model.User, purpose string) (string, error)
	ResetPasswordWithToken(ctx context.Context, user *model.User, token, newPassword string) (bool, []string, error)
	ChangePassword(ctx context.Context, user *model.User, newPassword string) ([]string, error)
	Delete(ctx context.Context, user *model.User) error
}

// PurposeTokenStore keeps single-use tokens until they are consumed or expire.
type PurposeTokenStore interface {
	Save(ctx context.Context, key, value string, ttl time.Duration) error
	// Consume deletes key only if it holds value, reporting whether it did.
	Consume(ctx context.Context, key, value string) (bool, error)
}

type userRepository interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	UpdatePassword(ctx context.Context, id string, hashedPassword string) error
	UpdateRefreshToken(ctx context.Context, id string, refreshTokenHash *string, expiresAt *time.Time) error
	SwapRefreshToken(ctx context.Context, id, oldHash, newHash string, expiresAt time.Time) (bool, error)
	AddRole(ctx context.Context, user *model.User, role *model.Role) error
	HardDelete(ctx context.Context, id string) error
}

type roleRepository interface {
	GetByName(ctx context.Context, name string) (*model.Role, error)
}

type UserManagerConfig struct {
	BcryptCost    int
	ResetTokenTTL time.Duration
}

// UserManager is the gorm-backed CredentialStore.
type UserManager struct {
	users    userRepository
	roles    roleRepository
	tokens   PurposeTokenStore
	policy   *security.PasswordPolicy
	validate *validator.Validate
	cfg      UserManagerConfig
}

func NewUserManager(users userRepository, roles roleRepository, tokens PurposeTokenStore, policy *security.PasswordPolicy, cfg UserManagerConfig) *UserManager {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.ResetTokenTTL <= 0 {
		cfg.ResetTokenTTL = time.Hour
	}
	return &UserManager{
		users:    users,
		roles:    roles,
		tokens:   tokens,
		policy:   policy,
		validate: validator.New(),
		cfg:      cfg,
	}
}

// hashPassword hashes password using bcrypt
func (m *UserManager) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.cfg.BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword verifies password against the stored hash
func (m *UserManager) CheckPassword(user *model.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

// ValidatePassword returns policy violations for password
func (m *UserManager) ValidatePassword(user *model.User, password string) []string {
	return m.policy.Messages(password, user.Email, user.FirstName, user.LastName)
}

func (m *UserManager) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := m.users.GetByEmail(ctx, normalizeEmail(email))
	return user, translateNotFound(err)
}

func (m *UserManager) FindByID(ctx context.Context, id string) (*model.User, error) {
	user, err := m.users.GetByID(ctx, id)
	return user, translateNotFound(err)
}

func (m *UserManager) Create(ctx context.Context, user *model.User, password string) ([]string, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "CreateUser")

	user.Email = normalizeEmail(user.Email)

	// Collect field errors before touching the database
	var fieldErrors []string
	if err := m.validate.Var(user.Email, "required,email"); err != nil {
		fieldErrors = append(fieldErrors, fmt.Sprintf("Email '%s' is invalid.", user.Email))
	}
	fieldErrors = append(fieldErrors, m.ValidatePassword(user, password)...)
	if len(fieldErrors) > 0 {
		logger.DebugWithContext(ctx, "User creation rejected").
			String("email", user.Email).
			Strings("errors", fieldErrors).
			Log()
		return fieldErrors, nil
	}

	hash, err := m.hashPassword(password)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	user.PasswordHash = hash
	user.IsActive = true

	if err := m.users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrDuplicateEmail
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return nil, nil
}

func (m *UserManager) Update(ctx context.Context, user *model.User) error {
	if err := m.users.Update(ctx, user); err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, translateNotFound(err))
	}
	return nil
}

// AddToRole binds an existing role by name
func (m *UserManager) AddToRole(ctx context.Context, user *model.User, role string) error {
	r, err := m.roles.GetByName(ctx, role)
	if err != nil {
		return fmt.Errorf("role %q: %w", role, err)
	}
	if err := m.users.AddRole(ctx, user, r); err != nil {
		return err
	}
	user.Roles = append(user.Roles, *r)
	return nil
}

func (m *UserManager) GetRoles(ctx context.Context, user *model.User) ([]string, error) {
	if user.Roles == nil {
		fresh, err := m.users.GetByID(ctx, user.ID)
		if err != nil {
			return nil, translateNotFound(err)
		}
		user.Roles = fresh.Roles
	}

	names := make([]string, 0, len(user.Roles))
	for _, r := range user.Roles {
		names = append(names, r.Name)
	}
	return names, nil
}

func (m *UserManager) SetRefreshToken(ctx context.Context, user *model.User, tokenHash *string, expiresAt *time.Time) error {
	if err := m.users.UpdateRefreshToken(ctx, user.ID, tokenHash, expiresAt); err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	user.RefreshTokenHash = tokenHash
	user.RefreshTokenExpiresAt = expiresAt
	return nil
}

func (m *UserManager) SwapRefreshToken(ctx context.Context, user *model.User, oldHash, newHash string, expiresAt time.Time) (bool, error) {
	ok, err := m.users.SwapRefreshToken(ctx, user.ID, oldHash, newHash, expiresAt)
	if err != nil {
		return false, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if ok {
		user.RefreshTokenHash = &newHash
		user.RefreshTokenExpiresAt = &expiresAt
	}
	return ok, nil
}

// GenerateUserToken issues a single-use token for purpose, replacing any earlier one
func (m *UserManager) GenerateUserToken(ctx context.Context, user *model.User, purpose string) (string, error) {
	token, err := security.GenerateURLToken(32)
	if err != nil {
		return "", apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if err := m.tokens.Save(ctx, userTokenKey(user.ID, purpose), security.HashToken(token), m.cfg.ResetTokenTTL); err != nil {
		return "", apperrors.WrapError(apperrors.ErrServiceUnavailable, err)
	}
	return token, nil
}

// ResetPasswordWithToken checks the policy first so a rejected password does not burn the token
func (m *UserManager) ResetPasswordWithToken(ctx context.Context, user *model.User, token, newPassword string) (bool, []string, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "ResetPasswordWithToken")

	if violations := m.ValidatePassword(user, newPassword); len(violations) > 0 {
		return false, violations, nil
	}

	hash, err := m.hashPassword(newPassword)
	if err != nil {
		return false, nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	consumed, err := m.tokens.Consume(ctx, userTokenKey(user.ID, constants.TokenPurposeResetPassword), security.HashToken(token))
	if err != nil {
		return false, nil, apperrors.WrapError(apperrors.ErrServiceUnavailable, err)
	}
	if !consumed {
		logger.WarnWithContext(ctx, "Reset token rejected").
			String("user_id", user.ID).
			Log()
		return false, nil, nil
	}

	if err := m.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return false, nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	user.PasswordHash = hash
	user.FailedAccessCount = 0
	user.LockoutUntil = nil
	return true, nil, nil
}

func (m *UserManager) ChangePassword(ctx context.Context, user *model.User, newPassword string) ([]string, error) {
	if violations := m.ValidatePassword(user, newPassword); len(violations) > 0 {
		return violations, nil
	}

	hash, err := m.hashPassword(newPassword)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if err := m.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	user.PasswordHash = hash
	return nil, nil
}

// Delete removes the account permanently, used only to compensate a failed registration
func (m *UserManager) Delete(ctx context.Context, user *model.User) error {
	return m.users.HardDelete(ctx, user.ID)
}

func userTokenKey(userID, purpose string) string {
	return constants.CacheKeyUserToken + ":" + userID + ":" + purpose
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrUserNotFound
	}
	return err
}

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
	"github.com/Payphone-Digital/tracker/pkg/metrics"
	"github.com/Payphone-Digital/tracker/pkg/security"
)

type AuthServiceConfig struct {
	MaxFailedAccessAttempts int
	LockoutDuration         time.Duration
}

// AuthService runs the session lifecycle: register, login with lockout,
// refresh rotation, revocation and password reset.
type AuthService struct {
	store    CredentialStore
	issuer   *TokenIssuer
	audit    AuditRecorder
	notifier ResetNotifier
	metrics  *metrics.AuthMetrics
	cfg      AuthServiceConfig
	now      func() time.Time
}

func NewAuthService(store CredentialStore, issuer *TokenIssuer, audit AuditRecorder, notifier ResetNotifier, m *metrics.AuthMetrics, cfg AuthServiceConfig) *AuthService {
	if cfg.MaxFailedAccessAttempts <= 0 {
		cfg.MaxFailedAccessAttempts = constants.DefaultMaxFailedAccessAttempts
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = constants.DefaultLockoutMinutes * time.Minute
	}
	if audit == nil {
		audit = nopAuditRecorder{}
	}
	if notifier == nil {
		notifier = nopResetNotifier{}
	}
	return &AuthService{
		store:    store,
		issuer:   issuer,
		audit:    audit,
		notifier: notifier,
		metrics:  m,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Register creates an account bound to one role and opens its first session
func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "Register")

	role := req.Role
	if role == "" {
		role = constants.DefaultRegistrationRole
	}

	// Check email uniqueness
	if _, err := s.store.FindByEmail(ctx, req.Email); err == nil {
		s.metrics.Registration(metrics.ResultRejected)
		return nil, apperrors.ErrDuplicateEmail
	} else if !errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, s.internal(ctx, "Failed to check email uniqueness", err)
	}

	user := &model.User{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}

	fieldErrors, err := s.store.Create(ctx, user, req.Password)
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicateEmail) {
			s.metrics.Registration(metrics.ResultRejected)
			return nil, apperrors.ErrDuplicateEmail
		}
		return nil, s.internal(ctx, "Failed to create user", err)
	}
	if len(fieldErrors) > 0 {
		s.metrics.Registration(metrics.ResultRejected)
		return nil, apperrors.WithDetails(apperrors.ErrValidationFailed, fieldErrors...)
	}

	// Creation and role binding are separate writes, undo the account if binding fails
	if err := s.store.AddToRole(ctx, user, role); err != nil {
		logger.ErrorWithContext(ctx, "Role assignment failed, removing account").
			String("user_id", user.ID).
			String("role", role).
			Err(err).
			Log()

		if delErr := s.store.Delete(ctx, user); delErr != nil {
			logger.ErrorWithContext(ctx, "Compensating delete failed, account left without role").
				String("user_id", user.ID).
				Err(delErr).
				Log()
		}
		s.metrics.Registration(metrics.ResultFailure)
		return nil, apperrors.WrapError(apperrors.ErrRoleAssignment, err)
	}

	resp, err := s.issueSession(ctx, user, role)
	if err != nil {
		return nil, err
	}

	s.metrics.Registration(metrics.ResultSuccess)
	s.audit.Record(ctx, AuditEntry{UserID: user.ID, Email: user.Email, Event: model.EventRegister, Success: true,
		Metadata: map[string]interface{}{"role": role}})
	logger.InfoWithContext(ctx, "User registered").
		String("user_id", user.ID).
		String("email", user.Email).
		String("role", role).
		Log()

	return resp, nil
}

// Login authenticates by email and password, counting failures towards a lockout.
// Reaching MaxFailedAccessAttempts sets LockoutUntil and resets the failure count
// to zero, so after the window elapses the user gets a full set of attempts again.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "Login")
	now := s.now()

	user, err := s.store.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			s.loginFailed(ctx, nil, req.Email, "unknown_email")
			return nil, apperrors.ErrUserNotFound
		}
		return nil, s.internal(ctx, "Failed to load user", err)
	}

	if !user.IsActive {
		s.loginFailed(ctx, user, user.Email, "deactivated")
		return nil, apperrors.ErrAccountDeactivated
	}

	// An open lockout wins over a correct password
	if user.IsLockedOut(now) {
		s.metrics.Login(metrics.ResultLocked)
		s.audit.Record(ctx, AuditEntry{UserID: user.ID, Email: user.Email, Event: model.EventLogin,
			Metadata: map[string]interface{}{"reason": "locked_out"}})
		return nil, s.lockedError()
	}

	if !s.store.CheckPassword(user, req.Password) {
		user.FailedAccessCount++

		if user.FailedAccessCount >= s.cfg.MaxFailedAccessAttempts {
			lockoutUntil := now.Add(s.cfg.LockoutDuration)
			user.LockoutUntil = &lockoutUntil
			user.FailedAccessCount = 0
			if err := s.store.Update(ctx, user); err != nil {
				return nil, s.internal(ctx, "Failed to persist lockout", err)
			}

			s.metrics.Login(metrics.ResultLocked)
			s.metrics.Lockout()
			s.audit.Record(ctx, AuditEntry{UserID: user.ID, Email: user.Email, Event: model.EventLockout,
				Metadata: map[string]interface{}{"lockout_until": lockoutUntil}})
			logger.WarnWithContext(ctx, "Account locked after failed logins").
				String("user_id", user.ID).
				Time("lockout_until", lockoutUntil).
				Log()
			return nil, s.lockedError()
		}

		if err := s.store.Update(ctx, user); err != nil {
			return nil, s.internal(ctx, "Failed to persist failed login", err)
		}
		s.loginFailed(ctx, user, user.Email, "bad_password")
		return nil, apperrors.ErrInvalidCredentials
	}

	// Successful login resets the counter and any expired lockout
	user.FailedAccessCount = 0
	user.LockoutUntil = nil
	user.LastLogin = &now
	if err := s.store.Update(ctx, user); err != nil {
		return nil, s.internal(ctx, "Failed to record login", err)
	}

	role, err := s.primaryRole(ctx, user)
	if err != nil {
		return nil, s.internal(ctx, "Failed to load roles", err)
	}

	resp, err := s.issueSession(ctx, user, role)
	if err != nil {
		return nil, err
	}

	s.metrics.Login(metrics.ResultSuccess)
	s.audit.Record(ctx, AuditEntry{UserID: user.ID, Email: user.Email, Event: model.EventLogin, Success: true})
	logger.LogAuth(user.Email, "login", true)

	return resp, nil
}

// RefreshToken rotates the refresh token of the account named by an expired access token
func (s *AuthService) RefreshToken(ctx context.Context, accessToken, refreshToken string) (*dto.AuthResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "RefreshToken")

	claims, err := s.issuer.ParseExpired(accessToken)
	if err != nil {
		logger.WarnWithContext(ctx, "Refresh rejected, access token invalid").
			Err(err).
			Log()
		s.metrics.Refresh(metrics.ResultRejected)
		return nil, apperrors.WrapError(apperrors.ErrInvalidToken, err)
	}

	user, err := s.store.FindByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			s.refreshFailed(ctx, nil, claims.Subject, "unknown_subject")
			return nil, apperrors.ErrInvalidRefreshToken
		}
		return nil, s.internal(ctx, "Failed to load user", err)
	}

	presented := s.issuer.HashRefreshToken(refreshToken)
	if user.RefreshTokenHash == nil || !security.EqualHash(*user.RefreshTokenHash, presented) {
		s.refreshFailed(ctx, user, user.Email, "mismatch")
		return nil, apperrors.ErrInvalidRefreshToken
	}
	if user.RefreshTokenExpiresAt == nil || !user.RefreshTokenExpiresAt.After(s.now()) {
		s.refreshFailed(ctx, user, user.Email, "expired")
		return nil, apperrors.ErrInvalidRefreshToken
	}

	if !user.IsActive {
		s.refreshFailed(ctx, user, user.Email, "deactivated")
		return nil, apperrors.ErrInvalidRefreshToken
	}

	role, err := s.primaryRole(ctx, user)
	if err != nil {
		return nil, s.internal(ctx, "Failed to load roles", err)
	}

	accessTokenNew, err := s.issuer.GenerateAccessToken(user, role)
	if err != nil {
		return nil, s.internal(ctx, "Failed to sign access token", err)
	}
	refreshTokenNew, err := s.issuer.GenerateRefreshToken()
	if err != nil {
		return nil, s.internal(ctx, "Failed to generate refresh token", err)
	}

	// Conditional swap, a concurrent refresh with the same token loses here
	swapped, err := s.store.SwapRefreshToken(ctx, user, presented, s.issuer.HashRefreshToken(refreshTokenNew), s.issuer.RefreshTokenExpiresAt())
	if err != nil {
		return nil, s.internal(ctx, "Failed to rotate refresh token", err)
	}
	if !swapped {
		s.refreshFailed(ctx, user, user.Email, "concurrent_rotation")
		return nil, apperrors.ErrInvalidRefreshToken
	}

	s.metrics.Refresh(metrics.ResultSuccess)
	s.audit.Record(ctx, AuditEntry{UserID: user.ID, Email: user.Email, Event: model.EventRefresh, Success: true})

	return s.sessionResponse(user, role, accessTokenNew, refreshTokenNew), nil
}

// RevokeToken drops the stored refresh token of the account named by the access token
func (s *AuthService) RevokeToken(ctx context.Context, accessToken string) error {
	ctx = ctxutil.WithFunction(ctx, "service", "RevokeToken")

	claims, err := s.issuer.ParseExpired(accessToken)
	if err != nil {
		logger.WarnWithContext(ctx, "Revoke rejected, access token invalid").
			Err(err).
			Log()
		return apperrors.WrapError(apperrors.ErrInvalidToken, err)
	}

	user, err := s.store.FindByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return apperrors.ErrInvalidToken
		}
		return s.internal(ctx, "Failed to load user", err)
	}

	if err := s.store.SetRefreshToken(ctx, user, nil, nil); err != nil {
		return s.internal(ctx, "Failed to clear refresh token", err)
	}

	s.audit.Record(ctx, AuditEntry{UserID: user.ID, Email: user.Email, Event: model.EventRevoke, Success: true})
	logger.InfoWithContext(ctx, "Refresh token revoked").
		String("user_id", user.ID).
		Log()
	return nil
}

// GeneratePasswordResetToken returns "" with no error for unknown emails so callers
// cannot tell the two cases apart.
func (s *AuthService) GeneratePasswordResetToken(ctx context.Context, email string) (string, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "GeneratePasswordResetToken")

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			logger.InfoWithContext(ctx, "Password reset requested for unknown email").Log()
			s.audit.Record(ctx, AuditEntry{Email: normalizeEmail(email), Event: model.EventResetRequest,
				Metadata: map[string]interface{}{"reason": "unknown_email"}})
			return "", nil
		}
		return "", s.internal(ctx, "Failed to load user", err)
	}

	token, err := s.store.GenerateUserToken(ctx, user, constants.TokenPurposeResetPassword)
	if err != nil {
		return "", s.internal(ctx, "Failed to generate reset token", err)
	}

	if err := s.notifier.NotifyPasswordReset(ctx, user, token); err != nil {
		logger.ErrorWithContext(ctx, "Failed to deliver reset token").
			String("user_id", user.ID).
			Err(err).
			Log()
	}

	s.audit.Record(ctx, AuditEntry{UserID: user.ID, Email: user.Email, Event: model.EventResetRequest, Success: true})
	return token, nil
}

// ResetPassword consumes a reset token and replaces the password. Unknown emails and
// bad tokens report false with no error. Policy violations report false with
// ErrValidationFailed and leave the token usable.
func (s *AuthService) ResetPassword(ctx context.Context, email, token, newPassword string) (bool, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "ResetPassword")

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			s.metrics.Reset(metrics.ResultRejected)
			return false, nil
		}
		return false, s.internal(ctx, "Failed to load user", err)
	}

	ok, violations, err := s.store.ResetPasswordWithToken(ctx, user, token, newPassword)
	if err != nil {
		return false, s.internal(ctx, "Failed to reset password", err)
	}
	if len(violations) > 0 {
		s.metrics.Reset(metrics.ResultRejected)
		return false, apperrors.WithDetails(apperrors.ErrValidationFailed, violations...)
	}
	if !ok {
		s.metrics.Reset(metrics.ResultRejected)
		s.audit.Record(ctx, AuditEntry{UserID: user.ID, Email: user.Email, Event: model.EventResetPassword,
			Metadata: map[string]interface{}{"reason": "invalid_token"}})
		return false, nil
	}

	s.metrics.Reset(metrics.ResultSuccess)
	s.audit.Record(ctx, AuditEntry{UserID: user.ID, Email: user.Email, Event: model.EventResetPassword, Success: true})
	logger.InfoWithContext(ctx, "Password reset completed").
		String("user_id", user.ID).
		Log()
	return true, nil
}

// ChangePassword replaces the password of a signed-in account after checking the current one
func (s *AuthService) ChangePassword(ctx context.Context, userID string, req dto.ChangePasswordRequest) error {
	ctx = ctxutil.WithFunction(ctx, "service", "ChangePassword")

	// Validate new password confirmation
	if req.NewPassword != req.ConfirmPassword {
		return apperrors.ErrPasswordMismatch
	}

	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return apperrors.ErrUserNotFound
		}
		return s.internal(ctx, "Failed to load user", err)
	}

	// Verify current password
	if !s.store.CheckPassword(user, req.CurrentPassword) {
		s.audit.Record(ctx, AuditEntry{UserID: user.ID, Email: user.Email, Event: model.EventChangePassword,
			Metadata: map[string]interface{}{"reason": "incorrect_password"}})
		return apperrors.ErrIncorrectPassword
	}

	violations, err := s.store.ChangePassword(ctx, user, req.NewPassword)
	if err != nil {
		return s.internal(ctx, "Failed to change password", err)
	}
	if len(violations) > 0 {
		return apperrors.WithDetails(apperrors.ErrValidationFailed, violations...)
	}

	s.audit.Record(ctx, AuditEntry{UserID: user.ID, Email: user.Email, Event: model.EventChangePassword, Success: true})
	return nil
}

// issueSession mints and persists a fresh token pair for user
func (s *AuthService) issueSession(ctx context.Context, user *model.User, role string) (*dto.AuthResponse, error) {
	accessToken, err := s.issuer.GenerateAccessToken(user, role)
	if err != nil {
		return nil, s.internal(ctx, "Failed to sign access token", err)
	}

	refreshToken, err := s.issuer.GenerateRefreshToken()
	if err != nil {
		return nil, s.internal(ctx, "Failed to generate refresh token", err)
	}

	hash := s.issuer.HashRefreshToken(refreshToken)
	expiresAt := s.issuer.RefreshTokenExpiresAt()
	if err := s.store.SetRefreshToken(ctx, user, &hash, &expiresAt); err != nil {
		return nil, s.internal(ctx, "Failed to store refresh token", err)
	}

	return s.sessionResponse(user, role, accessToken, refreshToken), nil
}

func (s *AuthService) sessionResponse(user *model.User, role, accessToken, refreshToken string) *dto.AuthResponse {
	return &dto.AuthResponse{
		Success:      true,
		Errors:       []string{},
		Token:        accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.issuer.AccessTokenTTL().Seconds()),
		UserID:       user.ID,
		Email:        user.Email,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Role:         role,
	}
}

func (s *AuthService) primaryRole(ctx context.Context, user *model.User) (string, error) {
	roles, err := s.store.GetRoles(ctx, user)
	if err != nil {
		return "", err
	}
	if len(roles) == 0 {
		return constants.FallbackRole, nil
	}
	return roles[0], nil
}

func (s *AuthService) lockedError() *apperrors.DomainError {
	return apperrors.LockedError(int(s.cfg.LockoutDuration.Minutes()))
}

func (s *AuthService) loginFailed(ctx context.Context, user *model.User, email, reason string) {
	s.metrics.Login(metrics.ResultFailure)

	entry := AuditEntry{Email: normalizeEmail(email), Event: model.EventLogin, Metadata: map[string]interface{}{"reason": reason}}
	if user != nil {
		entry.UserID = user.ID
		entry.Metadata["failed_access_count"] = user.FailedAccessCount
	}
	s.audit.Record(ctx, entry)
	logger.LogAuth(entry.Email, "login", false)
}

func (s *AuthService) refreshFailed(ctx context.Context, user *model.User, email, reason string) {
	s.metrics.Refresh(metrics.ResultRejected)

	entry := AuditEntry{Email: email, Event: model.EventRefresh, Metadata: map[string]interface{}{"reason": reason}}
	if user != nil {
		entry.UserID = user.ID
	}
	s.audit.Record(ctx, entry)
	logger.WarnWithContext(ctx, "Refresh token rejected").
		String("email", email).
		String("reason", reason).
		Log()
}

// internal logs err and hides it behind ErrInternal, domain errors pass through
func (s *AuthService) internal(ctx context.Context, message string, err error) error {
	logger.ErrorWithContext(ctx, message).
		Err(err).
		Log()

	if de := apperrors.GetDomainError(err); de != nil {
		return err
	}
	return apperrors.WrapError(apperrors.ErrInternal, err)
}

package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/Payphone-Digital/tracker/internal/model"
	"github.com/Payphone-Digital/tracker/pkg/security"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MinSecretLength is the shortest symmetric signing secret accepted.
const MinSecretLength = 32

// refreshTokenBytes is the entropy of an opaque refresh token.
const refreshTokenBytes = 32

var (
	ErrSecretTooShort       = fmt.Errorf("jwt secret must be at least %d characters", MinSecretLength)
	ErrUnsupportedAlgorithm = errors.New("unsupported jwt signing algorithm")
	ErrUnexpectedAlgorithm  = errors.New("unexpected jwt signing algorithm")
	ErrMissingSubject       = errors.New("token has no subject")
)

// AccessClaims are the claims carried by an access token
type AccessClaims struct {
	UserID    string `json:"uid"`
	Email     string `json:"email"`
	FirstName string `json:"given_name"`
	LastName  string `json:"family_name"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

type TokenIssuerConfig struct {
	Secret             string
	SigningAlgorithm   string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	Issuer             string
	Audience           string
}

// TokenIssuer signs and validates access tokens and mints opaque refresh tokens.
// The secret is fixed at construction.
type TokenIssuer struct {
	secretKey []byte
	method    *jwt.SigningMethodHMAC
	cfg       TokenIssuerConfig
	now       func() time.Time
}

func NewTokenIssuer(cfg TokenIssuerConfig) (*TokenIssuer, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, ErrSecretTooShort
	}

	var method *jwt.SigningMethodHMAC
	switch cfg.SigningAlgorithm {
	case "", "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, cfg.SigningAlgorithm)
	}

	if cfg.AccessTokenExpiry <= 0 {
		cfg.AccessTokenExpiry = time.Hour
	}
	if cfg.RefreshTokenExpiry <= 0 {
		cfg.RefreshTokenExpiry = 7 * 24 * time.Hour
	}

	return &TokenIssuer{
		secretKey: []byte(cfg.Secret),
		method:    method,
		cfg:       cfg,
		now:       time.Now,
	}, nil
}

// AccessTokenTTL is the lifetime of issued access tokens
func (s *TokenIssuer) AccessTokenTTL() time.Duration {
	return s.cfg.AccessTokenExpiry
}

// RefreshTokenExpiresAt is the expiry stored with a refresh token minted now
func (s *TokenIssuer) RefreshTokenExpiresAt() time.Time {
	return s.now().Add(s.cfg.RefreshTokenExpiry)
}

// GenerateAccessToken creates a signed access token for user acting as role
func (s *TokenIssuer) GenerateAccessToken(user *model.User, role string) (string, error) {
	now := s.now()

	claims := AccessClaims{
		UserID:    user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTokenExpiry)),
		},
	}
	if s.cfg.Issuer != "" {
		claims.Issuer = s.cfg.Issuer
	}
	if s.cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{s.cfg.Audience}
	}

	token := jwt.NewWithClaims(s.method, claims)
	tokenString, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return tokenString, nil
}

// GenerateRefreshToken creates an opaque refresh token, meaningful only with server-side state
func (s *TokenIssuer) GenerateRefreshToken() (string, error) {
	token, err := security.GenerateSecureToken(refreshTokenBytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return token, nil
}

// HashRefreshToken is the stored form of a refresh token
func (s *TokenIssuer) HashRefreshToken(token string) string {
	return security.HashToken(token)
}

// Validate fully validates an access token, expiry included
func (s *TokenIssuer) Validate(tokenString string) (*AccessClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}
	if s.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(s.cfg.Audience))
	}

	return s.parse(tokenString, opts...)
}

// ParseExpired checks signature and algorithm but deliberately skips expiry,
// refresh and revoke are only meaningful for expired access tokens.
func (s *TokenIssuer) ParseExpired(tokenString string) (*AccessClaims, error) {
	return s.parse(tokenString,
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
}

func (s *TokenIssuer) parse(tokenString string, opts ...jwt.ParserOption) (*AccessClaims, error) {
	claims := &AccessClaims{}
	token, err := jwt.NewParser(opts...).ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Algorithm substitution guard, independent of WithValidMethods
		if token.Method == nil || token.Method.Alg() != s.method.Alg() {
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedAlgorithm, token.Header["alg"])
		}
		return s.secretKey, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}
	return claims, nil
}

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/synexa/sis/internal/domain/finance"
	"github.com/synexa/sis/internal/infrastructure/config"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingTenantID  = errors.New("missing tenant_id in claims")
	ErrMissingUserID    = errors.New("missing user_id in claims")
	ErrMissingRole      = errors.New("missing role in claims")
)

// Claims are the access token claims issued by the identity service.
// Only the fields the billing core relies on are declared.
type Claims struct {
	jwt.RegisteredClaims
	TenantID     string `json:"tenant_id"`
	UserID       string `json:"user_id"`
	Username     string `json:"username,omitempty"`
	Role         string `json:"role"`
	AcademicYear string `json:"academic_year,omitempty"`
}

// Principal is the validated caller
type Principal struct {
	TenantID     uuid.UUID
	UserID       uuid.UUID
	Username     string
	Role         finance.Role
	AcademicYear string
	TokenID      string
	ExpiresAt    time.Time
}

// JWTService validates HS256 access tokens. Tokens are issued elsewhere;
// Sign exists for tooling and tests.
type JWTService struct {
	secret []byte
	issuer string
	leeway time.Duration
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		leeway: cfg.Leeway,
	}
}

// Validate parses tokenString and returns the caller it identifies
func (s *JWTService) Validate(tokenString string) (*Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(s.leeway),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return nil, ErrTokenNotYetValid
	case err != nil:
		return nil, ErrInvalidToken
	}
	return claims.principal()
}

func (c *Claims) principal() (*Principal, error) {
	if c.TenantID == "" {
		return nil, ErrMissingTenantID
	}
	if c.UserID == "" {
		return nil, ErrMissingUserID
	}
	if c.Role == "" {
		return nil, ErrMissingRole
	}
	tenantID, err := uuid.Parse(c.TenantID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	userID, err := uuid.Parse(c.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	p := &Principal{
		TenantID:     tenantID,
		UserID:       userID,
		Username:     c.Username,
		Role:         finance.ParseRole(c.Role),
		AcademicYear: c.AcademicYear,
		TokenID:      c.ID,
	}
	if c.ExpiresAt != nil {
		p.ExpiresAt = c.ExpiresAt.Time
	}
	return p, nil
}

// Sign issues a token for p valid for ttl from now
func (s *JWTService) Sign(p Principal, now time.Time, ttl time.Duration) (string, error) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   p.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TenantID:     p.TenantID.String(),
		UserID:       p.UserID.String(),
		Username:     p.Username,
		Role:         string(p.Role),
		AcademicYear: p.AcademicYear,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

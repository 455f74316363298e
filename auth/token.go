package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/talos-contractor/AI-Workforce-Governance-Platform/models"
)

var (
	// ErrInvalidToken is returned when the token is invalid
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when the token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrInvalidIssuer is returned when the token issuer is invalid
	ErrInvalidIssuer = errors.New("invalid issuer")

	// ErrMissingSecret is returned when the service is constructed without a signing secret
	ErrMissingSecret = errors.New("signing secret is required")
)

// Claims represents the custom claims in the JWT token
type Claims struct {
	jwt.RegisteredClaims
	Email    string `json:"email"`
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"`
}

// ParsedClaims represents parsed and validated claims
type ParsedClaims struct {
	UserID    uuid.UUID
	TenantID  uuid.UUID
	Email     string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenService issues and validates HMAC-signed JWT tokens
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration

	now func() time.Time
}

// Config holds configuration for TokenService
type Config struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// NewTokenService creates a new JWT token service
func NewTokenService(config Config) (*TokenService, error) {
	if config.Secret == "" {
		return nil, ErrMissingSecret
	}
	if config.TTL == 0 {
		config.TTL = 24 * time.Hour
	}

	return &TokenService{
		secret: []byte(config.Secret),
		issuer: config.Issuer,
		ttl:    config.TTL,
		now:    time.Now,
	}, nil
}

// Issue creates a signed token for a user
func (s *TokenService) Issue(user *models.User) (string, error) {
	now := s.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Email:    user.Email,
		TenantID: user.TenantID.String(),
		Role:     string(user.Role),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken validates a JWT token and returns parsed claims
func (s *TokenService) ValidateToken(ctx context.Context, tokenString string) (*ParsedClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (interface{}, error) {
			// Verify signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(s.now),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	// Verify issuer
	if s.issuer != "" && claims.Issuer != s.issuer {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrInvalidIssuer, s.issuer, claims.Issuer)
	}

	// Parse UUIDs
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid sub UUID: %w", err)
	}

	tenantID, err := uuid.Parse(claims.TenantID)
	if err != nil {
		return nil, fmt.Errorf("invalid tenant_id UUID: %w", err)
	}

	parsed := &ParsedClaims{
		UserID:   userID,
		TenantID: tenantID,
		Email:    claims.Email,
		Role:     claims.Role,
	}
	if claims.IssuedAt != nil {
		parsed.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		parsed.ExpiresAt = claims.ExpiresAt.Time
	}

	return parsed, nil
}

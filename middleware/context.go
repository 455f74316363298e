package middleware

import (
	"context"

	"github.com/google/uuid"
)

// Context key type to avoid collisions
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"

	// ClaimsKey is the context key for JWT claims
	ClaimsKey contextKey = "claims"

	// TenantIDKey is the context key for tenant ID
	TenantIDKey contextKey = "tenant_id"

	// UserIDKey is the context key for user ID
	UserIDKey contextKey = "user_id"

	// RoleKey is the context key for the caller's role
	RoleKey contextKey = "role"
)

// Claims represents JWT claims extracted from the token
type Claims struct {
	Sub      string `json:"sub"` // Subject (user ID)
	Email    string `json:"email"`
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"`
	Iss      string `json:"iss"` // Issuer
	Exp      int64  `json:"exp"` // Expiration
	Iat      int64  `json:"iat"` // Issued at
}

// GetRequestIDFromContext retrieves the request ID from context
func GetRequestIDFromContext(ctx context.Context) string {
	if val := ctx.Value(RequestIDKey); val != nil {
		if requestID, ok := val.(string); ok {
			return requestID
		}
	}
	return ""
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetClaimsFromContext retrieves JWT claims from context
func GetClaimsFromContext(ctx context.Context) *Claims {
	if val := ctx.Value(ClaimsKey); val != nil {
		if claims, ok := val.(*Claims); ok {
			return claims
		}
	}
	return nil
}

// WithClaims adds JWT claims to the context
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// GetTenantIDFromContext retrieves the tenant ID from context
func GetTenantIDFromContext(ctx context.Context) uuid.UUID {
	if val := ctx.Value(TenantIDKey); val != nil {
		if tenantID, ok := val.(uuid.UUID); ok {
			return tenantID
		}
	}
	return uuid.Nil
}

// WithTenantID adds a tenant ID to the context
func WithTenantID(ctx context.Context, tenantID uuid.UUID) context.Context {
	return context.WithValue(ctx, TenantIDKey, tenantID)
}

// GetUserIDFromContext retrieves the user ID from context
func GetUserIDFromContext(ctx context.Context) *uuid.UUID {
	if val := ctx.Value(UserIDKey); val != nil {
		if userID, ok := val.(*uuid.UUID); ok {
			return userID
		}
	}
	return nil
}

// WithUserID adds a user ID to the context
func WithUserID(ctx context.Context, userID *uuid.UUID) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetRoleFromContext retrieves the caller's role from context
func GetRoleFromContext(ctx context.Context) string {
	if val := ctx.Value(RoleKey); val != nil {
		if role, ok := val.(string); ok {
			return role
		}
	}
	return ""
}

// WithRole adds the caller's role to the context
func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, RoleKey, role)
}

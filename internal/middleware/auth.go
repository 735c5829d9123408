package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/dimitrije/dashboard-api/internal/models"
	"github.com/dimitrije/dashboard-api/internal/services"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

const (
	UserIDKey    = "user_id"
	UserEmailKey = "user_email"
	IdentityKey  = "identity"
)

// AccessTokenCookie lets browser page loads authenticate without a header.
const AccessTokenCookie = "access_token"

var (
	errMissingToken = errors.New("missing authorization header")
	errTokenFormat  = errors.New("invalid authorization header format")
)

// IdentityLoader resolves a user id into the current identity, or nil.
type IdentityLoader interface {
	CurrentIdentity(ctx context.Context, userID uuid.UUID) *models.User
}

func bearerToken(c *drift.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if cookie, err := c.Request.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
			return cookie.Value, nil
		}
		return "", errMissingToken
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", errTokenFormat
	}
	return parts[1], nil
}

func Auth(jwtService *services.JWTService) drift.HandlerFunc {
	return func(c *drift.Context) {
		token, err := bearerToken(c)
		if err != nil {
			c.Unauthorized(err.Error())
			return
		}

		claims, err := jwtService.ValidateAccessToken(token)
		if err != nil {
			c.Unauthorized("invalid or expired token")
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UserEmailKey, claims.Email)

		c.Next()
	}
}

// OptionalAuth records the caller when a valid token is present and lets
// anonymous requests through.
func OptionalAuth(jwtService *services.JWTService) drift.HandlerFunc {
	return func(c *drift.Context) {
		if token, err := bearerToken(c); err == nil {
			if claims, err := jwtService.ValidateAccessToken(token); err == nil {
				c.Set(UserIDKey, claims.UserID)
				c.Set(UserEmailKey, claims.Email)
			}
		}
		c.Next()
	}
}

// LoadIdentity stores the caller's identity for handlers. It never aborts;
// a missing identity means "no session".
func LoadIdentity(loader IdentityLoader) drift.HandlerFunc {
	return func(c *drift.Context) {
		if id := GetUserID(c); id != uuid.Nil {
			if user := loader.CurrentIdentity(c.Request.Context(), id); user != nil {
				c.Set(IdentityKey, user)
			}
		}
		c.Next()
	}
}

func GetUserID(c *drift.Context) uuid.UUID {
	if id, ok := c.Get(UserIDKey); ok {
		if uid, ok := id.(uuid.UUID); ok {
			return uid
		}
	}
	return uuid.Nil
}

func GetUserEmail(c *drift.Context) string {
	if email, ok := c.Get(UserEmailKey); ok {
		if e, ok := email.(string); ok {
			return e
		}
	}
	return ""
}

// GetIdentity returns nil when LoadIdentity found no session.
func GetIdentity(c *drift.Context) *models.User {
	if v, ok := c.Get(IdentityKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

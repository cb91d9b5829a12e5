package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ShubhamMishra2526/Travease-App/internal/apperror"
	"github.com/ShubhamMishra2526/Travease-App/internal/domain"
	"github.com/ShubhamMishra2526/Travease-App/internal/token"
	"github.com/ShubhamMishra2526/Travease-App/pkg/telemetry"
)

// userKey is the gin context key the authenticated user is stored under.
const userKey = "currentUser"

// AuthCookieName is the cookie the session token travels in for
// rendered pages.
const AuthCookieName = "jwt"

// loggedOutValue is the placeholder cookie value set on logout.
const loggedOutValue = "loggedout"

// TokenVerifier validates a session token and returns its claims.
type TokenVerifier interface {
	Verify(raw string) (*token.Claims, error)
}

// UserLoader fetches the account a verified token belongs to.
type UserLoader interface {
	FindByID(ctx context.Context, id string, expand ...string) (*domain.User, error)
}

// SetCurrentUser attaches an authenticated user to the request context.
func SetCurrentUser(c *gin.Context, user *domain.User) {
	c.Set(userKey, user)
}

// CurrentUser returns the authenticated user attached by RequireAuth or
// OptionalAuth, if any.
func CurrentUser(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*domain.User)
	return user, ok
}

// extractToken pulls the session token from the Authorization header or,
// failing that, the auth cookie.
func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := c.Cookie(AuthCookieName); err == nil && cookie != "" && cookie != loggedOutValue {
		return cookie
	}
	return ""
}

// resolveUser runs the shared verification chain: verify the token, load
// the account, and reject tokens issued before the last password change.
func resolveUser(c *gin.Context, verifier TokenVerifier, users UserLoader, raw string) (*domain.User, error) {
	claims, err := verifier.Verify(raw)
	if err != nil {
		return nil, err
	}

	user, err := users.FindByID(c.Request.Context(), claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.Unauthenticated("The user belonging to this token does no longer exist.")
	}

	if user.ChangedPasswordAfter(claims.IssuedAt) {
		return nil, apperror.Unauthenticated("User recently changed password! Please log in again.")
	}

	return user, nil
}

// RequireAuth rejects requests without a valid session. On success the
// account is attached to the context for handlers downstream.
func RequireAuth(verifier TokenVerifier, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := telemetry.StartSpan(c.Request.Context(), "middleware.require_auth")
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		raw := extractToken(c)
		if raw == "" {
			_ = c.Error(apperror.Unauthenticated("You are not logged in! Please log in to get access."))
			c.Abort()
			return
		}

		user, err := resolveUser(c, verifier, users, raw)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		span.SetAttributes(attribute.String("user_id", user.ID))
		SetCurrentUser(c, user)
		c.Next()
	}
}

// OptionalAuth runs the same chain as RequireAuth but never rejects the
// request. Rendered pages use it to show a login state without forcing
// one.
func OptionalAuth(verifier TokenVerifier, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := extractToken(c)
		if raw == "" {
			c.Next()
			return
		}

		user, err := resolveUser(c, verifier, users, raw)
		if err != nil {
			c.Next()
			return
		}

		SetCurrentUser(c, user)
		c.Next()
	}
}

// RequireRoles allows only users whose role is in the given list. It
// must run after RequireAuth.
func RequireRoles(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			_ = c.Error(apperror.Unauthenticated("You are not logged in! Please log in to get access."))
			c.Abort()
			return
		}

		if !user.Role.OneOf(roles...) {
			_ = c.Error(apperror.Forbidden("You do not have permission to perform this action"))
			c.Abort()
			return
		}

		c.Next()
	}
}

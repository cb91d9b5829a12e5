package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShubhamMishra2526/Travease-App/internal/domain"
	"github.com/ShubhamMishra2526/Travease-App/internal/token"
)

type stubVerifier struct {
	claims *token.Claims
	err    error
}

func (s *stubVerifier) Verify(string) (*token.Claims, error) {
	return s.claims, s.err
}

type stubUserLoader struct {
	user *domain.User
	err  error
}

func (s *stubUserLoader) FindByID(context.Context, string, ...string) (*domain.User, error) {
	return s.user, s.err
}

func authTestRouter(verifier TokenVerifier, users UserLoader, protected gin.HandlerFunc, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler(ErrorHandlerConfig{Development: false}))
	handlers := append([]gin.HandlerFunc{RequireAuth(verifier, users)}, extra...)
	handlers = append(handlers, protected)
	r.GET("/api/v1/protected", handlers...)
	return r
}

func okHandler(c *gin.Context) {
	user, _ := CurrentUser(c)
	c.JSON(http.StatusOK, gin.H{"user": user.ID})
}

func TestRequireAuthMissingToken(t *testing.T) {
	r := authTestRouter(&stubVerifier{}, &stubUserLoader{}, okHandler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/protected", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "You are not logged in! Please log in to get access.")
}

func TestRequireAuthBearerHeader(t *testing.T) {
	user := &domain.User{ID: "u1", Role: domain.RoleUser, Active: true}
	verifier := &stubVerifier{claims: &token.Claims{UserID: "u1", IssuedAt: time.Now()}}
	r := authTestRouter(verifier, &stubUserLoader{user: user}, okHandler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/protected", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user":"u1"`)
}

func TestRequireAuthCookieFallback(t *testing.T) {
	user := &domain.User{ID: "u1", Role: domain.RoleUser, Active: true}
	verifier := &stubVerifier{claims: &token.Claims{UserID: "u1", IssuedAt: time.Now()}}
	r := authTestRouter(verifier, &stubUserLoader{user: user}, okHandler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/protected", nil)
	req.AddCookie(&http.Cookie{Name: AuthCookieName, Value: "some-token"})
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAuthLoggedOutCookieIgnored(t *testing.T) {
	r := authTestRouter(&stubVerifier{}, &stubUserLoader{}, okHandler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/protected", nil)
	req.AddCookie(&http.Cookie{Name: AuthCookieName, Value: "loggedout"})
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthExpiredToken(t *testing.T) {
	verifier := &stubVerifier{err: token.ErrTokenExpired}
	r := authTestRouter(verifier, &stubUserLoader{}, okHandler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/protected", nil)
	req.Header.Set("Authorization", "Bearer stale")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Your token has expired! Please log in again.")
}

func TestRequireAuthDeletedUser(t *testing.T) {
	verifier := &stubVerifier{claims: &token.Claims{UserID: "gone", IssuedAt: time.Now()}}
	r := authTestRouter(verifier, &stubUserLoader{user: nil}, okHandler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/protected", nil)
	req.Header.Set("Authorization", "Bearer tok")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "The user belonging to this token does no longer exist.")
}

func TestRequireAuthPasswordChangedAfterIssue(t *testing.T) {
	changed := time.Now()
	user := &domain.User{ID: "u1", PasswordChangedAt: &changed, Active: true}
	verifier := &stubVerifier{claims: &token.Claims{UserID: "u1", IssuedAt: changed.Add(-time.Hour)}}
	r := authTestRouter(verifier, &stubUserLoader{user: user}, okHandler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/protected", nil)
	req.Header.Set("Authorization", "Bearer old")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "User recently changed password! Please log in again.")
}

func TestOptionalAuthInvalidTokenIsSilent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler(ErrorHandlerConfig{}))
	r.GET("/", OptionalAuth(&stubVerifier{err: token.ErrTokenInvalid}, &stubUserLoader{}), func(c *gin.Context) {
		_, loggedIn := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"loggedIn": loggedIn})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"loggedIn":false`)
}

func TestRequireRoles(t *testing.T) {
	tests := []struct {
		name     string
		role     domain.Role
		wantCode int
	}{
		{"admin allowed", domain.RoleAdmin, http.StatusOK},
		{"lead guide allowed", domain.RoleLeadGuide, http.StatusOK},
		{"plain user forbidden", domain.RoleUser, http.StatusForbidden},
		{"guide forbidden", domain.RoleGuide, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := &domain.User{ID: "u1", Role: tt.role, Active: true}
			verifier := &stubVerifier{claims: &token.Claims{UserID: "u1", IssuedAt: time.Now()}}
			r := authTestRouter(verifier, &stubUserLoader{user: user}, okHandler,
				RequireRoles(domain.RoleAdmin, domain.RoleLeadGuide))

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/protected", nil)
			req.Header.Set("Authorization", "Bearer tok")
			r.ServeHTTP(w, req)

			require.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode == http.StatusForbidden {
				assert.Contains(t, w.Body.String(), "You do not have permission to perform this action")
			}
		})
	}
}

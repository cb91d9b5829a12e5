package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShubhamMishra2526/Travease-App/internal/apperror"
	"github.com/ShubhamMishra2526/Travease-App/internal/domain"
	"github.com/ShubhamMishra2526/Travease-App/internal/middleware"
	"github.com/ShubhamMishra2526/Travease-App/internal/service"
)

// stubAuthService answers every call with fixed values.
type stubAuthService struct {
	user  *domain.User
	token string
	err   error
}

func (s *stubAuthService) Signup(context.Context, *service.SignupRequest) (*domain.User, string, error) {
	return s.user, s.token, s.err
}

func (s *stubAuthService) Login(context.Context, *service.LoginRequest) (*domain.User, string, error) {
	return s.user, s.token, s.err
}

func (s *stubAuthService) ForgotPassword(context.Context, string) error {
	return s.err
}

func (s *stubAuthService) ResetPassword(context.Context, string, *service.ResetPasswordRequest) (*domain.User, string, error) {
	return s.user, s.token, s.err
}

func (s *stubAuthService) UpdatePassword(context.Context, *domain.User, *service.UpdatePasswordRequest) (string, error) {
	return s.token, s.err
}

func authHandlerRouter(svc service.AuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(svc, time.Hour, false)
	r := gin.New()
	r.Use(middleware.ErrorHandler(middleware.ErrorHandlerConfig{}))
	r.POST("/api/v1/users/signup", h.Signup)
	r.POST("/api/v1/users/login", h.Login)
	r.GET("/api/v1/users/logout", h.Logout)
	r.POST("/api/v1/users/forgotPassword", h.ForgotPassword)
	return r
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	res := w.Result()
	defer res.Body.Close()
	for _, cookie := range res.Cookies() {
		if cookie.Name == middleware.AuthCookieName {
			return cookie
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestSignupHandler(t *testing.T) {
	svc := &stubAuthService{
		user:  &domain.User{ID: "u1", Name: "Ada", Email: "ada@example.com", Role: domain.RoleUser},
		token: "signed-token",
	}
	r := authHandlerRouter(svc)

	w := postJSON(r, "/api/v1/users/signup",
		`{"name":"Ada","email":"ada@example.com","password":"pass1234","passwordConfirm":"pass1234"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"token":"signed-token"`)
	assert.Contains(t, w.Body.String(), `"email":"ada@example.com"`)
	// Credential fields never leak into the response
	assert.NotContains(t, w.Body.String(), "password")

	cookie := sessionCookie(t, w)
	assert.Equal(t, "signed-token", cookie.Value)
	assert.True(t, cookie.HttpOnly)
}

func TestSignupHandlerInvalidBody(t *testing.T) {
	r := authHandlerRouter(&stubAuthService{})

	w := postJSON(r, "/api/v1/users/signup", `{"name":"Ada"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid input data.")
}

func TestLoginHandler(t *testing.T) {
	svc := &stubAuthService{
		user:  &domain.User{ID: "u1", Email: "ada@example.com"},
		token: "signed-token",
	}
	r := authHandlerRouter(svc)

	w := postJSON(r, "/api/v1/users/login", `{"email":"ada@example.com","password":"pass1234"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"token":"signed-token"`)
}

func TestLoginHandlerMissingCredentials(t *testing.T) {
	r := authHandlerRouter(&stubAuthService{})

	w := postJSON(r, "/api/v1/users/login", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Please provide email and password!")
}

func TestLoginHandlerRejected(t *testing.T) {
	r := authHandlerRouter(&stubAuthService{err: apperror.Unauthenticated("Incorrect email or password")})

	w := postJSON(r, "/api/v1/users/login", `{"email":"ada@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Incorrect email or password")
}

func TestLogoutHandlerOverwritesCookie(t *testing.T) {
	r := authHandlerRouter(&stubAuthService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/logout", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	cookie := sessionCookie(t, w)
	assert.Equal(t, "loggedout", cookie.Value)
	require.LessOrEqual(t, cookie.MaxAge, 10)
}

func TestForgotPasswordHandler(t *testing.T) {
	r := authHandlerRouter(&stubAuthService{})

	w := postJSON(r, "/api/v1/users/forgotPassword", `{"email":"ada@example.com"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Token sent to email!")
}

func TestForgotPasswordHandlerBadEmail(t *testing.T) {
	r := authHandlerRouter(&stubAuthService{})

	w := postJSON(r, "/api/v1/users/forgotPassword", `{"email":"not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Please provide a valid email address.")
}

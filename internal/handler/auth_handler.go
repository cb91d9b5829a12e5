package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ShubhamMishra2526/Travease-App/internal/apperror"
	"github.com/ShubhamMishra2526/Travease-App/internal/domain"
	"github.com/ShubhamMishra2526/Travease-App/internal/middleware"
	"github.com/ShubhamMishra2526/Travease-App/internal/service"
	"github.com/ShubhamMishra2526/Travease-App/pkg/response"
)

// AuthHandler handles the credential lifecycle routes.
type AuthHandler struct {
	auth      service.AuthService
	cookieTTL time.Duration
	secure    bool
}

// NewAuthHandler creates a new AuthHandler. secure controls the Secure
// attribute on the session cookie and is on in production.
func NewAuthHandler(auth service.AuthService, cookieTTL time.Duration, secure bool) *AuthHandler {
	return &AuthHandler{auth: auth, cookieTTL: cookieTTL, secure: secure}
}

// setSessionCookie mirrors the token into an httpOnly cookie so rendered
// pages authenticate without scripts ever reading the token.
func (h *AuthHandler) setSessionCookie(c *gin.Context, token string) {
	c.SetCookie(middleware.AuthCookieName, token, int(h.cookieTTL/time.Second), "/", "", h.secure, true)
}

// publicUser strips an account down to the fields responses expose.
func publicUser(u *domain.User) gin.H {
	return gin.H{
		"id":    u.ID,
		"name":  u.Name,
		"email": u.Email,
		"photo": u.Photo,
		"role":  u.Role,
	}
}

// Signup handles POST /api/v1/users/signup.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req service.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.BadRequest("Invalid input data. " + err.Error()))
		return
	}

	user, token, err := h.auth.Signup(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.setSessionCookie(c, token)
	response.WithToken(c, http.StatusCreated, token, gin.H{"user": publicUser(user)})
}

// Login handles POST /api/v1/users/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.BadRequest("Please provide email and password!"))
		return
	}

	user, token, err := h.auth.Login(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.setSessionCookie(c, token)
	response.WithToken(c, http.StatusOK, token, gin.H{"user": publicUser(user)})
}

// Logout handles GET /api/v1/users/logout by overwriting the session
// cookie with a short-lived placeholder.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(middleware.AuthCookieName, "loggedout", int((10 * time.Second).Seconds()), "/", "", h.secure, true)
	response.OK(c, nil)
}

// ForgotPassword handles POST /api/v1/users/forgotPassword.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.BadRequest("Please provide a valid email address."))
		return
	}

	if err := h.auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		_ = c.Error(err)
		return
	}

	response.Message(c, "Token sent to email!")
}

// ResetPassword handles PATCH /api/v1/users/resetPassword/:token.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req service.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.BadRequest("Invalid input data. " + err.Error()))
		return
	}

	user, token, err := h.auth.ResetPassword(c.Request.Context(), c.Param("token"), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.setSessionCookie(c, token)
	response.WithToken(c, http.StatusOK, token, gin.H{"user": publicUser(user)})
}

// UpdatePassword handles PATCH /api/v1/users/updateMyPassword.
func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var req service.UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.BadRequest("Invalid input data. " + err.Error()))
		return
	}

	token, err := h.auth.UpdatePassword(c.Request.Context(), user, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.setSessionCookie(c, token)
	response.WithToken(c, http.StatusOK, token, gin.H{"user": publicUser(user)})
}

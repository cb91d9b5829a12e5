package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/ShubhamMishra2526/Travease-App/internal/apperror"
	"github.com/ShubhamMishra2526/Travease-App/internal/domain"
	"github.com/ShubhamMishra2526/Travease-App/internal/middleware"
	"github.com/ShubhamMishra2526/Travease-App/internal/repository"
	"github.com/ShubhamMishra2526/Travease-App/pkg/response"
)

// UserHandler handles account routes: the self-service "me" endpoints
// plus admin CRUD through the generic resource.
type UserHandler struct {
	Resource *Resource[domain.User]
	users    repository.UserRepository
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users repository.UserRepository) *UserHandler {
	return &UserHandler{
		Resource: &Resource[domain.User]{
			Name:   "user",
			Plural: "users",
			Schema: repository.UserSchema,
			Store:  userStore{users},
		},
		users: users,
	}
}

// userStore adapts UserRepository to the generic store. Creation goes
// through signup only, and admin deletes deactivate instead of removing
// the row.
type userStore struct {
	repository.UserRepository
}

func (userStore) Create(context.Context, *domain.User) error {
	return apperror.Internal("This route is not defined! Please use /signup instead")
}

func (s userStore) DeleteByID(ctx context.Context, id string) error {
	return s.Deactivate(ctx, id)
}

// GetMe handles GET /api/v1/users/me by answering with the session's
// own account.
func (h *UserHandler) GetMe(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	response.OK(c, gin.H{"user": publicUser(user)})
}

// UpdateMe handles PATCH /api/v1/users/updateMe. Only profile fields
// pass through; password updates have their own route.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		_ = c.Error(apperror.BadRequest("Invalid input data. " + err.Error()))
		return
	}
	if _, ok := body["password"]; ok {
		_ = c.Error(apperror.BadRequest("This route is not for password updates. Please use /updateMyPassword."))
		return
	}
	if _, ok := body["passwordConfirm"]; ok {
		_ = c.Error(apperror.BadRequest("This route is not for password updates. Please use /updateMyPassword."))
		return
	}

	// Only these profile fields are updatable by the account itself
	patch := make(map[string]interface{})
	for _, field := range []string{"name", "email", "photo"} {
		if v, ok := body[field]; ok {
			patch[field] = v
		}
	}

	updated, err := h.users.UpdateByID(c.Request.Context(), user.ID, patch)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if updated == nil {
		_ = c.Error(apperror.NotFound("No document found with that ID"))
		return
	}

	response.OK(c, gin.H{"user": publicUser(updated)})
}

// DeleteMe handles DELETE /api/v1/users/deleteMe by deactivating the
// account. The row stays; reads stop returning it.
func (h *UserHandler) DeleteMe(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	if err := h.users.Deactivate(c.Request.Context(), user.ID); err != nil {
		_ = c.Error(err)
		return
	}

	response.NoContent(c)
}

// CreateUser handles POST /api/v1/users, which accounts never go
// through. Signup is the only way in.
func (h *UserHandler) CreateUser(c *gin.Context) {
	_ = c.Error(apperror.Internal("This route is not defined! Please use /signup instead"))
}

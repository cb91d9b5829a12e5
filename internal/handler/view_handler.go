package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/ShubhamMishra2526/Travease-App/internal/apperror"
	"github.com/ShubhamMishra2526/Travease-App/internal/middleware"
	"github.com/ShubhamMishra2526/Travease-App/internal/query"
	"github.com/ShubhamMishra2526/Travease-App/internal/repository"
	"github.com/ShubhamMishra2526/Travease-App/internal/view"
)

// ViewHandler renders the server-side pages. Routes run behind
// OptionalAuth so the header reflects the session without requiring one.
type ViewHandler struct {
	renderer *view.Renderer
	tours    repository.TourRepository
	bookings repository.BookingRepository
}

// NewViewHandler creates a new ViewHandler.
func NewViewHandler(renderer *view.Renderer, tours repository.TourRepository, bookings repository.BookingRepository) *ViewHandler {
	return &ViewHandler{renderer: renderer, tours: tours, bookings: bookings}
}

// Overview handles GET / with all tours.
func (h *ViewHandler) Overview(c *gin.Context) {
	q, err := query.Parse(url.Values{}, repository.TourSchema)
	if err != nil {
		_ = c.Error(err)
		return
	}

	tours, _, err := h.tours.Find(c.Request.Context(), q)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.renderer.Render(c, http.StatusOK, "overview", "All Tours", gin.H{"tours": tours})
}

// Tour handles GET /tour/:slug with the full tour detail.
func (h *ViewHandler) Tour(c *gin.Context) {
	tour, err := h.tours.FindBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	if tour == nil {
		_ = c.Error(apperror.NotFound("There is no tour with that name."))
		return
	}

	h.renderer.Render(c, http.StatusOK, "tour", tour.Name+" Tour", gin.H{"tour": tour})
}

// Login handles GET /login.
func (h *ViewHandler) Login(c *gin.Context) {
	h.renderer.Render(c, http.StatusOK, "login", "Log into your account", nil)
}

// Account handles GET /me for the logged-in user.
func (h *ViewHandler) Account(c *gin.Context) {
	h.renderer.Render(c, http.StatusOK, "account", "Your account", nil)
}

// MyTours handles GET /my-tours with the tours the user has booked.
func (h *ViewHandler) MyTours(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	tours, err := h.bookings.FindToursForUser(c.Request.Context(), user.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.renderer.Render(c, http.StatusOK, "overview", "My Tours", gin.H{"tours": tours})
}

package handler

import (
	"fmt"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/ShubhamMishra2526/Travease-App/internal/apperror"
	"github.com/ShubhamMishra2526/Travease-App/internal/domain"
	"github.com/ShubhamMishra2526/Travease-App/internal/middleware"
	"github.com/ShubhamMishra2526/Travease-App/internal/repository"
	"github.com/ShubhamMishra2526/Travease-App/internal/service"
	"github.com/ShubhamMishra2526/Travease-App/pkg/response"
)

// BookingHandler handles booking routes: the checkout flow plus admin
// CRUD through the generic resource.
type BookingHandler struct {
	Resource *Resource[domain.Booking]
	bookings service.BookingService
	baseURL  string
}

// NewBookingHandler creates a new BookingHandler. baseURL is the public
// origin checkout redirect URLs are built against.
func NewBookingHandler(bookings service.BookingService, repo repository.BookingRepository, baseURL string) *BookingHandler {
	return &BookingHandler{
		Resource: &Resource[domain.Booking]{
			Name:   "booking",
			Plural: "bookings",
			Schema: repository.BookingSchema,
			Store:  repo,
		},
		bookings: bookings,
		baseURL:  baseURL,
	}
}

// GetCheckoutSession handles GET /api/v1/bookings/checkout-session/:tourId.
func (h *BookingHandler) GetCheckoutSession(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	session, err := h.bookings.Checkout(c.Request.Context(), c.Param("tourId"), user,
		fmt.Sprintf("%s/my-tours", h.baseURL),
		fmt.Sprintf("%s/", h.baseURL),
	)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.OK(c, gin.H{"session": session})
}

// WebhookCheckout handles POST /webhook-checkout from the payment
// provider. The raw body is needed for signature verification, so this
// route must not run through any body-consuming middleware.
func (h *BookingHandler) WebhookCheckout(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		_ = c.Error(apperror.BadRequest("Could not read webhook payload"))
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if err := h.bookings.CompleteCheckout(c.Request.Context(), payload, signature); err != nil {
		_ = c.Error(err)
		return
	}

	response.OK(c, gin.H{"received": true})
}

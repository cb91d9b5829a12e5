package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ShubhamMishra2526/Travease-App/internal/apperror"
	"github.com/ShubhamMishra2526/Travease-App/internal/domain"
	"github.com/ShubhamMishra2526/Travease-App/internal/gateway"
	"github.com/ShubhamMishra2526/Travease-App/internal/metrics"
	"github.com/ShubhamMishra2526/Travease-App/internal/repository"
	"github.com/ShubhamMishra2526/Travease-App/pkg/telemetry"
)

// BookingService drives the paid booking flow: opening a checkout
// session for a tour and turning the provider's completion webhook into
// a booking row.
type BookingService interface {
	Checkout(ctx context.Context, tourID string, user *domain.User, successURL, cancelURL string) (*domain.CheckoutSession, error)
	CompleteCheckout(ctx context.Context, payload []byte, signature string) error
}

// bookingService implements BookingService.
type bookingService struct {
	bookings repository.BookingRepository
	tours    repository.TourRepository
	users    repository.UserRepository
	gateway  gateway.PaymentGateway
	metrics  *metrics.App
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	bookings repository.BookingRepository,
	tours repository.TourRepository,
	users repository.UserRepository,
	pg gateway.PaymentGateway,
	m *metrics.App,
) BookingService {
	return &bookingService{
		bookings: bookings,
		tours:    tours,
		users:    users,
		gateway:  pg,
		metrics:  m,
	}
}

// Checkout opens a checkout session for one tour on behalf of the
// logged-in user.
func (s *bookingService) Checkout(ctx context.Context, tourID string, user *domain.User, successURL, cancelURL string) (*domain.CheckoutSession, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.checkout")
	defer span.End()
	span.SetAttributes(
		attribute.String("tour_id", tourID),
		attribute.String("user_id", user.ID),
	)

	tour, err := s.tours.FindByID(ctx, tourID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if tour == nil {
		return nil, apperror.NotFound("No tour found with that ID")
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, &gateway.CheckoutRequest{
		Tour:       tour,
		UserID:     user.ID,
		UserEmail:  user.Email,
		SuccessURL: successURL,
		CancelURL:  cancelURL,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return session, nil
}

// CompleteCheckout verifies a provider webhook and records the paid
// booking it describes. Events the flow does not care about are
// acknowledged without effect.
func (s *bookingService) CompleteCheckout(ctx context.Context, payload []byte, signature string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.complete_checkout")
	defer span.End()

	checkout, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return apperror.BadRequest("Webhook error: " + err.Error())
	}
	if checkout == nil {
		return nil
	}

	user, err := s.users.FindByEmail(ctx, checkout.UserEmail)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if user == nil {
		return apperror.BadRequest("No user found for checkout email")
	}

	booking := &domain.Booking{
		TourID: checkout.TourID,
		UserID: user.ID,
		Price:  checkout.Amount,
		Paid:   true,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	s.metrics.Bookings.Inc(ctx)
	return nil
}

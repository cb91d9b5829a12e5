package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/ShubhamMishra2526/Travease-App/internal/domain"
)

// StripeGateway implements PaymentGateway using Stripe hosted checkout.
type StripeGateway struct {
	config *StripeGatewayConfig
}

// StripeGatewayConfig holds configuration for the Stripe gateway.
type StripeGatewayConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
}

// NewStripeGateway creates a new Stripe gateway.
func NewStripeGateway(config *StripeGatewayConfig) (*StripeGateway, error) {
	if config == nil {
		return nil, fmt.Errorf("stripe config is required")
	}
	if config.SecretKey == "" {
		return nil, fmt.Errorf("stripe secret key is required")
	}
	if config.Currency == "" {
		config.Currency = "usd"
	}

	stripe.Key = config.SecretKey

	return &StripeGateway{config: config}, nil
}

// CreateCheckoutSession opens a hosted checkout session for one tour.
// The tour and user ride along as references so the completion webhook
// can create the booking.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req *CheckoutRequest) (*domain.CheckoutSession, error) {
	// Stripe amounts are in the smallest currency unit
	amount := int64(req.Tour.Price * 100)

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		CustomerEmail:     stripe.String(req.UserEmail),
		ClientReferenceID: stripe.String(req.Tour.ID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(g.config.Currency),
					UnitAmount: stripe.Int64(amount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(fmt.Sprintf("%s Tour", req.Tour.Name)),
						Description: stripe.String(req.Tour.Summary),
					},
				},
			},
		},
	}
	params.Context = ctx

	s, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return &domain.CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// ParseWebhook verifies a webhook signature and extracts the completed
// checkout, or returns (nil, nil) for event types the booking flow
// ignores.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*WebhookCheckout, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.config.WebhookSecret)
	if err != nil {
		return nil, fmt.Errorf("webhook signature verification failed: %w", err)
	}

	if event.Type != "checkout.session.completed" {
		return nil, nil
	}

	var s stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
		return nil, fmt.Errorf("failed to decode checkout session: %w", err)
	}

	out := &WebhookCheckout{
		TourID: s.ClientReferenceID,
		Amount: float64(s.AmountTotal) / 100,
	}
	if s.CustomerEmail != "" {
		out.UserEmail = s.CustomerEmail
	} else if s.CustomerDetails != nil {
		out.UserEmail = s.CustomerDetails.Email
	}
	return out, nil
}

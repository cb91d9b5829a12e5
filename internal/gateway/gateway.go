// Package gateway abstracts the payment provider behind a small
// interface so handlers and tests never touch provider SDK types.
package gateway

import (
	"context"

	"github.com/ShubhamMishra2526/Travease-App/internal/domain"
)

// CheckoutRequest describes one tour purchase to open a hosted checkout
// session for.
type CheckoutRequest struct {
	Tour       *domain.Tour
	UserID     string
	UserEmail  string
	SuccessURL string
	CancelURL  string
}

// WebhookCheckout is the subset of a completed checkout event the
// booking flow needs.
type WebhookCheckout struct {
	TourID    string
	UserEmail string
	// Amount is in the major currency unit
	Amount float64
}

// PaymentGateway opens checkout sessions and verifies completion
// webhooks.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req *CheckoutRequest) (*domain.CheckoutSession, error)
	ParseWebhook(payload []byte, signature string) (*WebhookCheckout, error)
}

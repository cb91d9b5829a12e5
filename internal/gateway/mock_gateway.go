package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/ShubhamMishra2526/Travease-App/internal/domain"
)

// MockGateway is an in-process stand-in for development and tests. It
// never talks to a payment provider; checkout URLs point straight at the
// success URL and webhooks are accepted unsigned.
type MockGateway struct {
	counter atomic.Int64
}

// NewMockGateway creates a MockGateway.
func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

// CreateCheckoutSession returns a synthetic session whose URL is the
// success URL, so the purchase flow completes immediately.
func (g *MockGateway) CreateCheckoutSession(_ context.Context, req *CheckoutRequest) (*domain.CheckoutSession, error) {
	id := fmt.Sprintf("mock_cs_%d", g.counter.Add(1))
	return &domain.CheckoutSession{ID: id, URL: req.SuccessURL}, nil
}

// ParseWebhook decodes the payload as a WebhookCheckout without any
// signature verification.
func (g *MockGateway) ParseWebhook(payload []byte, _ string) (*WebhookCheckout, error) {
	var out WebhookCheckout
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("failed to decode mock webhook: %w", err)
	}
	return &out, nil
}

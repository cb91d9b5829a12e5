package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShubhamMishra2526/Travease-App/internal/domain"
)

func TestMockGatewayCheckoutSession(t *testing.T) {
	g := NewMockGateway()
	tour := &domain.Tour{ID: "tour-1", Name: "The Forest Hiker", Price: 497}

	first, err := g.CreateCheckoutSession(context.Background(), &CheckoutRequest{
		Tour:       tour,
		UserID:     "user-1",
		UserEmail:  "ada@example.com",
		SuccessURL: "http://localhost/my-tours",
		CancelURL:  "http://localhost/",
	})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost/my-tours", first.URL)

	second, err := g.CreateCheckoutSession(context.Background(), &CheckoutRequest{Tour: tour, SuccessURL: "s"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestMockGatewayParseWebhook(t *testing.T) {
	g := NewMockGateway()

	checkout, err := g.ParseWebhook([]byte(`{"TourID":"tour-1","UserEmail":"ada@example.com","Amount":497}`), "")
	require.NoError(t, err)
	assert.Equal(t, "tour-1", checkout.TourID)
	assert.Equal(t, "ada@example.com", checkout.UserEmail)
	assert.Equal(t, float64(497), checkout.Amount)

	_, err = g.ParseWebhook([]byte("not json"), "")
	assert.Error(t, err)
}

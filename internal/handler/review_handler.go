package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/ShubhamMishra2526/Travease-App/internal/domain"
	"github.com/ShubhamMishra2526/Travease-App/internal/middleware"
	"github.com/ShubhamMishra2526/Travease-App/internal/query"
	"github.com/ShubhamMishra2526/Travease-App/internal/repository"
)

// ReviewHandler handles review routes, mounted both standalone and
// nested under a tour. After any committed write the owning tour's
// rating aggregates are recomputed.
type ReviewHandler struct {
	Resource *Resource[domain.Review]
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(reviews repository.ReviewRepository) *ReviewHandler {
	return &ReviewHandler{
		Resource: &Resource[domain.Review]{
			Name:   "review",
			Plural: "reviews",
			Schema: repository.ReviewSchema,
			Store:  reviews,
			Scope: func(c *gin.Context, q *query.Query) *query.Query {
				// Nested under /tours/:id the param is the tour
				if tourID := c.Param("id"); tourID != "" {
					return q.Scope("tour", tourID)
				}
				return q
			},
			Defaults: func(c *gin.Context, doc *domain.Review) {
				// Nested route and session win over body values
				if tourID := c.Param("id"); tourID != "" {
					doc.TourID = tourID
				}
				if user, ok := middleware.CurrentUser(c); ok {
					doc.UserID = user.ID
				}
			},
			AfterWrite: func(ctx context.Context, doc *domain.Review) error {
				return reviews.RecalcTourRatings(ctx, doc.TourID)
			},
			AfterDelete: func(ctx context.Context, doc *domain.Review) error {
				return reviews.RecalcTourRatings(ctx, doc.TourID)
			},
		},
	}
}

package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ShubhamMishra2526/Travease-App/internal/apperror"
	"github.com/ShubhamMishra2526/Travease-App/internal/domain"
	"github.com/ShubhamMishra2526/Travease-App/internal/query"
	"github.com/ShubhamMishra2526/Travease-App/internal/repository"
	"github.com/ShubhamMishra2526/Travease-App/pkg/response"
)

// TourHandler handles tour routes: generic CRUD plus the aggregation
// endpoints.
type TourHandler struct {
	Resource *Resource[domain.Tour]
	tours    repository.TourRepository
}

// NewTourHandler creates a new TourHandler.
func NewTourHandler(tours repository.TourRepository) *TourHandler {
	return &TourHandler{
		Resource: &Resource[domain.Tour]{
			Name:   "tour",
			Plural: "tours",
			Schema: repository.TourSchema,
			Store:  tours,
			Expand: []string{"guides", "reviews"},
			// Secret tours never show up in public listings
			Scope: func(_ *gin.Context, q *query.Query) *query.Query {
				return q.Scope("secretTour", false)
			},
		},
		tours: tours,
	}
}

// AliasTopTours presets the query string for the top-5-cheap listing
// before the generic GetAll runs.
func (h *TourHandler) AliasTopTours(c *gin.Context) {
	q := c.Request.URL.Query()
	q.Set("limit", "5")
	q.Set("sort", "-ratingsAverage,price")
	q.Set("fields", "name,price,ratingsAverage,summary,difficulty")
	c.Request.URL.RawQuery = q.Encode()
	c.Next()
}

// Unit conversions for the geospatial endpoints. Distances are computed
// in kilometres and converted at the edge.
const (
	kmPerMile  = 1.609344
	milesPerKm = 0.621371
)

// parseLatLng splits a "lat,lng" route segment.
func parseLatLng(raw string) (float64, float64, error) {
	parts := strings.SplitN(raw, ",", 2)
	if len(parts) != 2 {
		return 0, 0, apperror.BadRequest("Please provide latitude and longitude in the format lat,lng.")
	}
	lat, latErr := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, lngErr := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if latErr != nil || lngErr != nil {
		return 0, 0, apperror.BadRequest("Please provide latitude and longitude in the format lat,lng.")
	}
	return lat, lng, nil
}

// GetToursWithin handles
// GET /api/v1/tours/tours-within/:distance/center/:latlng/unit/:unit.
// The distance is interpreted in the given unit ("mi" or "km").
func (h *TourHandler) GetToursWithin(c *gin.Context) {
	distance, err := strconv.ParseFloat(c.Param("distance"), 64)
	if err != nil || distance < 0 {
		_ = c.Error(apperror.BadRequest("Please provide a numeric distance."))
		return
	}
	lat, lng, err := parseLatLng(c.Param("latlng"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	radiusKm := distance
	if c.Param("unit") == "mi" {
		radiusKm = distance * kmPerMile
	}

	tours, err := h.tours.Within(c.Request.Context(), lat, lng, radiusKm)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.List(c, gin.H{"tours": tours}, len(tours))
}

// GetDistances handles GET /api/v1/tours/distances/:latlng/:unit,
// reporting each tour's distance from the point, nearest first.
func (h *TourHandler) GetDistances(c *gin.Context) {
	lat, lng, err := parseLatLng(c.Param("latlng"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	multiplier := 1.0
	if c.Param("unit") == "mi" {
		multiplier = milesPerKm
	}

	distances, err := h.tours.Distances(c.Request.Context(), lat, lng, multiplier)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.OK(c, gin.H{"distances": distances})
}

// GetTourStats handles GET /api/v1/tours/tour-stats.
func (h *TourHandler) GetTourStats(c *gin.Context) {
	stats, err := h.tours.Stats(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.OK(c, gin.H{"stats": stats})
}

// GetMonthlyPlan handles GET /api/v1/tours/monthly-plan/:year.
func (h *TourHandler) GetMonthlyPlan(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		_ = c.Error(apperror.BadRequest("Invalid year"))
		return
	}

	plan, err := h.tours.MonthlyPlan(c.Request.Context(), year)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.OK(c, gin.H{"plan": plan})
}

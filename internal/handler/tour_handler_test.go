package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShubhamMishra2526/Travease-App/internal/domain"
	"github.com/ShubhamMishra2526/Travease-App/internal/middleware"
	"github.com/ShubhamMishra2526/Travease-App/internal/query"
	"github.com/ShubhamMishra2526/Travease-App/internal/repository"
)

// mockTourRepo serves tours from memory and records the listing query
// it was handed.
type mockTourRepo struct {
	byID          map[string]*domain.Tour
	lastQuery     *query.Query
	stats         []repository.TourStats
	plan          []repository.MonthlyPlanEntry
	distances     []repository.TourDistance
	withinArgs    []float64
	distancesArgs []float64
}

func newMockTourRepo() *mockTourRepo {
	return &mockTourRepo{byID: map[string]*domain.Tour{}}
}

func (m *mockTourRepo) Create(_ context.Context, tour *domain.Tour) error {
	tour.ID = uuid.NewString()
	m.byID[tour.ID] = tour
	return nil
}

func (m *mockTourRepo) FindByID(_ context.Context, id string, _ ...string) (*domain.Tour, error) {
	return m.byID[id], nil
}

func (m *mockTourRepo) FindBySlug(context.Context, string) (*domain.Tour, error) {
	return nil, nil
}

func (m *mockTourRepo) Find(_ context.Context, q *query.Query) ([]domain.Tour, int, error) {
	m.lastQuery = q
	var out []domain.Tour
	for _, t := range m.byID {
		out = append(out, *t)
	}
	return out, len(out), nil
}

func (m *mockTourRepo) UpdateByID(_ context.Context, id string, _ map[string]interface{}) (*domain.Tour, error) {
	return m.byID[id], nil
}

func (m *mockTourRepo) DeleteByID(_ context.Context, id string) error {
	delete(m.byID, id)
	return nil
}

func (m *mockTourRepo) Stats(context.Context) ([]repository.TourStats, error) {
	return m.stats, nil
}

func (m *mockTourRepo) MonthlyPlan(context.Context, int) ([]repository.MonthlyPlanEntry, error) {
	return m.plan, nil
}

func (m *mockTourRepo) Within(_ context.Context, lat, lng, radiusKm float64) ([]domain.Tour, error) {
	m.withinArgs = []float64{lat, lng, radiusKm}
	var out []domain.Tour
	for _, t := range m.byID {
		out = append(out, *t)
	}
	return out, nil
}

func (m *mockTourRepo) Distances(_ context.Context, lat, lng, multiplier float64) ([]repository.TourDistance, error) {
	m.distancesArgs = []float64{lat, lng, multiplier}
	return m.distances, nil
}

func tourRouter(repo *mockTourRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewTourHandler(repo)
	r := gin.New()
	r.Use(middleware.ErrorHandler(middleware.ErrorHandlerConfig{}))
	g := r.Group("/api/v1/tours")
	g.GET("/top-5-cheap", h.AliasTopTours, h.Resource.GetAll)
	g.GET("/tour-stats", h.GetTourStats)
	g.GET("/monthly-plan/:year", h.GetMonthlyPlan)
	g.GET("/tours-within/:distance/center/:latlng/unit/:unit", h.GetToursWithin)
	g.GET("/distances/:latlng/:unit", h.GetDistances)
	g.GET("", h.Resource.GetAll)
	return r
}

func TestAliasTopTours(t *testing.T) {
	repo := newMockTourRepo()
	r := tourRouter(repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tours/top-5-cheap", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, repo.lastQuery)
	assert.Equal(t, 5, repo.lastQuery.Limit())

	sql, _ := repo.lastQuery.SelectSQL()
	assert.Contains(t, sql, "ORDER BY ratings_average DESC, price ASC")
	assert.Contains(t, sql, "SELECT id, name, price, ratings_average, summary, difficulty FROM tours")
}

func TestAliasTopToursOverridesClientParams(t *testing.T) {
	repo := newMockTourRepo()
	r := tourRouter(repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tours/top-5-cheap?"+url.Values{
		"limit": {"1000"},
		"sort":  {"price"},
	}.Encode(), nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, repo.lastQuery.Limit())
}

func TestListingExcludesSecretTours(t *testing.T) {
	repo := newMockTourRepo()
	r := tourRouter(repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tours?difficulty=easy", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, repo.lastQuery)

	sql, args := repo.lastQuery.SelectSQL()
	assert.Contains(t, sql, "WHERE secret_tour = $1 AND difficulty = $2")
	assert.Equal(t, []interface{}{false, "easy"}, args)
}

func TestGetTourStats(t *testing.T) {
	repo := newMockTourRepo()
	repo.stats = []repository.TourStats{{Difficulty: "EASY", NumTours: 3, AvgPrice: 400}}
	r := tourRouter(repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tours/tour-stats", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"stats"`)
	assert.Contains(t, w.Body.String(), "EASY")
}

func TestToursWithin(t *testing.T) {
	repo := newMockTourRepo()
	repo.byID["t1"] = &domain.Tour{ID: "t1", Name: "The Sea Explorer"}
	r := tourRouter(repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/tours/tours-within/200/center/34.111745,-118.113491/unit/km", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, repo.withinArgs, 3)
	assert.InDelta(t, 34.111745, repo.withinArgs[0], 1e-9)
	assert.InDelta(t, -118.113491, repo.withinArgs[1], 1e-9)
	assert.InDelta(t, 200, repo.withinArgs[2], 1e-9)
	assert.Contains(t, w.Body.String(), `"results":1`)
	assert.Contains(t, w.Body.String(), "The Sea Explorer")
}

func TestToursWithinConvertsMiles(t *testing.T) {
	repo := newMockTourRepo()
	r := tourRouter(repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/tours/tours-within/100/center/34.0,-118.0/unit/mi", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, repo.withinArgs, 3)
	assert.InDelta(t, 160.9344, repo.withinArgs[2], 1e-4)
}

func TestToursWithinBadLatLng(t *testing.T) {
	r := tourRouter(newMockTourRepo())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/tours/tours-within/200/center/nowhere/unit/km", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Please provide latitude and longitude in the format lat,lng.")
}

func TestDistances(t *testing.T) {
	repo := newMockTourRepo()
	repo.distances = []repository.TourDistance{
		{ID: "t1", Name: "The Forest Hiker", Distance: 12.5},
	}
	r := tourRouter(repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tours/distances/34.0,-118.0/mi", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, repo.distancesArgs, 3)
	assert.InDelta(t, 0.621371, repo.distancesArgs[2], 1e-6)
	assert.Contains(t, w.Body.String(), "The Forest Hiker")
	assert.Contains(t, w.Body.String(), `"distances"`)
}

func TestGetMonthlyPlanBadYear(t *testing.T) {
	r := tourRouter(newMockTourRepo())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tours/monthly-plan/notayear", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid year")
}

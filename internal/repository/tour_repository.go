package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ShubhamMishra2526/Travease-App/internal/domain"
	"github.com/ShubhamMishra2526/Travease-App/internal/query"
)

// TourStats is one difficulty bucket of the tour statistics aggregation.
type TourStats struct {
	Difficulty string  `json:"difficulty" db:"difficulty"`
	NumTours   int     `json:"numTours" db:"num_tours"`
	NumRatings int     `json:"numRatings" db:"num_ratings"`
	AvgRating  float64 `json:"avgRating" db:"avg_rating"`
	AvgPrice   float64 `json:"avgPrice" db:"avg_price"`
	MinPrice   float64 `json:"minPrice" db:"min_price"`
	MaxPrice   float64 `json:"maxPrice" db:"max_price"`
}

// MonthlyPlanEntry is one month of the start-date aggregation for a year.
type MonthlyPlanEntry struct {
	Month     int      `json:"month" db:"month"`
	NumTours  int      `json:"numTourStarts" db:"num_tours"`
	TourNames []string `json:"tours" db:"tour_names"`
}

// TourDistance pairs a tour with its distance from a reference point,
// already converted to the requested unit.
type TourDistance struct {
	ID       string  `json:"id" db:"id"`
	Name     string  `json:"name" db:"name"`
	Distance float64 `json:"distance" db:"distance"`
}

// TourRepository defines data access for tours.
type TourRepository interface {
	Create(ctx context.Context, tour *domain.Tour) error
	FindByID(ctx context.Context, id string, expand ...string) (*domain.Tour, error)
	FindBySlug(ctx context.Context, slug string) (*domain.Tour, error)
	Find(ctx context.Context, q *query.Query) ([]domain.Tour, int, error)
	UpdateByID(ctx context.Context, id string, patch map[string]interface{}) (*domain.Tour, error)
	DeleteByID(ctx context.Context, id string) error
	Stats(ctx context.Context) ([]TourStats, error)
	MonthlyPlan(ctx context.Context, year int) ([]MonthlyPlanEntry, error)
	Within(ctx context.Context, lat, lng, radiusKm float64) ([]domain.Tour, error)
	Distances(ctx context.Context, lat, lng, multiplier float64) ([]TourDistance, error)
}

// PostgresTourRepository implements TourRepository using PostgreSQL.
type PostgresTourRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresTourRepository creates a new PostgresTourRepository.
func NewPostgresTourRepository(pool *pgxpool.Pool) *PostgresTourRepository {
	return &PostgresTourRepository{pool: pool}
}

const tourColumns = `id, name, slug, duration, max_group_size, difficulty,
	ratings_average, ratings_quantity, price, price_discount, summary,
	description, image_cover, images, start_dates, start_location, locations,
	secret_tour, guides, row_version, created_at, updated_at`

// haversineKm is the great-circle distance in kilometres between the
// tour's start location and the reference point bound as $1 (lat), $2
// (lng). 6371 is the mean earth radius in km.
const haversineKm = `(2 * 6371 * asin(sqrt(
	power(sin(radians((start_location->>'lat')::float8 - $1) / 2), 2) +
	cos(radians($1::float8)) * cos(radians((start_location->>'lat')::float8)) *
	power(sin(radians((start_location->>'lng')::float8 - $2) / 2), 2))))`

// Create inserts a tour. ID and slug are derived here when absent.
func (r *PostgresTourRepository) Create(ctx context.Context, tour *domain.Tour) error {
	if tour.ID == "" {
		tour.ID = uuid.New().String()
	}
	if tour.Slug == "" {
		tour.Slug = domain.Slugify(tour.Name)
	}
	if tour.RatingsAverage == 0 {
		tour.RatingsAverage = domain.DefaultRatingsAverage
	}

	if tour.Locations == nil {
		tour.Locations = []domain.Location{}
	}

	sql := `
		INSERT INTO tours (id, name, slug, duration, max_group_size, difficulty,
			ratings_average, ratings_quantity, price, price_discount, summary,
			description, image_cover, images, start_dates, start_location,
			locations, secret_tour, guides)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING created_at, updated_at, row_version`

	return r.pool.QueryRow(ctx, sql,
		tour.ID, tour.Name, tour.Slug, tour.Duration, tour.MaxGroupSize,
		tour.Difficulty, tour.RatingsAverage, tour.RatingsQuantity, tour.Price,
		tour.PriceDiscount, tour.Summary, tour.Description, tour.ImageCover,
		tour.Images, tour.StartDates, tour.StartLocation, tour.Locations,
		tour.SecretTour, tour.GuideIDs,
	).Scan(&tour.CreatedAt, &tour.UpdatedAt, &tour.RowVersion)
}

// FindByID retrieves a tour by ID. Expansions attach related documents:
// "guides" loads the guide accounts, "reviews" the tour's reviews with
// their authors. Returns nil when not found.
func (r *PostgresTourRepository) FindByID(ctx context.Context, id string, expand ...string) (*domain.Tour, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf("SELECT %s FROM tours WHERE id = $1", tourColumns), id)
	if err != nil {
		return nil, fmt.Errorf("failed to get tour: %w", err)
	}

	tour, err := pgx.CollectOneRow(rows, pgx.RowToStructByNameLax[domain.Tour])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan tour: %w", err)
	}

	for _, rel := range expand {
		switch rel {
		case "guides":
			if err := r.loadGuides(ctx, &tour); err != nil {
				return nil, err
			}
		case "reviews":
			if err := r.loadReviews(ctx, &tour); err != nil {
				return nil, err
			}
		}
	}

	return &tour, nil
}

// FindBySlug retrieves a tour by its slug with guides and reviews
// attached, for the rendered detail page. Returns nil when not found.
func (r *PostgresTourRepository) FindBySlug(ctx context.Context, slug string) (*domain.Tour, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf("SELECT %s FROM tours WHERE slug = $1", tourColumns), slug)
	if err != nil {
		return nil, fmt.Errorf("failed to get tour: %w", err)
	}

	tour, err := pgx.CollectOneRow(rows, pgx.RowToStructByNameLax[domain.Tour])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan tour: %w", err)
	}

	if err := r.loadGuides(ctx, &tour); err != nil {
		return nil, err
	}
	if err := r.loadReviews(ctx, &tour); err != nil {
		return nil, err
	}

	return &tour, nil
}

// loadGuides attaches the guide accounts referenced by the tour.
func (r *PostgresTourRepository) loadGuides(ctx context.Context, tour *domain.Tour) error {
	if len(tour.GuideIDs) == 0 {
		return nil
	}

	sql := `SELECT id, name, email, photo, role, created_at
		FROM users WHERE id = ANY($1) AND active = true`
	rows, err := r.pool.Query(ctx, sql, tour.GuideIDs)
	if err != nil {
		return fmt.Errorf("failed to load guides: %w", err)
	}

	guides, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByNameLax[domain.User])
	if err != nil {
		return fmt.Errorf("failed to scan guides: %w", err)
	}

	// Keep the order the tour lists its guides in
	byID := make(map[string]*domain.User, len(guides))
	for _, g := range guides {
		byID[g.ID] = g
	}
	tour.Guides = tour.Guides[:0]
	for _, id := range tour.GuideIDs {
		if g, ok := byID[id]; ok {
			tour.Guides = append(tour.Guides, g)
		}
	}
	return nil
}

// loadReviews attaches the tour's reviews, newest first, each with its
// author's public profile.
func (r *PostgresTourRepository) loadReviews(ctx context.Context, tour *domain.Tour) error {
	sql := `SELECT id, review, rating, tour_id, user_id, created_at
		FROM reviews WHERE tour_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, sql, tour.ID)
	if err != nil {
		return fmt.Errorf("failed to load reviews: %w", err)
	}

	reviews, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByNameLax[domain.Review])
	if err != nil {
		return fmt.Errorf("failed to scan reviews: %w", err)
	}

	if len(reviews) > 0 {
		userIDs := make([]string, 0, len(reviews))
		for _, rv := range reviews {
			userIDs = append(userIDs, rv.UserID)
		}
		authorRows, err := r.pool.Query(ctx,
			`SELECT id, name, photo, role, created_at FROM users WHERE id = ANY($1)`, userIDs)
		if err != nil {
			return fmt.Errorf("failed to load review authors: %w", err)
		}
		authors, err := pgx.CollectRows(authorRows, pgx.RowToAddrOfStructByNameLax[domain.User])
		if err != nil {
			return fmt.Errorf("failed to scan review authors: %w", err)
		}
		byID := make(map[string]*domain.User, len(authors))
		for _, a := range authors {
			byID[a.ID] = a
		}
		for _, rv := range reviews {
			rv.Author = byID[rv.UserID]
		}
	}

	tour.Reviews = reviews
	return nil
}

// Find lists tours for a translated query and returns the total count
// of matching rows before pagination.
func (r *PostgresTourRepository) Find(ctx context.Context, q *query.Query) ([]domain.Tour, int, error) {
	return findRows[domain.Tour](ctx, r.pool, q)
}

// UpdateByID applies a partial update translated through the tour
// schema and returns the updated tour. Returns nil when not found.
func (r *PostgresTourRepository) UpdateByID(ctx context.Context, id string, patch map[string]interface{}) (*domain.Tour, error) {
	columns, err := translatePatch(TourSchema, patch)
	if err != nil {
		return nil, err
	}
	if name, ok := columns["name"].(string); ok {
		columns["slug"] = domain.Slugify(name)
	}

	set, args := buildSet(columns)
	if len(args) == 0 {
		return r.FindByID(ctx, id)
	}

	sql := fmt.Sprintf(`UPDATE tours SET %s, row_version = row_version + 1, updated_at = now()
		WHERE id = $%d RETURNING %s`, set, len(args)+1, tourColumns)
	args = append(args, id)

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update tour: %w", err)
	}
	tour, err := pgx.CollectOneRow(rows, pgx.RowToStructByNameLax[domain.Tour])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan tour: %w", err)
	}
	return &tour, nil
}

// DeleteByID removes a tour. Returns pgx.ErrNoRows when no row matched.
func (r *PostgresTourRepository) DeleteByID(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM tours WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete tour: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Stats aggregates rating and price figures per difficulty over tours
// rated 4.5 and up.
func (r *PostgresTourRepository) Stats(ctx context.Context) ([]TourStats, error) {
	sql := `
		SELECT upper(difficulty) AS difficulty,
			COUNT(*)::int AS num_tours,
			COALESCE(SUM(ratings_quantity), 0)::int AS num_ratings,
			COALESCE(AVG(ratings_average), 0) AS avg_rating,
			COALESCE(AVG(price), 0) AS avg_price,
			COALESCE(MIN(price), 0) AS min_price,
			COALESCE(MAX(price), 0) AS max_price
		FROM tours
		WHERE ratings_average >= 4.5
		GROUP BY difficulty
		ORDER BY avg_price`

	rows, err := r.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate tour stats: %w", err)
	}
	stats, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[TourStats])
	if err != nil {
		return nil, fmt.Errorf("failed to scan tour stats: %w", err)
	}
	return stats, nil
}

// MonthlyPlan counts tour starts per month of the given year, busiest
// month first.
func (r *PostgresTourRepository) MonthlyPlan(ctx context.Context, year int) ([]MonthlyPlanEntry, error) {
	sql := `
		SELECT EXTRACT(MONTH FROM d)::int AS month,
			COUNT(*)::int AS num_tours,
			array_agg(name ORDER BY name) AS tour_names
		FROM tours, unnest(start_dates) AS d
		WHERE EXTRACT(YEAR FROM d) = $1
		GROUP BY month
		ORDER BY num_tours DESC, month`

	rows, err := r.pool.Query(ctx, sql, year)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate monthly plan: %w", err)
	}
	plan, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[MonthlyPlanEntry])
	if err != nil {
		return nil, fmt.Errorf("failed to scan monthly plan: %w", err)
	}
	return plan, nil
}

// Within lists public tours whose start location lies inside the given
// radius around a point.
func (r *PostgresTourRepository) Within(ctx context.Context, lat, lng, radiusKm float64) ([]domain.Tour, error) {
	sql := fmt.Sprintf(`SELECT %s FROM tours
		WHERE start_location IS NOT NULL AND secret_tour = false
			AND %s <= $3
		ORDER BY name`, tourColumns, haversineKm)

	rows, err := r.pool.Query(ctx, sql, lat, lng, radiusKm)
	if err != nil {
		return nil, fmt.Errorf("failed to list tours within radius: %w", err)
	}
	tours, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[domain.Tour])
	if err != nil {
		return nil, fmt.Errorf("failed to scan tours: %w", err)
	}
	return tours, nil
}

// Distances reports how far each public tour's start location is from a
// point, nearest first. The multiplier converts kilometres to the
// caller's unit.
func (r *PostgresTourRepository) Distances(ctx context.Context, lat, lng, multiplier float64) ([]TourDistance, error) {
	sql := fmt.Sprintf(`SELECT id, name, %s * $3 AS distance FROM tours
		WHERE start_location IS NOT NULL AND secret_tour = false
		ORDER BY distance`, haversineKm)

	rows, err := r.pool.Query(ctx, sql, lat, lng, multiplier)
	if err != nil {
		return nil, fmt.Errorf("failed to compute tour distances: %w", err)
	}
	distances, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[TourDistance])
	if err != nil {
		return nil, fmt.Errorf("failed to scan tour distances: %w", err)
	}
	return distances, nil
}

// buildSet renders a SET clause from a column map with deterministic
// column order and positional args starting at $1.
func buildSet(columns map[string]interface{}) (string, []interface{}) {
	names := make([]string, 0, len(columns))
	for name := range columns {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	args := make([]interface{}, 0, len(names))
	for i, name := range names {
		parts = append(parts, fmt.Sprintf("%s = $%d", name, i+1))
		args = append(args, columns[name])
	}
	return strings.Join(parts, ", "), args
}

// findRows runs a translated listing query plus its count twin.
func findRows[T any](ctx context.Context, pool *pgxpool.Pool, q *query.Query) ([]T, int, error) {
	countSQL, countArgs := q.CountSQL()
	var total int
	if err := pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count rows: %w", err)
	}

	selectSQL, selectArgs := q.SelectSQL()
	rows, err := pool.Query(ctx, selectSQL, selectArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list rows: %w", err)
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[T])
	if err != nil {
		return nil, 0, fmt.Errorf("failed to scan rows: %w", err)
	}
	return items, total, nil
}

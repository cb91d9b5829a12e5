package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ShubhamMishra2526/Travease-App/internal/domain"
	"github.com/ShubhamMishra2526/Travease-App/internal/query"
)

// ReviewRepository defines data access for reviews. Writes are expected
// to be followed by RecalcTourRatings for the affected tour.
type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) error
	FindByID(ctx context.Context, id string, expand ...string) (*domain.Review, error)
	Find(ctx context.Context, q *query.Query) ([]domain.Review, int, error)
	UpdateByID(ctx context.Context, id string, patch map[string]interface{}) (*domain.Review, error)
	DeleteByID(ctx context.Context, id string) error
	RatingStats(ctx context.Context, tourID string) (*domain.RatingStats, error)
	RecalcTourRatings(ctx context.Context, tourID string) error
}

// PostgresReviewRepository implements ReviewRepository using PostgreSQL.
type PostgresReviewRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresReviewRepository creates a new PostgresReviewRepository.
func NewPostgresReviewRepository(pool *pgxpool.Pool) *PostgresReviewRepository {
	return &PostgresReviewRepository{pool: pool}
}

const reviewColumns = `id, review, rating, tour_id, user_id, row_version, created_at, updated_at`

// Create inserts a review. The tour and user uniqueness pair is enforced
// by a constraint and surfaces as a duplicate field error.
func (r *PostgresReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	if review.ID == "" {
		review.ID = uuid.New().String()
	}

	sql := `
		INSERT INTO reviews (id, review, rating, tour_id, user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at, row_version`

	return r.pool.QueryRow(ctx, sql,
		review.ID, review.Review, review.Rating, review.TourID, review.UserID,
	).Scan(&review.CreatedAt, &review.UpdatedAt, &review.RowVersion)
}

// FindByID retrieves a review by ID. Returns nil when not found.
func (r *PostgresReviewRepository) FindByID(ctx context.Context, id string, _ ...string) (*domain.Review, error) {
	rows, err := r.pool.Query(ctx,
		fmt.Sprintf("SELECT %s FROM reviews WHERE id = $1", reviewColumns), id)
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	review, err := pgx.CollectOneRow(rows, pgx.RowToStructByNameLax[domain.Review])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan review: %w", err)
	}
	return &review, nil
}

// Find lists reviews for a translated query.
func (r *PostgresReviewRepository) Find(ctx context.Context, q *query.Query) ([]domain.Review, int, error) {
	return findRows[domain.Review](ctx, r.pool, q)
}

// UpdateByID applies a partial update. Returns nil when not found.
func (r *PostgresReviewRepository) UpdateByID(ctx context.Context, id string, patch map[string]interface{}) (*domain.Review, error) {
	columns, err := translatePatch(ReviewSchema, patch, "tour", "user")
	if err != nil {
		return nil, err
	}

	set, args := buildSet(columns)
	if len(args) == 0 {
		return r.FindByID(ctx, id)
	}

	sql := fmt.Sprintf(`UPDATE reviews SET %s, row_version = row_version + 1, updated_at = now()
		WHERE id = $%d RETURNING %s`, set, len(args)+1, reviewColumns)
	args = append(args, id)

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update review: %w", err)
	}
	review, err := pgx.CollectOneRow(rows, pgx.RowToStructByNameLax[domain.Review])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan review: %w", err)
	}
	return &review, nil
}

// DeleteByID removes a review. Returns pgx.ErrNoRows when no row matched.
func (r *PostgresReviewRepository) DeleteByID(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM reviews WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// RatingStats computes the review count and rounded average rating for
// one tour.
func (r *PostgresReviewRepository) RatingStats(ctx context.Context, tourID string) (*domain.RatingStats, error) {
	sql := `SELECT COUNT(*)::int, COALESCE(ROUND(AVG(rating)::numeric, 1), 0)
		FROM reviews WHERE tour_id = $1`

	stats := &domain.RatingStats{}
	if err := r.pool.QueryRow(ctx, sql, tourID).Scan(&stats.Quantity, &stats.Average); err != nil {
		return nil, fmt.Errorf("failed to compute rating stats: %w", err)
	}
	return stats, nil
}

// RecalcTourRatings recomputes a tour's denormalized rating aggregates
// from its reviews. A tour with no reviews falls back to the default
// average.
func (r *PostgresReviewRepository) RecalcTourRatings(ctx context.Context, tourID string) error {
	sql := `
		UPDATE tours SET
			ratings_quantity = agg.qty,
			ratings_average = agg.avg,
			updated_at = now()
		FROM (
			SELECT COUNT(*)::int AS qty,
				COALESCE(ROUND(AVG(rating)::numeric, 1), $2) AS avg
			FROM reviews WHERE tour_id = $1
		) AS agg
		WHERE tours.id = $1`

	_, err := r.pool.Exec(ctx, sql, tourID, domain.DefaultRatingsAverage)
	if err != nil {
		return fmt.Errorf("failed to recalc tour ratings: %w", err)
	}
	return nil
}

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

// BookingRepository defines data access for bookings.
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	FindByID(ctx context.Context, id string, expand ...string) (*domain.Booking, error)
	Find(ctx context.Context, q *query.Query) ([]domain.Booking, int, error)
	FindToursForUser(ctx context.Context, userID string) ([]domain.Tour, error)
	UpdateByID(ctx context.Context, id string, patch map[string]interface{}) (*domain.Booking, error)
	DeleteByID(ctx context.Context, id string) error
}

// PostgresBookingRepository implements BookingRepository using PostgreSQL.
type PostgresBookingRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresBookingRepository creates a new PostgresBookingRepository.
func NewPostgresBookingRepository(pool *pgxpool.Pool) *PostgresBookingRepository {
	return &PostgresBookingRepository{pool: pool}
}

const bookingColumns = `id, tour_id, user_id, price, paid, row_version, created_at, updated_at`

// Create inserts a booking.
func (r *PostgresBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}

	sql := `
		INSERT INTO bookings (id, tour_id, user_id, price, paid)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at, row_version`

	return r.pool.QueryRow(ctx, sql,
		booking.ID, booking.TourID, booking.UserID, booking.Price, booking.Paid,
	).Scan(&booking.CreatedAt, &booking.UpdatedAt, &booking.RowVersion)
}

// FindByID retrieves a booking by ID. Returns nil when not found.
func (r *PostgresBookingRepository) FindByID(ctx context.Context, id string, _ ...string) (*domain.Booking, error) {
	rows, err := r.pool.Query(ctx,
		fmt.Sprintf("SELECT %s FROM bookings WHERE id = $1", bookingColumns), id)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	booking, err := pgx.CollectOneRow(rows, pgx.RowToStructByNameLax[domain.Booking])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan booking: %w", err)
	}
	return &booking, nil
}

// Find lists bookings for a translated query.
func (r *PostgresBookingRepository) Find(ctx context.Context, q *query.Query) ([]domain.Booking, int, error) {
	return findRows[domain.Booking](ctx, r.pool, q)
}

// FindToursForUser returns the tours a user has booked, for the "my
// tours" page.
func (r *PostgresBookingRepository) FindToursForUser(ctx context.Context, userID string) ([]domain.Tour, error) {
	sql := fmt.Sprintf(`SELECT %s FROM tours
		WHERE id IN (SELECT tour_id FROM bookings WHERE user_id = $1)
		ORDER BY created_at DESC`, tourColumns)

	rows, err := r.pool.Query(ctx, sql, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list booked tours: %w", err)
	}
	tours, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[domain.Tour])
	if err != nil {
		return nil, fmt.Errorf("failed to scan booked tours: %w", err)
	}
	return tours, nil
}

// UpdateByID applies a partial update. Returns nil when not found.
func (r *PostgresBookingRepository) UpdateByID(ctx context.Context, id string, patch map[string]interface{}) (*domain.Booking, error) {
	columns, err := translatePatch(BookingSchema, patch)
	if err != nil {
		return nil, err
	}

	set, args := buildSet(columns)
	if len(args) == 0 {
		return r.FindByID(ctx, id)
	}

	sql := fmt.Sprintf(`UPDATE bookings SET %s, row_version = row_version + 1, updated_at = now()
		WHERE id = $%d RETURNING %s`, set, len(args)+1, bookingColumns)
	args = append(args, id)

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}
	booking, err := pgx.CollectOneRow(rows, pgx.RowToStructByNameLax[domain.Booking])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan booking: %w", err)
	}
	return &booking, nil
}

// DeleteByID removes a booking. Returns pgx.ErrNoRows when no row matched.
func (r *PostgresBookingRepository) DeleteByID(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM bookings WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

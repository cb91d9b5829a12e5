package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ShubhamMishra2526/Travease-App/internal/domain"
	"github.com/ShubhamMishra2526/Travease-App/internal/query"
)

// UserRepository defines data access for accounts. Every read excludes
// deactivated accounts; deactivation is the only delete the API offers.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string, expand ...string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByResetToken(ctx context.Context, tokenHash string) (*domain.User, error)
	Find(ctx context.Context, q *query.Query) ([]domain.User, int, error)
	UpdateByID(ctx context.Context, id string, patch map[string]interface{}) (*domain.User, error)
	UpdatePassword(ctx context.Context, user *domain.User) error
	SetResetToken(ctx context.Context, id, tokenHash string, expires time.Time) error
	ClearResetToken(ctx context.Context, id string) error
	Deactivate(ctx context.Context, id string) error
}

// PostgresUserRepository implements UserRepository using PostgreSQL.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresUserRepository creates a new PostgresUserRepository.
func NewPostgresUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

const userColumns = `id, name, email, COALESCE(photo, '') AS photo, role,
	password_hash, password_changed_at, COALESCE(password_reset_token, '') AS password_reset_token,
	password_reset_expires, active, created_at, updated_at`

// Create inserts an account. The caller must have hashed the password.
func (r *PostgresUserRepository) Create(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = domain.RoleUser
	}
	user.Email = domain.NormalizeEmail(user.Email)

	sql := `
		INSERT INTO users (id, name, email, photo, role, password_hash, active)
		VALUES ($1, $2, $3, $4, $5, $6, true)
		RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, sql,
		user.ID, user.Name, user.Email, user.Photo, user.Role, user.PasswordHash,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
}

func (r *PostgresUserRepository) findOne(ctx context.Context, where string, arg interface{}) (*domain.User, error) {
	sql := fmt.Sprintf("SELECT %s FROM users WHERE %s AND active = true", userColumns, where)
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user, err := pgx.CollectOneRow(rows, pgx.RowToStructByNameLax[domain.User])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &user, nil
}

// FindByID retrieves an active account by ID. Accounts have no
// expandable relations; the argument exists to satisfy the generic
// store shape. Returns nil when not found.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string, _ ...string) (*domain.User, error) {
	return r.findOne(ctx, "id = $1", id)
}

// FindByEmail retrieves an active account by email, credential columns
// included. Returns nil when not found.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "email = $1", domain.NormalizeEmail(email))
}

// FindByResetToken retrieves the account holding an unexpired reset
// token hash. Returns nil when no account matches or the token expired.
func (r *PostgresUserRepository) FindByResetToken(ctx context.Context, tokenHash string) (*domain.User, error) {
	sql := fmt.Sprintf(`SELECT %s FROM users
		WHERE password_reset_token = $1 AND password_reset_expires > now() AND active = true`, userColumns)
	rows, err := r.pool.Query(ctx, sql, tokenHash)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user, err := pgx.CollectOneRow(rows, pgx.RowToStructByNameLax[domain.User])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &user, nil
}

// Find lists active accounts for a translated query.
func (r *PostgresUserRepository) Find(ctx context.Context, q *query.Query) ([]domain.User, int, error) {
	return findRows[domain.User](ctx, r.pool, q.Scope("active", true))
}

// UpdateByID applies a partial profile update. Credential fields are
// blocked here; password changes go through UpdatePassword. Returns nil
// when not found.
func (r *PostgresUserRepository) UpdateByID(ctx context.Context, id string, patch map[string]interface{}) (*domain.User, error) {
	columns, err := translatePatch(UserSchema, patch, "password", "passwordConfirm")
	if err != nil {
		return nil, err
	}
	if email, ok := columns["email"].(string); ok {
		columns["email"] = domain.NormalizeEmail(email)
	}

	set, args := buildSet(columns)
	if len(args) == 0 {
		return r.FindByID(ctx, id)
	}

	sql := fmt.Sprintf(`UPDATE users SET %s, updated_at = now()
		WHERE id = $%d AND active = true RETURNING %s`, set, len(args)+1, userColumns)
	args = append(args, id)

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	user, err := pgx.CollectOneRow(rows, pgx.RowToStructByNameLax[domain.User])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &user, nil
}

// UpdatePassword persists a new password hash along with the change
// timestamp and clears any pending reset token.
func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, user *domain.User) error {
	sql := `UPDATE users SET password_hash = $1, password_changed_at = $2,
		password_reset_token = NULL, password_reset_expires = NULL, updated_at = now()
		WHERE id = $3`
	_, err := r.pool.Exec(ctx, sql, user.PasswordHash, user.PasswordChangedAt, user.ID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// SetResetToken stores a hashed reset token with its expiry.
func (r *PostgresUserRepository) SetResetToken(ctx context.Context, id, tokenHash string, expires time.Time) error {
	sql := `UPDATE users SET password_reset_token = $1, password_reset_expires = $2, updated_at = now()
		WHERE id = $3`
	_, err := r.pool.Exec(ctx, sql, tokenHash, expires, id)
	if err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}
	return nil
}

// ClearResetToken discards a pending reset token, used both after a
// successful reset and to compensate when the reset email fails to send.
func (r *PostgresUserRepository) ClearResetToken(ctx context.Context, id string) error {
	sql := `UPDATE users SET password_reset_token = NULL, password_reset_expires = NULL, updated_at = now()
		WHERE id = $1`
	_, err := r.pool.Exec(ctx, sql, id)
	if err != nil {
		return fmt.Errorf("failed to clear reset token: %w", err)
	}
	return nil
}

// Deactivate soft deletes an account. The row survives but every read
// path stops returning it.
func (r *PostgresUserRepository) Deactivate(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx,
		"UPDATE users SET active = false, updated_at = now() WHERE id = $1 AND active = true", id)
	if err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound indicates the user does not exist.
	ErrNotFound = errors.New("users: not found")
	// ErrDuplicateEmail indicates the email is already taken.
	ErrDuplicateEmail = errors.New("users: email already registered")
)

const uniqueViolation = "23505"

// RepositoryPort defines data access methods for user management.
type RepositoryPort interface {
	List(ctx context.Context) ([]User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, email, passwordHash string, roleID int64) (*User, error)
	Update(ctx context.Context, id int64, email *string, roleID *int64, isActive *bool) (*User, error)
}

// Repository provides PostgreSQL backed persistence for accounts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, email, role_id, is_active, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.RoleID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// List returns all accounts ordered by email.
func (r *Repository) List(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.RoleID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// GetByID returns a single account.
func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// Create inserts an account and returns the stored row.
func (r *Repository) Create(ctx context.Context, email, passwordHash string, roleID int64) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, role_id, is_active)
		VALUES ($1, $2, $3, true)
		RETURNING `+userColumns,
		email, passwordHash, roleID)
	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return user, nil
}

// Update applies a partial account update and returns the stored row.
func (r *Repository) Update(ctx context.Context, id int64, email *string, roleID *int64, isActive *bool) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users SET
			email = COALESCE($2, email),
			role_id = COALESCE($3, role_id),
			is_active = COALESCE($4, is_active),
			updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns,
		id, email, roleID, isActive)
	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return user, nil
}

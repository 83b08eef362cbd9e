package rbac

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wayfarer-labs/wayfarer/internal/platform/db"
)

// RepositoryPort defines data access methods for roles and permissions.
type RepositoryPort interface {
	ListRoles(ctx context.Context) ([]Role, error)
	GetRole(ctx context.Context, id int64) (*Role, error)
	GetRoleByName(ctx context.Context, name string) (*Role, error)
	CreateRole(ctx context.Context, name, description string) (*Role, error)
	UpdateRole(ctx context.Context, id int64, name, description string) (*Role, error)
	DeleteRole(ctx context.Context, id int64) (int64, error)
	RolePermissions(ctx context.Context, roleID int64) ([]string, error)
	ReplaceRolePermissions(ctx context.Context, roleID int64, names []string) error
	UserPermissions(ctx context.Context, userID int64) ([]string, error)
	AssignRole(ctx context.Context, userID, roleID int64) error
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const roleColumns = `id, name, description, created_at, updated_at`

// ListRoles returns all roles ordered by id.
func (r *Repository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+roleColumns+` FROM roles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// GetRole fetches a role by id.
func (r *Repository) GetRole(ctx context.Context, id int64) (*Role, error) {
	return scanRole(r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id))
}

// GetRoleByName fetches a role by name.
func (r *Repository) GetRoleByName(ctx context.Context, name string) (*Role, error) {
	return scanRole(r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE name = $1`, name))
}

func scanRole(row pgx.Row) (*Role, error) {
	var role Role
	err := row.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &role, nil
}

// CreateRole inserts a new role.
func (r *Repository) CreateRole(ctx context.Context, name, description string) (*Role, error) {
	return scanRole(r.pool.QueryRow(ctx,
		`INSERT INTO roles (name, description) VALUES ($1, $2) RETURNING `+roleColumns, name, description))
}

// UpdateRole updates an existing role.
func (r *Repository) UpdateRole(ctx context.Context, id int64, name, description string) (*Role, error) {
	return scanRole(r.pool.QueryRow(ctx,
		`UPDATE roles SET name = $2, description = $3, updated_at = now() WHERE id = $1 RETURNING `+roleColumns,
		id, name, description))
}

// DeleteRole removes a role by id, returning the affected row count.
func (r *Repository) DeleteRole(ctx context.Context, id int64) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// RolePermissions returns the permission names assigned to a role.
func (r *Repository) RolePermissions(ctx context.Context, roleID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT permission FROM role_permissions WHERE role_id = $1 ORDER BY permission`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStrings(rows)
}

// ReplaceRolePermissions swaps the full permission set of a role in one
// transaction.
func (r *Repository) ReplaceRolePermissions(ctx context.Context, roleID int64, names []string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
			return err
		}
		for _, name := range names {
			if _, err := tx.Exec(ctx,
				`INSERT INTO role_permissions (role_id, permission) VALUES ($1, $2)`, roleID, name); err != nil {
				return err
			}
		}
		return nil
	})
}

// UserPermissions returns the deduplicated permission names granted to a
// user through their role.
func (r *Repository) UserPermissions(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT rp.permission
		 FROM role_permissions rp
		 JOIN users u ON u.role_id = rp.role_id
		 WHERE u.id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStrings(rows)
}

// AssignRole moves a user onto a role.
func (r *Repository) AssignRole(ctx context.Context, userID, roleID int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET role_id = $2, updated_at = now() WHERE id = $1`, userID, roleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func collectStrings(rows pgx.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

var _ RepositoryPort = (*Repository)(nil)

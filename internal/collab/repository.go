package collab

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wayfarer-labs/wayfarer/internal/authz"
)

var (
	// ErrNotFound indicates the grant does not exist.
	ErrNotFound = errors.New("collab: grant not found")
	// ErrDuplicateGrant indicates a grant already exists for the pair.
	ErrDuplicateGrant = errors.New("collab: grant already exists")
)

// uniqueViolation is the postgres error code for unique constraint hits.
const uniqueViolation = "23505"

// RepositoryPort defines data access methods for collaborator grants.
type RepositoryPort interface {
	Get(ctx context.Context, journeyID, userID int64) (*Grant, error)
	ListByJourney(ctx context.Context, journeyID int64) ([]Grant, error)
	Insert(ctx context.Context, grant *Grant) (*Grant, error)
	Replace(ctx context.Context, journeyID, userID int64, permissions authz.PermissionSet) (*Grant, error)
	Delete(ctx context.Context, journeyID, userID int64) (int64, error)
	Grant(ctx context.Context, journeyID, userID int64) (*authz.Grant, error)
}

// Repository provides PostgreSQL backed persistence. It doubles as the
// engine's GrantStore port.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const grantColumns = `journey_id, user_id, permissions, created_at, updated_at`

func scanGrant(row pgx.Row) (*Grant, error) {
	var g Grant
	var names []string
	err := row.Scan(&g.JourneyID, &g.UserID, &names, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	perms, err := authz.ParsePermissionSet(names)
	if err != nil {
		return nil, err
	}
	g.Permissions = perms
	return &g, nil
}

// Get fetches a grant by composite key.
func (r *Repository) Get(ctx context.Context, journeyID, userID int64) (*Grant, error) {
	return scanGrant(r.pool.QueryRow(ctx,
		`SELECT `+grantColumns+` FROM journey_collaborators WHERE journey_id = $1 AND user_id = $2`,
		journeyID, userID))
}

// ListByJourney returns the grants of a journey.
func (r *Repository) ListByJourney(ctx context.Context, journeyID int64) ([]Grant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+grantColumns+` FROM journey_collaborators WHERE journey_id = $1 ORDER BY user_id`, journeyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Grant
	for rows.Next() {
		var g Grant
		var names []string
		if err := rows.Scan(&g.JourneyID, &g.UserID, &names, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		perms, err := authz.ParsePermissionSet(names)
		if err != nil {
			return nil, err
		}
		g.Permissions = perms
		out = append(out, g)
	}
	return out, rows.Err()
}

// Insert creates a grant. The unique constraint on (journey_id, user_id)
// is the final arbiter against concurrent duplicates.
func (r *Repository) Insert(ctx context.Context, grant *Grant) (*Grant, error) {
	created, err := scanGrant(r.pool.QueryRow(ctx,
		`INSERT INTO journey_collaborators (journey_id, user_id, permissions)
		 VALUES ($1, $2, $3)
		 RETURNING `+grantColumns,
		grant.JourneyID, grant.UserID, grant.Permissions.Names()))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrDuplicateGrant
		}
		return nil, err
	}
	return created, nil
}

// Replace swaps the full permission set of an existing grant.
func (r *Repository) Replace(ctx context.Context, journeyID, userID int64, permissions authz.PermissionSet) (*Grant, error) {
	return scanGrant(r.pool.QueryRow(ctx,
		`UPDATE journey_collaborators
		 SET permissions = $3, updated_at = now()
		 WHERE journey_id = $1 AND user_id = $2
		 RETURNING `+grantColumns,
		journeyID, userID, permissions.Names()))
}

// Delete removes a grant, returning the affected row count.
func (r *Repository) Delete(ctx context.Context, journeyID, userID int64) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM journey_collaborators WHERE journey_id = $1 AND user_id = $2`, journeyID, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Grant implements the engine's GrantStore port. A missing grant is
// (nil, nil) so the engine can fall through to later rules.
func (r *Repository) Grant(ctx context.Context, journeyID, userID int64) (*authz.Grant, error) {
	grant, err := r.Get(ctx, journeyID, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &authz.Grant{
		JourneyID:   grant.JourneyID,
		UserID:      grant.UserID,
		Permissions: grant.Permissions,
	}, nil
}

var _ RepositoryPort = (*Repository)(nil)
var _ authz.GrantStore = (*Repository)(nil)

package journeys

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wayfarer-labs/wayfarer/internal/authz"
	"github.com/wayfarer-labs/wayfarer/internal/platform/db"
)

// ErrNotFound indicates the journey does not exist.
var ErrNotFound = errors.New("journeys: not found")

// RepositoryPort defines data access methods for journeys.
type RepositoryPort interface {
	Create(ctx context.Context, journey *Journey) (*Journey, error)
	GetByID(ctx context.Context, id int64) (*Journey, error)
	GetByPublicLink(ctx context.Context, linkID string) (*Journey, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]Journey, error)
	ListSharedWith(ctx context.Context, userID int64) ([]Journey, error)
	Update(ctx context.Context, id int64, title, description *string) (*Journey, error)
	Delete(ctx context.Context, id int64) error
	SetSharingState(ctx context.Context, id int64, visibility authz.Visibility, publicLinkID, passphraseHash *string) (*Journey, error)
	JourneyAccess(ctx context.Context, journeyID int64) (*authz.JourneyAccess, error)
}

// Repository provides PostgreSQL backed persistence. It doubles as the
// engine's JourneyStore port.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const journeyColumns = `id, owner_id, title, title_key, description, visibility, public_link_id, passphrase_hash, created_at, updated_at`

func scanJourney(row pgx.Row) (*Journey, error) {
	var j Journey
	var titleKey string
	err := row.Scan(&j.ID, &j.OwnerID, &j.Title, &titleKey, &j.Description, &j.Visibility,
		&j.PublicLinkID, &j.PassphraseHash, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &j, nil
}

// Create inserts a journey. New journeys always start private.
func (r *Repository) Create(ctx context.Context, journey *Journey) (*Journey, error) {
	return scanJourney(r.pool.QueryRow(ctx,
		`INSERT INTO journeys (owner_id, title, title_key, description, visibility)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+journeyColumns,
		journey.OwnerID, journey.Title, titleKey(journey.Title), journey.Description, authz.VisibilityPrivate))
}

// GetByID fetches a journey by id.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Journey, error) {
	return scanJourney(r.pool.QueryRow(ctx, `SELECT `+journeyColumns+` FROM journeys WHERE id = $1`, id))
}

// GetByPublicLink fetches a journey by its opaque public link id.
func (r *Repository) GetByPublicLink(ctx context.Context, linkID string) (*Journey, error) {
	return scanJourney(r.pool.QueryRow(ctx, `SELECT `+journeyColumns+` FROM journeys WHERE public_link_id = $1`, linkID))
}

// ListByOwner returns journeys owned by the user.
func (r *Repository) ListByOwner(ctx context.Context, ownerID int64) ([]Journey, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+journeyColumns+` FROM journeys WHERE owner_id = $1 ORDER BY title_key`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectJourneys(rows)
}

// ListSharedWith returns journeys the user collaborates on.
func (r *Repository) ListSharedWith(ctx context.Context, userID int64) ([]Journey, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+prefixedJourneyColumns("j")+`
		 FROM journeys j
		 JOIN journey_collaborators c ON c.journey_id = j.id
		 WHERE c.user_id = $1
		 ORDER BY j.title_key`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectJourneys(rows)
}

// Update applies partial field changes and bumps updated_at.
func (r *Repository) Update(ctx context.Context, id int64, title, description *string) (*Journey, error) {
	var key *string
	if title != nil {
		k := titleKey(*title)
		key = &k
	}
	return scanJourney(r.pool.QueryRow(ctx,
		`UPDATE journeys
		 SET title = COALESCE($2, title),
		     title_key = COALESCE($3, title_key),
		     description = COALESCE($4, description),
		     updated_at = now()
		 WHERE id = $1
		 RETURNING `+journeyColumns,
		id, title, key, description))
}

// Delete removes a journey. Posts and collaborator grants cascade at the
// store level.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM journeys WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// SetSharingState atomically replaces the visibility, public link and
// passphrase hash. It runs in one transaction with a row lock so a
// concurrent delete is observed: the mutation fails closed rather than
// resurrecting sharing state for a dead journey.
func (r *Repository) SetSharingState(ctx context.Context, id int64, visibility authz.Visibility, publicLinkID, passphraseHash *string) (*Journey, error) {
	var updated *Journey
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var exists int64
		if err := tx.QueryRow(ctx, `SELECT id FROM journeys WHERE id = $1 FOR UPDATE`, id).Scan(&exists); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		j, err := scanJourney(tx.QueryRow(ctx,
			`UPDATE journeys
			 SET visibility = $2, public_link_id = $3, passphrase_hash = $4, updated_at = now()
			 WHERE id = $1
			 RETURNING `+journeyColumns,
			id, visibility, publicLinkID, passphraseHash))
		if err != nil {
			return err
		}
		updated = j
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// JourneyAccess implements the engine's JourneyStore port.
func (r *Repository) JourneyAccess(ctx context.Context, journeyID int64) (*authz.JourneyAccess, error) {
	var access authz.JourneyAccess
	err := r.pool.QueryRow(ctx,
		`SELECT id, owner_id, visibility, passphrase_hash FROM journeys WHERE id = $1`, journeyID).
		Scan(&access.ID, &access.OwnerID, &access.Visibility, &access.PassphraseHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, authz.ErrNotFound
		}
		return nil, err
	}
	return &access, nil
}

func collectJourneys(rows pgx.Rows) ([]Journey, error) {
	var out []Journey
	for rows.Next() {
		var j Journey
		var key string
		if err := rows.Scan(&j.ID, &j.OwnerID, &j.Title, &key, &j.Description, &j.Visibility,
			&j.PublicLinkID, &j.PassphraseHash, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func prefixedJourneyColumns(alias string) string {
	return alias + `.id, ` + alias + `.owner_id, ` + alias + `.title, ` + alias + `.title_key, ` +
		alias + `.description, ` + alias + `.visibility, ` + alias + `.public_link_id, ` +
		alias + `.passphrase_hash, ` + alias + `.created_at, ` + alias + `.updated_at`
}

var _ RepositoryPort = (*Repository)(nil)
var _ authz.JourneyStore = (*Repository)(nil)

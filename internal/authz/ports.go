package authz

import (
	"context"
	"errors"
)

// ErrNotFound is returned by store ports when a record does not exist.
var ErrNotFound = errors.New("authz: not found")

// Visibility is the sharing state of a journey.
type Visibility string

const (
	VisibilityPrivate         Visibility = "private"
	VisibilityPublicOpen      Visibility = "public_open"
	VisibilityPublicProtected Visibility = "public_protected"
)

// Public reports whether the journey is reachable through its public link.
func (v Visibility) Public() bool {
	return v == VisibilityPublicOpen || v == VisibilityPublicProtected
}

// JourneyAccess is the snapshot of a journey the engine needs to decide.
type JourneyAccess struct {
	ID             int64
	OwnerID        int64
	Visibility     Visibility
	PassphraseHash *string
}

// Grant is a per-journey, per-user permission set. The journey owner is
// never stored as a grant; ownership is implicit.
type Grant struct {
	JourneyID   int64
	UserID      int64
	Permissions PermissionSet
}

// JourneyStore looks up the access snapshot of a journey.
type JourneyStore interface {
	JourneyAccess(ctx context.Context, journeyID int64) (*JourneyAccess, error)
}

// GrantStore looks up a collaborator grant by composite key. A missing
// grant is reported as (nil, nil), not an error.
type GrantStore interface {
	Grant(ctx context.Context, journeyID, userID int64) (*Grant, error)
}

// PassphraseComparer performs the constant-time hash comparison for
// protected journeys. The engine never hashes or compares itself.
type PassphraseComparer interface {
	Compare(plaintext, hash string) bool
}

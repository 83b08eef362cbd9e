package journeys

import (
	"time"

	"github.com/wayfarer-labs/wayfarer/internal/authz"
)

// Journey is a travel journal owned by exactly one user. The owner is
// never stored as a collaborator grant.
//
// Invariants maintained by the service: PassphraseHash is present iff
// Visibility is public_protected; PublicLinkID is present iff Visibility
// is not private.
type Journey struct {
	ID             int64            `json:"id"`
	OwnerID        int64            `json:"owner_id"`
	Title          string           `json:"title"`
	Description    *string          `json:"description,omitempty"`
	Visibility     authz.Visibility `json:"visibility"`
	PublicLinkID   *string          `json:"public_link_id,omitempty"`
	PassphraseHash *string          `json:"-"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// CreateJourneyRequest carries input for creating a journey.
type CreateJourneyRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
}

// UpdateJourneyRequest carries partial updates for a journey.
type UpdateJourneyRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
}

// SetPassphraseRequest carries the plaintext passphrase for a protected
// journey. Only the salted hash is ever stored.
type SetPassphraseRequest struct {
	Passphrase string `json:"passphrase" validate:"required,min=6"`
}

package collab

import (
	"time"

	"github.com/wayfarer-labs/wayfarer/internal/authz"
)

// Grant is a per-journey, per-user permission set. The pair
// (journey_id, user_id) is unique at the store level; the journey owner
// never appears here.
type Grant struct {
	JourneyID   int64               `json:"journey_id"`
	UserID      int64               `json:"user_id"`
	Permissions authz.PermissionSet `json:"-"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// AddCollaboratorRequest carries input for adding a collaborator.
// Permissions and the legacy flags are alternatives: when Permissions is
// empty the flags are consulted instead.
type AddCollaboratorRequest struct {
	UserID      int64        `json:"user_id" validate:"required,gt=0"`
	Permissions []string     `json:"permissions,omitempty"`
	Flags       *LegacyFlags `json:"flags,omitempty"`
}

// UpdateCollaboratorRequest fully replaces a grant's permission set.
type UpdateCollaboratorRequest struct {
	Permissions []string     `json:"permissions,omitempty"`
	Flags       *LegacyFlags `json:"flags,omitempty"`
}

// LegacyFlags is the historical four-flag collaborator shorthand, kept as
// a convenience mapping onto the general permission set.
type LegacyFlags struct {
	CanReadPosts    bool `json:"can_read_posts"`
	CanPublishPosts bool `json:"can_publish_posts"`
	CanModifyPost   bool `json:"can_modify_post"`
	CanDeletePosts  bool `json:"can_delete_posts"`
}

// Permissions expands the flags into the permission set they stand for.
func (f LegacyFlags) Permissions() authz.PermissionSet {
	set := make(authz.PermissionSet)
	if f.CanReadPosts {
		set.Add(authz.PermReadPosts)
	}
	if f.CanPublishPosts {
		set.Add(authz.PermCreatePost)
		set.Add(authz.PermPublishPostOnJourney)
	}
	if f.CanModifyPost {
		set.Add(authz.PermEditPost)
	}
	if f.CanDeletePosts {
		set.Add(authz.PermDeletePost)
	}
	return set
}

package authz

import (
	"context"
	"errors"
	"fmt"
)

// ownerPermissions are allowed to the journey owner for the journey and
// every post inside it, regardless of grant state.
var ownerPermissions = NewPermissionSet(
	PermCreatePost,
	PermEditPost,
	PermDeletePost,
	PermEditJourney,
	PermDeleteJourney,
	PermManageJourneyAccess,
	PermPublishPostOnJourney,
	PermReadPosts,
)

// Engine combines the principal, the journey snapshot, the collaborator
// grant table and the public access gate into a single allow/deny outcome.
// It holds no mutable state; every call re-reads the stores.
type Engine struct {
	journeys JourneyStore
	grants   GrantStore
	compare  PassphraseComparer
}

// NewEngine constructs an Engine over the given store ports.
func NewEngine(journeys JourneyStore, grants GrantStore, compare PassphraseComparer) *Engine {
	return &Engine{journeys: journeys, grants: grants, compare: compare}
}

// Decide evaluates whether principal may perform perm on res. A nil
// principal is the anonymous visitor; a nil res is an operation not scoped
// to any journey. The rules run in a strict precedence order and the first
// match wins:
//
//  1. anonymous: writes always deny, reads go through the public gate
//  2. manage_roles super-override
//  3. global admin-scoped ("any") match
//  4. journey ownership
//  5. collaborator grant match
//  6. implicit create_journey for any authenticated principal
//  7. post author override for edit_post/delete_post
//  8. deny
//
// The supplied passphrase is consulted only on the anonymous path. Store
// failures are returned as errors, never folded into a denial.
func (e *Engine) Decide(ctx context.Context, principal *Principal, res Resource, perm Permission, passphrase *string) (Decision, error) {
	if !perm.Valid() {
		return Deny(ReasonValidationError), nil
	}

	// Rule 1: anonymous path.
	if principal == nil {
		if perm != PermReadPosts {
			return Deny(ReasonAuthenticationRequired), nil
		}
		journey, err := e.resolveJourney(ctx, res)
		if err != nil {
			return Decision{}, err
		}
		if journey == nil {
			return Deny(ReasonResourceNotFound), nil
		}
		return e.VerifyAnonymousAccess(journey, passphrase), nil
	}

	// Rule 2: the super-override bypasses every resource-scoped nuance.
	if principal.HasGlobal(PermManageRoles) {
		return Allow(), nil
	}

	// Rule 3: admin-scoped global match, either the requested permission
	// itself or its "any" counterpart.
	if perm.AdminScoped() && principal.HasGlobal(perm) {
		return Allow(), nil
	}
	if counterpart, ok := perm.AnyCounterpart(); ok && principal.HasGlobal(counterpart) {
		return Allow(), nil
	}

	var journey *JourneyAccess
	if res != nil {
		var err error
		journey, err = e.resolveJourney(ctx, res)
		if err != nil {
			return Decision{}, err
		}
		if journey == nil {
			return Deny(ReasonResourceNotFound), nil
		}

		// Rule 4: ownership, transitive from journey to its posts.
		if journey.OwnerID == principal.ID && ownerPermissions.Has(perm) {
			return Allow(), nil
		}

		// Rule 5: collaborator grant match. Holding any grant at all
		// implies read access.
		grant, err := e.grants.Grant(ctx, journey.ID, principal.ID)
		if err != nil {
			return Decision{}, fmt.Errorf("authz: grant lookup: %w", err)
		}
		if grant != nil {
			if grant.Permissions.Has(perm) {
				return Allow(), nil
			}
			if perm == PermReadPosts {
				return Allow(), nil
			}
		}
	}

	// Rule 6: any authenticated principal may create their own journey.
	if perm == PermCreateJourney {
		return Allow(), nil
	}

	// Rule 7: an author may always edit or delete their own post.
	if post, ok := res.(PostRef); ok {
		if (perm == PermEditPost || perm == PermDeletePost) && post.AuthorID == principal.ID {
			return Allow(), nil
		}
	}

	return Deny(ReasonInsufficientPermission), nil
}

// VerifyAnonymousAccess checks an anonymous read attempt against a
// journey's visibility state. Private journeys report not-found so their
// existence never leaks.
func (e *Engine) VerifyAnonymousAccess(journey *JourneyAccess, passphrase *string) Decision {
	switch journey.Visibility {
	case VisibilityPublicOpen:
		return Allow()
	case VisibilityPublicProtected:
		if passphrase == nil || *passphrase == "" {
			return Deny(ReasonPassphraseRequired)
		}
		if journey.PassphraseHash == nil || !e.compare.Compare(*passphrase, *journey.PassphraseHash) {
			return Deny(ReasonPassphraseIncorrect)
		}
		return Allow()
	default:
		return Deny(ReasonResourceNotFound)
	}
}

func (e *Engine) resolveJourney(ctx context.Context, res Resource) (*JourneyAccess, error) {
	if res == nil {
		return nil, nil
	}
	journey, err := e.journeys.JourneyAccess(ctx, res.journeyID())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("authz: journey lookup: %w", err)
	}
	return journey, nil
}

package authz

import (
	"fmt"
	"sort"
)

// Permission is one value from the closed permission catalog.
type Permission string

// Resource-scoped permissions. These are meaningful both globally (via a
// role) and per journey (via a collaborator grant).
const (
	PermCreatePost           Permission = "create_post"
	PermEditPost             Permission = "edit_post"
	PermDeletePost           Permission = "delete_post"
	PermCreateJourney        Permission = "create_journey"
	PermEditJourney          Permission = "edit_journey"
	PermDeleteJourney        Permission = "delete_journey"
	PermManageJourneyAccess  Permission = "manage_journey_access"
	PermPublishPostOnJourney Permission = "publish_post_on_journey"
	PermReadPosts            Permission = "read_posts"
)

// Admin-scoped permissions. Meaningful only as global role permissions.
const (
	PermEditAnyJourney   Permission = "edit_any_journey"
	PermDeleteAnyJourney Permission = "delete_any_journey"
	PermEditAnyPost      Permission = "edit_any_post"
	PermDeleteAnyPost    Permission = "delete_any_post"
	PermManageUsers      Permission = "manage_users"
	PermManageRoles      Permission = "manage_roles"
)

var catalog = map[Permission]struct{}{
	PermCreatePost:           {},
	PermEditPost:             {},
	PermDeletePost:           {},
	PermCreateJourney:        {},
	PermEditJourney:          {},
	PermDeleteJourney:        {},
	PermManageJourneyAccess:  {},
	PermPublishPostOnJourney: {},
	PermReadPosts:            {},
	PermEditAnyJourney:       {},
	PermDeleteAnyJourney:     {},
	PermEditAnyPost:          {},
	PermDeleteAnyPost:        {},
	PermManageUsers:          {},
	PermManageRoles:          {},
}

// adminScoped marks permissions that only ever apply globally.
var adminScoped = map[Permission]struct{}{
	PermEditAnyJourney:   {},
	PermDeleteAnyJourney: {},
	PermEditAnyPost:      {},
	PermDeleteAnyPost:    {},
	PermManageUsers:      {},
	PermManageRoles:      {},
}

// anyCounterpart maps a resource-scoped permission to its admin-wide form.
var anyCounterpart = map[Permission]Permission{
	PermEditJourney:   PermEditAnyJourney,
	PermDeleteJourney: PermDeleteAnyJourney,
	PermEditPost:      PermEditAnyPost,
	PermDeletePost:    PermDeleteAnyPost,
}

// Valid reports whether p is part of the closed catalog.
func (p Permission) Valid() bool {
	_, ok := catalog[p]
	return ok
}

// AdminScoped reports whether p carries the admin-wide qualifier.
func (p Permission) AdminScoped() bool {
	_, ok := adminScoped[p]
	return ok
}

// AnyCounterpart returns the admin-wide form of p, if one exists.
func (p Permission) AnyCounterpart() (Permission, bool) {
	c, ok := anyCounterpart[p]
	return c, ok
}

// ParsePermission validates a raw permission name against the catalog. An
// unknown name is rejected here, at the store boundary, so it can never
// silently fail to match during a decision.
func ParsePermission(name string) (Permission, error) {
	p := Permission(name)
	if !p.Valid() {
		return "", fmt.Errorf("authz: unknown permission %q", name)
	}
	return p, nil
}

// Catalog returns every known permission sorted by name.
func Catalog() []Permission {
	perms := make([]Permission, 0, len(catalog))
	for p := range catalog {
		perms = append(perms, p)
	}
	sort.Slice(perms, func(i, j int) bool { return perms[i] < perms[j] })
	return perms
}

// PermissionSet is an unordered collection of permissions.
type PermissionSet map[Permission]struct{}

// NewPermissionSet builds a set from the given permissions.
func NewPermissionSet(perms ...Permission) PermissionSet {
	set := make(PermissionSet, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// ParsePermissionSet validates raw names into a set.
func ParsePermissionSet(names []string) (PermissionSet, error) {
	set := make(PermissionSet, len(names))
	for _, name := range names {
		p, err := ParsePermission(name)
		if err != nil {
			return nil, err
		}
		set[p] = struct{}{}
	}
	return set, nil
}

// Has reports whether the set contains p.
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// Add inserts p into the set.
func (s PermissionSet) Add(p Permission) {
	s[p] = struct{}{}
}

// Names returns the sorted string form of the set.
func (s PermissionSet) Names() []string {
	names := make([]string, 0, len(s))
	for p := range s {
		names = append(names, string(p))
	}
	sort.Strings(names)
	return names
}

package authz

// Principal is an authenticated identity with its resolved global
// permission set. It is built once per request by the principal resolver
// and threaded explicitly through every call that needs it; a nil
// *Principal is the anonymous visitor.
type Principal struct {
	ID           int64
	RoleID       int64
	IsSuperAdmin bool
	Global       PermissionSet
}

// HasGlobal reports whether the principal's role grants p globally.
func (p *Principal) HasGlobal(perm Permission) bool {
	if p == nil {
		return false
	}
	return p.Global.Has(perm)
}

// Resource identifies the target of an authorization check. A nil Resource
// means the operation is not scoped to any journey (create_journey).
type Resource interface {
	journeyID() int64
}

// JourneyRef references a journey by id.
type JourneyRef struct {
	ID int64
}

func (r JourneyRef) journeyID() int64 { return r.ID }

// PostRef references a post together with its resolved journey and author,
// looked up by the caller before the decision.
type PostRef struct {
	ID        int64
	JourneyID int64
	AuthorID  int64
}

func (r PostRef) journeyID() int64 { return r.JourneyID }

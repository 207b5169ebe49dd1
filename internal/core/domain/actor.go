package domain

// Actor is the authenticated identity behind the current request.
// It is derived from credentials and never persisted.
type Actor struct {
	ID   int64
	Role Role
}

// IsAdmin reports whether the actor carries the ADMIN role.
func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

package permissions

import "github.com/northfarm/sales-backend/pkg/enums"

// Actor identifies the user performing a ledger operation, as derived from
// the request's verified claims. Role is read freshly per request; nothing
// here is cached across calls.
type Actor struct {
	Username string
	Role     enums.ActorRole
}

// IsAdmin reports whether the actor holds the administrator role.
func (a Actor) IsAdmin() bool {
	return a.Role == enums.ActorRoleAdmin
}

// Known reports whether the actor carries a usable identity.
func (a Actor) Known() bool {
	return a.Username != "" && a.Role.IsValid()
}

// CanMutate decides whether the actor may record or delete an entry on a
// date with the given closed status: open dates are writable by anyone,
// closed dates only by an administrator.
func CanMutate(actor Actor, closed bool) bool {
	if !actor.Known() {
		return false
	}
	return !closed || actor.IsAdmin()
}

// CanClose decides whether the actor may close a day. Any authenticated
// actor may close; staff self-close their own books at end of day.
func CanClose(actor Actor) bool {
	return actor.Known()
}

// CanReopen decides whether the actor may reopen a closed day. Reopening is
// the privileged half of the one-way ratchet: staff can lock a day, only an
// administrator can unlock it.
func CanReopen(actor Actor) bool {
	return actor.Known() && actor.IsAdmin()
}

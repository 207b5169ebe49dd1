// Package policy decides whether an actor may perform an action on a resource.
//
// Reads are open to any authenticated actor. Writes and deletes require
// ownership, with ADMIN accepted as a fallback predicate for ads and
// comments. Profiles are self-service only.
package policy

import (
	"github.com/skyads/marketplace/internal/core/domain"
)

// Action describes the kind of operation an actor wants to perform.
type Action string

const (
	ActionList   Action = "list"
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Decision is the outcome of a policy check.
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "ALLOW"
	}
	return "DENY"
}

// Ownable is implemented by every resource the policy can reason about.
type Ownable interface {
	OwnerID() int64
}

// Decide evaluates the policy. resource may be nil for list and create.
// The caller must have confirmed the resource exists.
func Decide(actor *domain.Actor, action Action, resource Ownable) Decision {
	if actor == nil {
		return Deny
	}

	switch action {
	case ActionList, ActionView, ActionCreate:
		return Allow
	case ActionUpdate, ActionDelete:
		if resource == nil {
			return Deny
		}
		if owns(actor, resource) || adminOverride(actor, resource) {
			return Allow
		}
	}
	return Deny
}

// Authorize is Decide expressed as an error: domain.ErrUnauthenticated when
// there is no actor, domain.ErrForbidden on deny.
func Authorize(actor *domain.Actor, action Action, resource Ownable) error {
	if actor == nil {
		return domain.ErrUnauthenticated
	}
	if Decide(actor, action, resource) == Deny {
		return domain.ErrForbidden
	}
	return nil
}

// RequireActor fails fast, before any store access, when the request is anonymous.
func RequireActor(actor *domain.Actor) error {
	if actor == nil {
		return domain.ErrUnauthenticated
	}
	return nil
}

func owns(actor *domain.Actor, resource Ownable) bool {
	return resource.OwnerID() == actor.ID
}

// adminOverride is checked only after ownership failed. Profiles are excluded:
// admins manage content, not other people's accounts.
func adminOverride(actor *domain.Actor, resource Ownable) bool {
	if _, isProfile := resource.(*domain.User); isProfile {
		return false
	}
	return actor.IsAdmin()
}

package policy_test

import (
	"errors"
	"testing"

	"github.com/skyads/marketplace/internal/core/domain"
	"github.com/skyads/marketplace/internal/core/policy"
)

var (
	owner    = &domain.Actor{ID: 1, Role: domain.RoleUser}
	stranger = &domain.Actor{ID: 2, Role: domain.RoleUser}
	admin    = &domain.Actor{ID: 3, Role: domain.RoleAdmin}
)

func TestDecide_ReadsOpenToAuthenticated(t *testing.T) {
	ad := &domain.Ad{ID: 10, OwnerUserID: 1}
	for _, a := range []*domain.Actor{owner, stranger, admin} {
		if policy.Decide(a, policy.ActionView, ad) != policy.Allow {
			t.Errorf("actor %d should view ad", a.ID)
		}
		if policy.Decide(a, policy.ActionList, nil) != policy.Allow {
			t.Errorf("actor %d should list", a.ID)
		}
		if policy.Decide(a, policy.ActionCreate, nil) != policy.Allow {
			t.Errorf("actor %d should create", a.ID)
		}
	}
}

func TestDecide_AnonymousDenied(t *testing.T) {
	ad := &domain.Ad{ID: 10, OwnerUserID: 1}
	for _, action := range []policy.Action{policy.ActionList, policy.ActionView, policy.ActionCreate, policy.ActionUpdate, policy.ActionDelete} {
		if policy.Decide(nil, action, ad) != policy.Deny {
			t.Errorf("anonymous %s must be denied", action)
		}
	}
	if err := policy.Authorize(nil, policy.ActionView, ad); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
	if err := policy.RequireActor(nil); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestDecide_WritesRequireOwnershipOrAdmin(t *testing.T) {
	resources := []policy.Ownable{
		&domain.Ad{ID: 10, OwnerUserID: 1},
		&domain.Comment{ID: 20, AdID: 10, OwnerUserID: 1},
	}
	cases := []struct {
		name  string
		actor *domain.Actor
		want  policy.Decision
	}{
		{"owner", owner, policy.Allow},
		{"stranger", stranger, policy.Deny},
		{"admin", admin, policy.Allow},
	}

	for _, res := range resources {
		for _, tc := range cases {
			for _, action := range []policy.Action{policy.ActionUpdate, policy.ActionDelete} {
				if got := policy.Decide(tc.actor, action, res); got != tc.want {
					t.Errorf("%T %s by %s: want %s, got %s", res, action, tc.name, tc.want, got)
				}
			}
		}
	}
}

func TestDecide_AdminNeverOverridesProfiles(t *testing.T) {
	profile := &domain.User{ID: 1, Role: domain.RoleUser}

	if policy.Decide(owner, policy.ActionUpdate, profile) != policy.Allow {
		t.Error("user must be able to update own profile")
	}
	if policy.Decide(admin, policy.ActionUpdate, profile) != policy.Deny {
		t.Error("admin must not update another user's profile")
	}
	if err := policy.Authorize(stranger, policy.ActionUpdate, profile); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestDecide_WriteWithoutResourceDenied(t *testing.T) {
	if policy.Decide(admin, policy.ActionDelete, nil) != policy.Deny {
		t.Error("delete without a resource must be denied")
	}
}

func TestDecision_String(t *testing.T) {
	if policy.Allow.String() != "ALLOW" || policy.Deny.String() != "DENY" {
		t.Error("unexpected decision names")
	}
}

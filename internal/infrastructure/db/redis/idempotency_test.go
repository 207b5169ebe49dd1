package redis

import (
	"testing"
	"time"
)

func TestIdempotencyKey_ScopedByUser(t *testing.T) {
	if got := idempotencyKey(42, "abc"); got != "idem:42:abc" {
		t.Errorf("unexpected key %q", got)
	}
	if idempotencyKey(1, "k") == idempotencyKey(2, "k") {
		t.Error("keys of different users must not collide")
	}
}

func TestNewIdempotencyStore_DefaultTTL(t *testing.T) {
	s := NewIdempotencyStore(nil, 0)
	if s.ttl != defaultIdempotencyTTL {
		t.Errorf("expected default ttl, got %v", s.ttl)
	}
	if s := NewIdempotencyStore(nil, time.Minute); s.ttl != time.Minute {
		t.Errorf("expected configured ttl, got %v", s.ttl)
	}
}

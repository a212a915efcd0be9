package session

import (
	"errors"
	"testing"
	"time"

	"github.com/Ahmad-Bilal009/SiteNative-Task/internal/domain"
)

func TestIssueAndResolve(t *testing.T) {
	m := Manager{Secret: "test-secret"}
	token, err := m.Issue("u-1", domain.RoleDeveloper)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	actor, err := m.Resolve(token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if actor.ID != "u-1" || actor.Role != domain.RoleDeveloper {
		t.Fatalf("unexpected actor %+v", actor)
	}
}

func TestResolveExpiredToken(t *testing.T) {
	issued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := Manager{Secret: "test-secret", TTL: time.Hour, Now: func() time.Time { return issued }}
	token, err := m.Issue("u-1", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	m.Now = func() time.Time { return issued.Add(2 * time.Hour) }
	if _, err := m.Resolve(token); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestResolveWrongSecret(t *testing.T) {
	token, err := Manager{Secret: "one"}.Issue("u-1", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := (Manager{Secret: "two"}).Resolve(token); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestResolveGarbage(t *testing.T) {
	m := Manager{Secret: "test-secret"}
	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := m.Resolve(tok); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("token %q: expected ErrUnauthenticated, got %v", tok, err)
		}
	}
}

func TestIssueRequiresSecret(t *testing.T) {
	if _, err := (Manager{}).Issue("u-1", domain.RoleAdmin); err == nil {
		t.Fatal("expected error without a secret")
	}
}

func TestBcryptHasherRoundTrip(t *testing.T) {
	h := BcryptHasher{Cost: 4}
	digest, err := h.Hash("hunter22")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if digest == "hunter22" {
		t.Fatal("digest must not be the plaintext")
	}
	if !h.Verify("hunter22", digest) {
		t.Fatal("correct password rejected")
	}
	if h.Verify("wrong", digest) {
		t.Fatal("wrong password accepted")
	}
}

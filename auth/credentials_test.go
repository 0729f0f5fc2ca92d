package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/nikshvein/personhub/auth"
	"github.com/nikshvein/personhub/internal/domain"
	"github.com/nikshvein/personhub/internal/errs"
)

func TestHashIsDeterministicAnd56Hex(t *testing.T) {
	h1 := auth.Hash("correct horse battery staple")
	h2 := auth.Hash("correct horse battery staple")
	if h1 != h2 {
		t.Fatalf("hash not deterministic: %q != %q", h1, h2)
	}
	if len(h1) != 56 {
		t.Fatalf("expected 56 hex characters, got %d (%q)", len(h1), h1)
	}
}

func TestVerify(t *testing.T) {
	user := domain.User{Username: "alice", PasswordHash: auth.Hash("pw")}

	if !auth.Verify(user, "pw") {
		t.Error("expected correct password to verify")
	}
	if auth.Verify(user, "wrong") {
		t.Error("expected incorrect password to fail verification")
	}
}

type fakeUserStore struct {
	byUsername map[string]domain.User
	nextID     int64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byUsername: map[string]domain.User{}}
}

func (f *fakeUserStore) FindUserByUsername(_ context.Context, username string) (*domain.User, error) {
	if u, ok := f.byUsername[username]; ok {
		return &u, nil
	}
	return nil, nil
}

func (f *fakeUserStore) ExistsUserByUsername(_ context.Context, username string) (bool, error) {
	_, ok := f.byUsername[username]
	return ok, nil
}

func (f *fakeUserStore) SaveUser(_ context.Context, username, passwordHash string) (*domain.User, error) {
	f.nextID++
	u := domain.User{ID: f.nextID, Username: username, PasswordHash: passwordHash}
	f.byUsername[username] = u
	return &u, nil
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	store := newFakeUserStore()
	svc := auth.New(store)

	if _, _, err := svc.Register(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	_, _, err := svc.Register(context.Background(), "alice", "pw2")
	if !errors.Is(err, errs.ErrDuplicateUser) {
		t.Fatalf("expected ErrDuplicateUser, got %v", err)
	}
}

func TestAuthenticateNeverRevealsWhichFieldFailed(t *testing.T) {
	store := newFakeUserStore()
	svc := auth.New(store)
	if _, _, err := svc.Register(context.Background(), "alice", "correct-password"); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := svc.Authenticate(context.Background(), domain.Credentials{Username: "ghost", Password: "anything"})
	if !errors.Is(err, errs.ErrAuth) {
		t.Fatalf("unknown user: expected ErrAuth, got %v", err)
	}

	_, err = svc.Authenticate(context.Background(), domain.Credentials{Username: "alice", Password: "wrong"})
	if !errors.Is(err, errs.ErrAuth) {
		t.Fatalf("wrong password: expected ErrAuth, got %v", err)
	}

	user, err := svc.Authenticate(context.Background(), domain.Credentials{Username: "alice", Password: "correct-password"})
	if err != nil {
		t.Fatalf("correct credentials: %v", err)
	}
	if user.Username != "alice" {
		t.Fatalf("expected alice, got %q", user.Username)
	}
}

// Package auth is the credential service (C3): hashing, constant-time
// verification, and registration against the user store. It never
// persists a plaintext password, and it never reveals whether a
// username or a password was the reason a login failed.
package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	zxcvbn "github.com/nbutton23/zxcvbn-go"

	"github.com/nikshvein/personhub/internal/domain"
	"github.com/nikshvein/personhub/internal/errs"
)

// UserStore is the slice of the persistence gateway the credential
// service depends on. Implemented by internal/store.Gateway.
type UserStore interface {
	FindUserByUsername(ctx context.Context, username string) (*domain.User, error)
	ExistsUserByUsername(ctx context.Context, username string) (bool, error)
	SaveUser(ctx context.Context, username, passwordHash string) (*domain.User, error)
}

// Service implements hash, verify, and register against a UserStore.
type Service struct {
	store UserStore
}

// New returns a credential service backed by store.
func New(store UserStore) *Service {
	return &Service{store: store}
}

// Hash returns the lower-case hex-encoded SHA-224 digest of plaintext.
// Deterministic and unsalted: preserved from the source contract (see
// DESIGN.md) so existing stored hashes remain verifiable.
func Hash(plaintext string) string {
	sum := sha256.Sum224([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// Verify reports whether plaintext hashes to user's stored hash, using a
// constant-time comparison so a timing side channel cannot distinguish a
// near match from a total mismatch.
func Verify(user domain.User, plaintext string) bool {
	want := []byte(strings.ToLower(user.PasswordHash))
	got := []byte(Hash(plaintext))
	if len(want) != len(got) {
		return false
	}
	return subtle.ConstantTimeCompare(want, got) == 1
}

// Authenticate resolves creds against the store. It never reveals
// whether the username or the password was wrong: any failure collapses
// to errs.ErrAuth.
func (s *Service) Authenticate(ctx context.Context, creds domain.Credentials) (domain.User, error) {
	user, err := s.store.FindUserByUsername(ctx, creds.Username)
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: %v", errs.ErrStoreUnavailable, err)
	}
	if user == nil || !Verify(*user, creds.Password) {
		return domain.User{}, errs.ErrAuth
	}
	return *user, nil
}

// PasswordWarning is an informational, non-blocking strength assessment
// surfaced alongside a successful registration. It never rejects a
// candidate password: field-level validation beyond wire/persistence
// needs is explicitly out of scope for this service.
type PasswordWarning struct {
	Weak  bool
	Score int
}

// Register creates a new User with the hashed password. It fails with
// errs.ErrDuplicateUser if the username is already taken.
func (s *Service) Register(ctx context.Context, username, plaintext string) (domain.User, PasswordWarning, error) {
	exists, err := s.store.ExistsUserByUsername(ctx, username)
	if err != nil {
		return domain.User{}, PasswordWarning{}, fmt.Errorf("%w: %v", errs.ErrStoreUnavailable, err)
	}
	if exists {
		return domain.User{}, PasswordWarning{}, errs.ErrDuplicateUser
	}

	warning := scoreStrength(username, plaintext)

	user, err := s.store.SaveUser(ctx, username, Hash(plaintext))
	if err != nil {
		return domain.User{}, warning, err
	}
	return *user, warning, nil
}

func scoreStrength(username, plaintext string) PasswordWarning {
	strength := zxcvbn.PasswordStrength(plaintext, []string{username})
	return PasswordWarning{
		Weak:  strength.Score < 3,
		Score: strength.Score,
	}
}

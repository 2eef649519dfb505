package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	authkit "github.com/Unfeir/authkit"
)

// Store is an in-memory [authkit.CredentialStore]. It satisfies the same
// contract as the PostgreSQL store: misses return errors wrapping
// [authkit.ErrIdentityNotFound], duplicate emails wrap
// [authkit.ErrEmailTaken], and returned identities are private copies.
type Store struct {
	mu         sync.RWMutex
	identities map[string]*authkit.Identity
	byEmail    map[string]string
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{
		identities: make(map[string]*authkit.Identity),
		byEmail:    make(map[string]string),
	}
}

// FindByEmail returns a copy of the identity registered under email.
func (s *Store) FindByEmail(ctx context.Context, email string) (*authkit.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, fmt.Errorf("%w: %s", authkit.ErrIdentityNotFound, email)
	}
	return clone(s.identities[id]), nil
}

// FindByID returns a copy of the identity with the given id.
func (s *Store) FindByID(ctx context.Context, id string) (*authkit.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	identity, ok := s.identities[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", authkit.ErrIdentityNotFound, id)
	}
	return clone(identity), nil
}

// Create registers a new identity, assigning the id and creation time. The
// input is not mutated; the stored record is returned as a copy.
func (s *Store) Create(ctx context.Context, identity *authkit.Identity) (*authkit.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[identity.Email]; ok {
		return nil, fmt.Errorf("%w: %s", authkit.ErrEmailTaken, identity.Email)
	}

	stored := clone(identity)
	stored.ID = uuid.NewString()
	stored.CreatedAt = time.Now().UTC()
	s.identities[stored.ID] = stored
	s.byEmail[stored.Email] = stored.ID
	return clone(stored), nil
}

// Save replaces the stored record for identity.ID wholesale. Saving an
// unknown id fails; changing the email to one already held by another
// identity fails with [authkit.ErrEmailTaken].
func (s *Store) Save(ctx context.Context, identity *authkit.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.identities[identity.ID]
	if !ok {
		return fmt.Errorf("%w: %s", authkit.ErrIdentityNotFound, identity.ID)
	}

	if identity.Email != current.Email {
		if other, taken := s.byEmail[identity.Email]; taken && other != identity.ID {
			return fmt.Errorf("%w: %s", authkit.ErrEmailTaken, identity.Email)
		}
		delete(s.byEmail, current.Email)
		s.byEmail[identity.Email] = identity.ID
	}

	s.identities[identity.ID] = clone(identity)
	return nil
}

// Len reports the number of stored identities.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.identities)
}

var _ authkit.CredentialStore = (*Store)(nil)

// clone deep-copies an identity so callers and the store never share the
// token pointer slots.
func clone(identity *authkit.Identity) *authkit.Identity {
	if identity == nil {
		return nil
	}
	out := *identity
	if identity.RefreshToken != nil {
		v := *identity.RefreshToken
		out.RefreshToken = &v
	}
	if identity.PasswordResetToken != nil {
		v := *identity.PasswordResetToken
		out.PasswordResetToken = &v
	}
	return &out
}

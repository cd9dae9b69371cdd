// Package session holds the authenticated identity and bearer token for the
// active profile. The pair is set and cleared atomically: a non-empty token
// always comes with a populated identity, and both survive restarts via the
// profile database.
package session

import (
	"fmt"
	"sync"

	"crafthub/internal/bus"
	"crafthub/internal/store"
)

// Role is the marketplace role carried in the session identity.
type Role string

const (
	RoleBuyer  Role = "BUYER"
	RoleSeller Role = "SELLER"
	RoleAdmin  Role = "ADMIN"
)

// Identity describes the authenticated user.
type Identity struct {
	Email    string
	FullName string
	Role     Role
}

// Store owns the session credential pair. It is the only writer of the
// persisted record; every other component reads through it.
type Store struct {
	mu    sync.RWMutex
	db    *store.DB
	bus   *bus.Bus
	ident *Identity
	token string
}

// New creates the session store, loading any credentials persisted by a
// previous run so a restart does not force re-login.
func New(db *store.DB, b *bus.Bus) (*Store, error) {
	s := &Store{db: db, bus: b}
	creds, err := db.LoadCredentials()
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	if creds != nil {
		s.ident = &Identity{Email: creds.Email, FullName: creds.FullName, Role: Role(creds.Role)}
		s.token = creds.Token
	}
	return s, nil
}

// SetAuth installs identity and token together. It is the sole write path
// for the pair; login, registration and the OAuth token hand-off all funnel
// through here.
func (s *Store) SetAuth(ident Identity, token string) error {
	if token == "" || ident.Email == "" {
		return fmt.Errorf("refusing partial session: token and identity are set together")
	}
	s.mu.Lock()
	err := s.db.SaveCredentials(&store.Credentials{
		Token:    token,
		Email:    ident.Email,
		FullName: ident.FullName,
		Role:     string(ident.Role),
	})
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("persist credentials: %w", err)
	}
	s.ident = &ident
	s.token = token
	s.mu.Unlock()

	s.bus.Publish(bus.Now(bus.KindSessionChanged, ident))
	return nil
}

// Logout clears identity and token. Dependent stores (the cart) subscribe to
// the published event and drop their local state so nothing authenticated
// leaks into the next anonymous session.
func (s *Store) Logout() error {
	if err := s.clear(); err != nil {
		return err
	}
	s.bus.Publish(bus.Now(bus.KindSessionCleared, nil))
	return nil
}

// Expire is the gateway's variant of Logout, invoked when the server answers
// 401 or 403. The distinct event kind lets the UI route to the login view.
func (s *Store) Expire() {
	if err := s.clear(); err != nil {
		// Credential file trouble at expiry time is not actionable here.
		return
	}
	s.bus.Publish(bus.Now(bus.KindSessionExpired, nil))
	s.bus.Publish(bus.Now(bus.KindSessionCleared, nil))
}

func (s *Store) clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.DeleteCredentials(); err != nil {
		return fmt.Errorf("delete credentials: %w", err)
	}
	s.ident = nil
	s.token = ""
	return nil
}

// Token returns the bearer token, or "" when anonymous.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Identity returns the authenticated identity, ok=false when anonymous.
func (s *Store) Identity() (Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ident == nil {
		return Identity{}, false
	}
	return *s.ident, true
}

// Authenticated reports whether a session is present.
func (s *Store) Authenticated() bool {
	_, ok := s.Identity()
	return ok
}

// Package session holds the process-wide authentication state: the bearer
// token and user identity persisted together under a well-known file. The
// pair is set once at login, read by every backend request, and cleared
// atomically on logout or auth expiry.
package session

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// User identifies the authenticated account.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// credentials is the on-disk shape of the session file.
type credentials struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Store is the process-wide session state. All methods are safe for
// concurrent use.
type Store struct {
	path string
	log  *slog.Logger

	mu    sync.RWMutex
	token string
	user  User

	hookMu   sync.Mutex
	onExpire []func()
}

// Open loads the session file at path, if present, and returns a Store.
// A missing or unreadable file yields an anonymous session.
func Open(path string, log *slog.Logger) *Store {
	s := &Store{path: path, log: log}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("reading session file", "path", path, "error", err)
		}
		return s
	}

	var creds credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		log.Warn("parsing session file", "path", path, "error", err)
		return s
	}

	s.token = creds.Token
	s.user = creds.User
	return s
}

// Token returns the current bearer token, or "" when anonymous. Callers must
// read the token at request time rather than caching it.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the current user identity.
func (s *Store) User() User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// SetCredentials stores a new token and user pair and persists them. This is
// the login transition.
func (s *Store) SetCredentials(token string, user User) error {
	s.mu.Lock()
	s.token = token
	s.user = user
	s.mu.Unlock()
	return s.persist(credentials{Token: token, User: user})
}

// Clear removes the token and user together and deletes the session file.
// This is the logout transition.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.token = ""
	s.user = User{}
	s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Expire handles the auth-expired transition triggered by an HTTP 401/403:
// credentials are cleared and registered hooks run once. Repeated calls while
// already anonymous are no-ops, so a burst of rejected requests fires the
// hooks a single time.
func (s *Store) Expire() {
	s.mu.Lock()
	if s.token == "" {
		s.mu.Unlock()
		return
	}
	s.token = ""
	s.user = User{}
	s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		s.log.Warn("removing session file", "path", s.path, "error", err)
	}
	s.log.Info("session expired, credentials cleared")

	s.hookMu.Lock()
	hooks := append([]func(){}, s.onExpire...)
	s.hookMu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}

// OnExpire registers a hook invoked when the session expires.
func (s *Store) OnExpire(fn func()) {
	s.hookMu.Lock()
	s.onExpire = append(s.onExpire, fn)
	s.hookMu.Unlock()
}

func (s *Store) persist(creds credentials) error {
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

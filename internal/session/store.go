package session

import "sync"

// Logger defines the logging interface used by the Store.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Store is the in-memory session table, keyed by user ID.
//
// It is the single owner of all Session values; readers receive deep-copy
// snapshots and can never observe a half-written update. There is no expiry
// sweep and no background eviction — sessions leave the table only through
// Delete (logout) or an overwriting Create (re-login).
//
// All public methods are thread-safe.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	logger   Logger
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the store.
func (s *Store) SetLogger(logger Logger) {
	s.logger = logger
}

// Create installs a session for the user, overwriting any existing one.
// A re-login therefore replaces the previous session wholesale — identity,
// both credential families, and the refresh token.
func (s *Store) Create(userID string, sess Session) {
	s.mu.Lock()
	clone := sess.Clone()
	s.sessions[userID] = &clone
	count := len(s.sessions)
	s.mu.Unlock()

	s.logger.Debug("session created", "user_id", userID, "total_sessions", count)
}

// Get returns a consistent snapshot of the user's session.
// The second return value is false when no session exists.
func (s *Store) Get(userID string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return Session{}, false
	}
	return sess.Clone(), true
}

// Update applies a partial update to the user's session. Fields not named in
// the patch are left untouched. Updating a missing session is a no-op — it
// never creates one.
//
// The patch is applied under the write lock, so a refreshed access credential
// and its reissued refresh token become visible to readers together or not
// at all.
func (s *Store) Update(userID string, patch Patch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return
	}

	if patch.Management != nil {
		sess.Management = *patch.Management
	}
	if patch.Access != nil {
		sess.Access = *patch.Access
	}
	if patch.RefreshToken != nil {
		sess.RefreshToken = *patch.RefreshToken
	}
}

// Delete removes the user's session. Deleting a missing session is a no-op.
func (s *Store) Delete(userID string) {
	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()

	s.logger.Debug("session deleted", "user_id", userID)
}

// Count returns the number of live sessions.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

package session

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// RefreshedCredential is the result of a successful upstream refresh.
type RefreshedCredential struct {
	Credential

	// RefreshToken is the reissued refresh token, or empty when the
	// upstream did not issue a new one.
	RefreshToken string
}

// Refresher exchanges a refresh token for a new access credential against
// the identity provider.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (RefreshedCredential, error)
}

// Manager decides whether a held credential is usable and performs the
// upstream refresh when it is not.
//
// The check-then-refresh sequence for a given user runs under a per-user
// mutex. Cross-user operations never contend with each other.
type Manager struct {
	store     *Store
	refresher Refresher
	logger    Logger

	// locks holds one mutex per user seen. Entries are never reaped; the
	// map is bounded by the number of distinct users over the process
	// lifetime, which matches the session table's own bound.
	locks   map[string]*sync.Mutex
	locksMu sync.Mutex

	// now is swappable for tests.
	now func() time.Time
}

// NewManager creates a lifecycle manager over the given store.
func NewManager(store *Store, refresher Refresher) *Manager {
	return &Manager{
		store:     store,
		refresher: refresher,
		logger:    noopLogger{},
		locks:     make(map[string]*sync.Mutex),
		now:       time.Now,
	}
}

// SetLogger sets the logger for the manager.
func (m *Manager) SetLogger(logger Logger) {
	m.logger = logger
}

// userLock returns the mutex for a user, creating it on first use.
func (m *Manager) userLock(userID string) *sync.Mutex {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()

	lock, ok := m.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[userID] = lock
	}
	return lock
}

// EnsureLive returns a usable credential of the requested family for the
// user, refreshing it first when expired.
//
// Outcomes:
//   - Live credential: returned unchanged, no network call.
//   - Expired, no refresh path: ErrCredentialUnrenewable, no network call.
//     The management family always lands here — Keyrock issues no refresh
//     token for it.
//   - Expired, refresh token present (access family only): one upstream
//     refresh call. On success the store is updated atomically and the new
//     credential returned; on failure ErrRefreshFailed.
//
// Parameters:
//   - ctx: Context for the upstream refresh call
//   - userID: Session key
//   - family: FamilyAccess or FamilyManagement
//
// Returns:
//   - Credential: A credential that was live at the moment of the check
//   - error: ErrSessionNotFound, ErrCredentialUnrenewable, ErrRefreshFailed,
//     or ErrUnknownFamily
func (m *Manager) EnsureLive(ctx context.Context, userID string, family Family) (Credential, error) {
	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	sess, ok := m.store.Get(userID)
	if !ok {
		return Credential{}, ErrSessionNotFound
	}

	var cred Credential
	switch family {
	case FamilyManagement:
		cred = sess.Management
	case FamilyAccess:
		cred = sess.Access
	default:
		return Credential{}, fmt.Errorf("%w: %q", ErrUnknownFamily, family)
	}

	if !cred.Expired(m.now()) {
		return cred, nil
	}

	// The management token has no refresh grant, and an access token
	// without a refresh token is equally stuck. Either way: log in again.
	if family == FamilyManagement || sess.RefreshToken == "" {
		return Credential{}, ErrCredentialUnrenewable
	}

	refreshed, err := m.refresher.Refresh(ctx, sess.RefreshToken)
	if err != nil {
		m.logger.Warn("access credential refresh failed", "user_id", userID, "error", err)
		return Credential{}, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	patch := Patch{Access: &refreshed.Credential}
	if refreshed.RefreshToken != "" {
		patch.RefreshToken = &refreshed.RefreshToken
	}
	m.store.Update(userID, patch)

	m.logger.Debug("access credential refreshed", "user_id", userID, "expires_at", refreshed.ExpiresAt)
	return refreshed.Credential, nil
}

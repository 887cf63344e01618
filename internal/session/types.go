package session

import "time"

// Identity is the public identity of an authenticated user, as reported by
// the identity provider at login. It is immutable for the lifetime of a
// session; a re-login replaces the whole session including the identity.
type Identity struct {
	UserID   string   `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

// Clone returns a deep copy of the identity. Roles is the only reference
// field; upstream may hand back duplicates, which are preserved as-is.
func (i Identity) Clone() Identity {
	c := i
	if i.Roles != nil {
		c.Roles = make([]string, len(i.Roles))
		copy(c.Roles, i.Roles)
	}
	return c
}

// Credential is one opaque upstream token and its expiry.
type Credential struct {
	Token     string
	ExpiresAt time.Time
}

// Expired reports whether the credential is expired at the given instant.
// The boundary is inclusive: a credential whose expiry equals now is expired.
func (c Credential) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Family identifies one of the two upstream credential families held per
// session.
type Family string

const (
	// FamilyManagement is the Keyrock administration token.
	FamilyManagement Family = "management"

	// FamilyAccess is the OAuth2 token used against the PEP proxy.
	FamilyAccess Family = "access"
)

// Session is the per-user record owned by the Store. Exactly one session
// exists per user ID; a new login overwrites it wholesale.
type Session struct {
	Identity   Identity
	Management Credential
	Access     Credential

	// RefreshToken renews the access credential. Empty means the access
	// credential cannot be renewed once expired.
	RefreshToken string
}

// Clone returns a deep copy of the session.
func (s Session) Clone() Session {
	c := s
	c.Identity = s.Identity.Clone()
	return c
}

// Patch is a partial session update. Nil fields are left untouched; the
// identity and any credential family not named in the patch survive the
// update unchanged.
type Patch struct {
	Management   *Credential
	Access       *Credential
	RefreshToken *string
}

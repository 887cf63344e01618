package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/ssio-project/fiware-gateway/internal/fiware/keyrock"
	"github.com/ssio-project/fiware-gateway/internal/session"
)

// identityProvider is the slice of the Keyrock client the service needs.
// Narrowed for testability; satisfied by *keyrock.Client.
type identityProvider interface {
	Authenticate(ctx context.Context, email, password string) (session.Credential, error)
	OAuth2Token(ctx context.Context, email, password string) (keyrock.OAuth2Tokens, error)
	UserInfo(ctx context.Context, accessToken string) (keyrock.UserProfile, error)
	UserRoles(ctx context.Context, userID, managementToken string) ([]string, error)
}

// Logger is the subset of logging used by the service.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// LoginResult is what a successful sign-in hands back to the client.
type LoginResult struct {
	Token     string
	ExpiresIn int
	Identity  session.Identity
}

// Service runs the sign-in exchange and manages gateway JWTs.
//
// Thread Safety: All methods are safe for concurrent use from multiple
// goroutines.
type Service struct {
	keyrock  identityProvider
	store    *session.Store
	sessions *session.Manager
	secret   string
	ttl      time.Duration
	logger   Logger
}

// NewService wires the authentication service.
//
// Parameters:
//   - kc: Keyrock client
//   - store: Session store shared with the proxy handlers
//   - sessions: Token lifecycle manager for lazy refresh
//   - secret: HS256 signing secret for gateway JWTs
//   - ttl: Gateway JWT lifetime
func NewService(kc identityProvider, store *session.Store, sessions *session.Manager, secret string, ttl time.Duration) *Service {
	return &Service{
		keyrock:  kc,
		store:    store,
		sessions: sessions,
		secret:   secret,
		ttl:      ttl,
		logger:   noopLogger{},
	}
}

// SetLogger installs a logger. Without one the service is silent.
func (s *Service) SetLogger(logger Logger) {
	s.logger = logger
}

// Login authenticates a user against Keyrock and establishes a session.
//
// The exchange runs in order: management token, OAuth2 password grant,
// profile fetch, role fetch, session creation, JWT mint. The first four
// steps talk to Keyrock; a failure in any of them aborts the login and no
// session is created. Role fetch is the exception: when it fails the user
// still signs in with the baseline "user" role, because a degraded
// Keyrock role API should not lock everyone out.
//
// Returns keyrock.ErrInvalidCredentials for bad credentials and
// fiware.ErrUnavailable when Keyrock is unreachable.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	management, err := s.keyrock.Authenticate(ctx, email, password)
	if err != nil {
		return LoginResult{}, fmt.Errorf("management token: %w", err)
	}

	tokens, err := s.keyrock.OAuth2Token(ctx, email, password)
	if err != nil {
		return LoginResult{}, fmt.Errorf("oauth2 grant: %w", err)
	}

	profile, err := s.keyrock.UserInfo(ctx, tokens.AccessToken)
	if err != nil {
		return LoginResult{}, fmt.Errorf("user profile: %w", err)
	}

	roles, err := s.keyrock.UserRoles(ctx, profile.ID, management.Token)
	if err != nil || len(roles) == 0 {
		if err != nil {
			s.logger.Warn("role fetch failed, using baseline role",
				"user_id", profile.ID, "error", err)
		}
		roles = []string{"user"}
	}

	identity := session.Identity{
		UserID:   profile.ID,
		Username: profile.Username,
		Email:    profile.Email,
		Roles:    roles,
	}

	s.store.Create(profile.ID, session.Session{
		Identity:   identity,
		Management: management,
		Access: session.Credential{
			Token:     tokens.AccessToken,
			ExpiresAt: tokens.ExpiresAt,
		},
		RefreshToken: tokens.RefreshToken,
	})

	// An unset TTL tracks the upstream access token lifetime.
	ttl := s.ttl
	if ttl <= 0 {
		ttl = time.Duration(tokens.ExpiresIn) * time.Second
	}

	token, err := MintToken(identity, s.secret, ttl)
	if err != nil {
		s.store.Delete(profile.ID)
		return LoginResult{}, err
	}

	s.logger.Info("user signed in", "user_id", profile.ID, "username", profile.Username)

	return LoginResult{
		Token:     token,
		ExpiresIn: int(ttl.Seconds()),
		Identity:  identity,
	}, nil
}

// Me returns the profile of a signed-in user.
//
// The access credential is refreshed first if it lapsed, then the profile
// is re-read from Keyrock so the answer reflects upstream state, not the
// snapshot taken at login. A failed profile fetch falls back to the
// session snapshot: a Keyrock outage must not lock out users whose
// credentials are still live. Roles always come from the session;
// Keyrock's /user endpoint does not scope them to the application.
//
// Returns session.ErrSessionNotFound when the user has no session.
func (s *Service) Me(ctx context.Context, userID string) (session.Identity, error) {
	access, err := s.sessions.EnsureLive(ctx, userID, session.FamilyAccess)
	if err != nil {
		return session.Identity{}, err
	}

	sess, ok := s.store.Get(userID)
	if !ok {
		return session.Identity{}, session.ErrSessionNotFound
	}

	profile, err := s.keyrock.UserInfo(ctx, access.Token)
	if err != nil {
		s.logger.Warn("profile fetch failed, serving session snapshot",
			"user_id", userID, "error", err)
		return sess.Identity, nil
	}

	identity := session.Identity{
		UserID:   profile.ID,
		Username: profile.Username,
		Email:    profile.Email,
		Roles:    sess.Identity.Roles,
	}
	return identity, nil
}

// Logout discards the user's session. The gateway JWT stays valid until
// expiry, but without a session it no longer reaches any upstream.
func (s *Service) Logout(userID string) {
	s.store.Delete(userID)
	s.logger.Info("user signed out", "user_id", userID)
}

// VerifyToken validates a gateway JWT. Exposed for the HTTP middleware.
func (s *Service) VerifyToken(tokenString string) (*Claims, error) {
	return ParseToken(tokenString, s.secret)
}

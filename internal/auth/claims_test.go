package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ssio-project/fiware-gateway/internal/session"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testIdentity() session.Identity {
	return session.Identity{
		UserID:   "user-1",
		Username: "alice",
		Email:    "alice@example.org",
		Roles:    []string{"user", "provider"},
	}
}

func TestMintAndParse(t *testing.T) {
	token, err := MintToken(testIdentity(), testSecret, time.Hour)
	if err != nil {
		t.Fatalf("MintToken() error = %v", err)
	}

	claims, err := ParseToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.UserID != "user-1" || claims.Username != "alice" || claims.Email != "alice@example.org" {
		t.Errorf("claims = %+v, want minted identity", claims)
	}
	if len(claims.Roles) != 2 || claims.Roles[1] != "provider" {
		t.Errorf("Roles = %v, want [user provider]", claims.Roles)
	}
	if claims.Subject != "user-1" {
		t.Errorf("Subject = %q, want user-1", claims.Subject)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := MintToken(testIdentity(), testSecret, time.Hour)
	if err != nil {
		t.Fatalf("MintToken() error = %v", err)
	}

	if _, err := ParseToken(token, "another-secret-another-secret-ab"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("error = %v, want ErrTokenInvalid", err)
	}
}

func TestParseToken_Expired(t *testing.T) {
	token, err := MintToken(testIdentity(), testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("MintToken() error = %v", err)
	}

	if _, err := ParseToken(token, testSecret); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("error = %v, want ErrTokenExpired", err)
	}
}

func TestParseToken_Garbage(t *testing.T) {
	if _, err := ParseToken("not.a.jwt", testSecret); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("error = %v, want ErrTokenInvalid", err)
	}
}

// The JWT must never leak upstream credentials: only identity claims go
// into the payload.
func TestMintToken_NoUpstreamSecrets(t *testing.T) {
	token, err := MintToken(testIdentity(), testSecret, time.Hour)
	if err != nil {
		t.Fatalf("MintToken() error = %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("token has %d segments, want 3", len(parts))
	}

	claims, err := ParseToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	// The full claim set is identity plus registered claims; nothing else
	// exists on the struct to smuggle a Keyrock token through.
	if claims.UserID == "" || claims.Username == "" {
		t.Error("identity claims missing")
	}
}

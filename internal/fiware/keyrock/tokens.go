package keyrock

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ssio-project/fiware-gateway/internal/fiware"
	"github.com/ssio-project/fiware-gateway/internal/session"
)

// OAuth2Tokens is the result of a password or refresh_token grant.
type OAuth2Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	ExpiresIn    int
}

// Authenticate exchanges primary credentials for a management token via
// POST /v1/auth/tokens. The token itself arrives in the X-Subject-Token
// response header; the expiry is in the body.
//
// Returns ErrInvalidCredentials when Keyrock rejects the credentials,
// fiware.ErrUnavailable when it produced no response.
func (c *Client) Authenticate(ctx context.Context, email, password string) (session.Credential, error) {
	payload, err := json.Marshal(map[string]string{
		"name":     email,
		"password": password,
	})
	if err != nil {
		return session.Credential{}, fmt.Errorf("encoding auth request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/auth/tokens", strings.NewReader(string(payload)))
	if err != nil {
		return session.Credential{}, fmt.Errorf("building auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return session.Credential{}, err
	}
	body, err := readBody(resp)
	if err != nil {
		return session.Credential{}, err
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusNotFound {
		// Keyrock answers 404 for unknown accounts; both mean bad credentials.
		return session.Credential{}, ErrInvalidCredentials
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return session.Credential{}, &fiware.Error{Status: resp.StatusCode, Body: body}
	}

	token := resp.Header.Get(fiware.HeaderSubjectToken)
	if token == "" {
		return session.Credential{}, fmt.Errorf("%w: missing %s header", ErrMalformedResponse, fiware.HeaderSubjectToken)
	}

	var parsed struct {
		Token struct {
			ExpiresAt time.Time `json:"expires_at"`
		} `json:"token"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return session.Credential{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	return session.Credential{Token: token, ExpiresAt: parsed.Token.ExpiresAt}, nil
}

// oauth2Grant executes a grant against POST /oauth2/token with the gateway's
// client credentials as HTTP Basic auth.
func (c *Client) oauth2Grant(ctx context.Context, form url.Values) (OAuth2Tokens, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return OAuth2Tokens{}, fmt.Errorf("building oauth2 request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.clientID, c.clientSecret)

	resp, err := c.do(req)
	if err != nil {
		return OAuth2Tokens{}, err
	}
	body, err := readBody(resp)
	if err != nil {
		return OAuth2Tokens{}, err
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest {
		// invalid_grant and invalid_client both come back in this range.
		return OAuth2Tokens{}, ErrInvalidCredentials
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return OAuth2Tokens{}, &fiware.Error{Status: resp.StatusCode, Body: body}
	}

	var parsed struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return OAuth2Tokens{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if parsed.AccessToken == "" {
		return OAuth2Tokens{}, fmt.Errorf("%w: missing access_token", ErrMalformedResponse)
	}

	return OAuth2Tokens{
		AccessToken:  parsed.AccessToken,
		RefreshToken: parsed.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(parsed.ExpiresIn) * time.Second),
		ExpiresIn:    parsed.ExpiresIn,
	}, nil
}

// OAuth2Token runs the resource-owner password grant, returning the access
// credential family for the PEP proxy (with its refresh token, when issued).
func (c *Client) OAuth2Token(ctx context.Context, email, password string) (OAuth2Tokens, error) {
	return c.oauth2Grant(ctx, url.Values{
		"grant_type": {"password"},
		"username":   {email},
		"password":   {password},
	})
}

// Refresh exchanges a refresh token for a new access credential. It
// implements session.Refresher, which is how the token lifecycle manager
// reaches Keyrock without depending on this package.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (session.RefreshedCredential, error) {
	tokens, err := c.oauth2Grant(ctx, url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	})
	if err != nil {
		return session.RefreshedCredential{}, err
	}

	return session.RefreshedCredential{
		Credential: session.Credential{
			Token:     tokens.AccessToken,
			ExpiresAt: tokens.ExpiresAt,
		},
		RefreshToken: tokens.RefreshToken,
	}, nil
}

// UserProfile is the identity reported by GET /user.
type UserProfile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// UserInfo fetches the profile of the user the access token belongs to.
func (c *Client) UserInfo(ctx context.Context, accessToken string) (UserProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/user", nil)
	if err != nil {
		return UserProfile{}, fmt.Errorf("building userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.do(req)
	if err != nil {
		return UserProfile{}, err
	}
	body, err := readBody(resp)
	if err != nil {
		return UserProfile{}, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return UserProfile{}, ErrInvalidCredentials
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return UserProfile{}, &fiware.Error{Status: resp.StatusCode, Body: body}
	}

	var profile UserProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return UserProfile{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if profile.ID == "" {
		return UserProfile{}, fmt.Errorf("%w: missing user id", ErrMalformedResponse)
	}
	return profile, nil
}

// UserRoles fetches the user's role bindings within the configured
// application scope, using the caller's management token.
//
// Keyrock answers with role assignment records; each record may carry the
// role under role_id or as a nested role object. Unnameable records fall
// back to "user".
func (c *Client) UserRoles(ctx context.Context, userID, managementToken string) ([]string, error) {
	path := fmt.Sprintf("/v1/applications/%s/users/%s/roles", url.PathEscape(c.appID), url.PathEscape(userID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("building roles request: %w", err)
	}
	req.Header.Set(fiware.HeaderAuthToken, managementToken)

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &fiware.Error{Status: resp.StatusCode, Body: body}
	}

	var parsed struct {
		Assignments []struct {
			RoleID string `json:"role_id"`
			Role   struct {
				Name string `json:"name"`
			} `json:"role"`
		} `json:"role_user_assignments"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	roles := make([]string, 0, len(parsed.Assignments))
	for _, a := range parsed.Assignments {
		switch {
		case a.RoleID != "":
			roles = append(roles, a.RoleID)
		case a.Role.Name != "":
			roles = append(roles, a.Role.Name)
		default:
			roles = append(roles, "user")
		}
	}
	return roles, nil
}

package keyrock

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ssio-project/fiware-gateway/internal/fiware"
	"github.com/ssio-project/fiware-gateway/internal/infrastructure/config"
)

// defaultTimeout bounds every Keyrock call when the config does not set one.
const defaultTimeout = 15 * time.Second

// Logger defines the logging interface used by the client.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Client talks to a Keyrock instance.
//
// Thread Safety: All methods are safe for concurrent use from multiple
// goroutines.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	appID        string
	httpClient   *http.Client
	logger       Logger
}

// New creates a Keyrock client from configuration.
//
// Parameters:
//   - cfg: Keyrock connection settings from config.yaml
//   - timeout: Upstream request timeout; zero selects the default (15s)
//
// Returns:
//   - *Client: Client ready for use
func New(cfg config.KeyrockConfig, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.URL, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		appID:        cfg.AppID,
		httpClient:   &http.Client{Timeout: timeout},
		logger:       noopLogger{},
	}
}

// SetLogger sets the logger for the client.
func (c *Client) SetLogger(logger Logger) {
	c.logger = logger
}

// AppID returns the configured application (tenant) scope for role lookups.
func (c *Client) AppID() string {
	return c.appID
}

// do executes a request and returns the response. A transport-level failure
// (no response at all) maps to fiware.ErrUnavailable.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fiware.ErrUnavailable, err)
	}
	return resp, nil
}

// readBody drains and closes the response body.
func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading keyrock response: %w", err)
	}
	return body, nil
}

// Forward executes an administration request against Keyrock with the
// caller's management token and returns the upstream status and body
// verbatim.
//
// This is the passthrough path for user/role/permission CRUD: the gateway
// adds the X-Auth-Token trust header and otherwise stays out of the way.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - managementToken: Live management credential for the caller
//   - method: One of GET, POST, PUT, PATCH, DELETE
//   - path: Keyrock API path (e.g. "/v1/users")
//   - body: Request body, nil for body-less verbs
//   - query: Query parameters, may be nil
//
// Returns:
//   - []byte: Upstream response body, verbatim
//   - int: Upstream status code
//   - error: fiware.ErrMethodNotSupported, fiware.ErrUnavailable, or
//     *fiware.Error for upstream rejections
func (c *Client) Forward(ctx context.Context, managementToken, method, path string, body []byte, query url.Values) ([]byte, int, error) {
	if !fiware.SupportedMethod(method) {
		return nil, 0, fmt.Errorf("%w: %s", fiware.ErrMethodNotSupported, method)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("building keyrock request: %w", err)
	}
	req.Header.Set(fiware.HeaderAuthToken, managementToken)
	if fiware.BodyVerb(method) {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, 0, err
	}
	respBody, err := readBody(resp)
	if err != nil {
		return nil, 0, err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, 0, &fiware.Error{Status: resp.StatusCode, Body: respBody}
	}
	return respBody, resp.StatusCode, nil
}

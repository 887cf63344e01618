package pep

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

// defaultTimeout bounds every proxied call when the config does not set one.
const defaultTimeout = 15 * time.Second

// Result is a successful upstream response, passed through verbatim.
type Result struct {
	Status int
	Body   []byte
}

// Forwarder dispatches authenticated requests to Orion via the PEP proxy.
//
// Thread Safety: All methods are safe for concurrent use from multiple
// goroutines.
type Forwarder struct {
	baseURL     string
	service     string
	servicePath string
	httpClient  *http.Client
}

// New creates a Forwarder from configuration.
//
// Parameters:
//   - cfg: PEP proxy connection settings
//   - tenancy: Fixed tenant headers sent on every call
//   - timeout: Upstream request timeout; zero selects the default (15s)
func New(cfg config.PEPProxyConfig, tenancy config.FIWAREConfig, timeout time.Duration) *Forwarder {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Forwarder{
		baseURL:     strings.TrimRight(cfg.URL, "/"),
		service:     tenancy.Service,
		servicePath: tenancy.ServicePath,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// Forward issues one request against the PEP proxy using the caller's live
// access credential.
//
// Header policy: the tenancy trust headers and X-Auth-Token go on every
// request; Content-Type is set only for the state-changing verbs
// (POST/PUT/PATCH) — GET and DELETE omit it.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - accessToken: Live access credential (caller must have refreshed it)
//   - method: One of GET, POST, PUT, PATCH, DELETE
//   - path: Orion API path (e.g. "/v2/entities")
//   - body: Request body, nil for body-less verbs
//   - query: Query parameters, may be nil
//
// Returns:
//   - Result: Upstream status and body, verbatim
//   - error: fiware.ErrMethodNotSupported for unknown verbs,
//     fiware.ErrUnavailable when no response arrived, or *fiware.Error
//     carrying the upstream rejection
func (f *Forwarder) Forward(ctx context.Context, accessToken, method, path string, body []byte, query url.Values) (Result, error) {
	if !fiware.SupportedMethod(method) {
		return Result{}, fmt.Errorf("%w: %s", fiware.ErrMethodNotSupported, method)
	}

	endpoint := f.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return Result{}, fmt.Errorf("building proxy request: %w", err)
	}

	req.Header.Set(fiware.HeaderAuthToken, accessToken)
	req.Header.Set(fiware.HeaderService, f.service)
	req.Header.Set(fiware.HeaderServicePath, f.servicePath)
	if fiware.BodyVerb(method) {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", fiware.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("reading proxy response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return Result{}, &fiware.Error{Status: resp.StatusCode, Body: respBody}
	}

	return Result{Status: resp.StatusCode, Body: respBody}, nil
}

package iotagent

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

// defaultTimeout bounds every agent call when the config does not set one.
const defaultTimeout = 15 * time.Second

// Publisher is the MQTT transport used for south-bound measurements when
// HTTP ingestion is switched off. Satisfied by mqtt.Client.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Client talks to both ports of the IoT Agent.
//
// Thread Safety: All methods are safe for concurrent use from multiple
// goroutines.
type Client struct {
	northURL    string
	southURL    string
	service     string
	servicePath string
	httpClient  *http.Client

	// publisher is non-nil only when MQTT ingestion is enabled.
	publisher Publisher
}

// New creates a Client from configuration.
//
// The south-port URL falls back to the north URL with the conventional
// port swap (4041 to 7896) when not configured explicitly.
//
// Parameters:
//   - cfg: IoT Agent connection settings
//   - tenancy: Fixed tenant headers sent on every north-port call
//   - timeout: Upstream request timeout; zero selects the default (15s)
func New(cfg config.IoTAgentConfig, tenancy config.FIWAREConfig, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		northURL:    strings.TrimRight(cfg.URL, "/"),
		southURL:    strings.TrimRight(southURL(cfg), "/"),
		service:     tenancy.Service,
		servicePath: tenancy.ServicePath,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// southURL resolves the device-data endpoint for a configuration.
func southURL(cfg config.IoTAgentConfig) string {
	if cfg.SouthURL != "" {
		return cfg.SouthURL
	}
	return strings.Replace(cfg.URL, ":4041", ":7896", 1)
}

// SetPublisher enables the MQTT transport for device measurements.
func (c *Client) SetPublisher(p Publisher) {
	c.publisher = p
}

// SouthPortURL reports the resolved device-data endpoint.
func (c *Client) SouthPortURL() string {
	return c.southURL
}

// MQTTEnabled reports whether measurements go out over MQTT.
func (c *Client) MQTTEnabled() bool {
	return c.publisher != nil
}

// Forward issues one provisioning request against the north port.
//
// The tenancy trust headers go on every request; Content-Type is set only
// for the state-changing verbs.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - method: One of GET, POST, PUT, PATCH, DELETE
//   - path: Agent API path (e.g. "/iot/devices")
//   - body: Request body, nil for body-less verbs
//   - query: Query parameters, may be nil
//
// Returns:
//   - Status and body of the upstream response, verbatim
//   - error: fiware.ErrMethodNotSupported for unknown verbs,
//     fiware.ErrUnavailable when no response arrived, or *fiware.Error
//     carrying the upstream rejection
func (c *Client) Forward(ctx context.Context, method, path string, body []byte, query url.Values) (int, []byte, error) {
	if !fiware.SupportedMethod(method) {
		return 0, nil, fmt.Errorf("%w: %s", fiware.ErrMethodNotSupported, method)
	}

	endpoint := c.northURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("building provisioning request: %w", err)
	}

	req.Header.Set(fiware.HeaderService, c.service)
	req.Header.Set(fiware.HeaderServicePath, c.servicePath)
	if fiware.BodyVerb(method) {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", fiware.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("reading provisioning response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return 0, nil, &fiware.Error{Status: resp.StatusCode, Body: respBody}
	}

	return resp.StatusCode, respBody, nil
}

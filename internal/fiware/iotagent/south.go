package iotagent

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ssio-project/fiware-gateway/internal/fiware"
)

// South-port content types per payload protocol.
const (
	contentTypeUltralight = "text/plain"
	contentTypeJSON       = "application/json"
)

// SendUltralight relays an Ultralight 2.0 measurement (e.g. "t|25|h|50")
// for a device.
//
// When MQTT ingestion is enabled the payload is published to the agent's
// broker topic; otherwise it is POSTed to the HTTP south port. An access
// token is optional: south ports behind a PEP proxy need one, bare agents
// do not.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - apiKey: Service-group API key (query parameter k)
//   - deviceID: Device identifier (query parameter i)
//   - payload: Raw Ultralight payload, passed through untouched
//   - accessToken: Optional X-Auth-Token; empty omits the header
func (c *Client) SendUltralight(ctx context.Context, apiKey, deviceID, payload, accessToken string) error {
	return c.send(ctx, "/iot/d", contentTypeUltralight, apiKey, deviceID, payload, accessToken)
}

// SendJSON relays a JSON measurement (e.g. {"t":25,"h":50}) for a device.
//
// Transport selection and parameters match SendUltralight; only the path
// and content type differ.
func (c *Client) SendJSON(ctx context.Context, apiKey, deviceID, payload, accessToken string) error {
	return c.send(ctx, "/iot/json", contentTypeJSON, apiKey, deviceID, payload, accessToken)
}

func (c *Client) send(ctx context.Context, path, contentType, apiKey, deviceID, payload, accessToken string) error {
	if apiKey == "" || deviceID == "" {
		return ErrMissingDeviceKey
	}

	if c.publisher != nil {
		return c.publish(apiKey, deviceID, payload)
	}

	if c.southURL == "" {
		return ErrNoSouthPort
	}

	query := url.Values{"k": {apiKey}, "i": {deviceID}}
	endpoint := c.southURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building measurement request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if accessToken != "" {
		req.Header.Set(fiware.HeaderAuthToken, accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", fiware.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(resp.Body)
		return &fiware.Error{Status: resp.StatusCode, Body: body}
	}
	return nil
}

// publish delivers a measurement over MQTT using the agent's topic
// convention.
func (c *Client) publish(apiKey, deviceID, payload string) error {
	topic := fmt.Sprintf("/%s/%s/attrs", apiKey, deviceID)
	return c.publisher.Publish(topic, []byte(payload))
}

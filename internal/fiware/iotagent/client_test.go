package iotagent

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ssio-project/fiware-gateway/internal/fiware"
	"github.com/ssio-project/fiware-gateway/internal/infrastructure/config"
)

func testClient(northURL, southURL string) *Client {
	return New(
		config.IoTAgentConfig{URL: northURL, SouthURL: southURL},
		config.FIWAREConfig{Service: "openiot", ServicePath: "/"},
		time.Second,
	)
}

func TestSouthURL_Derivation(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.IoTAgentConfig
		want string
	}{
		{
			name: "explicit south url wins",
			cfg:  config.IoTAgentConfig{URL: "http://agent:4041", SouthURL: "http://agent:9999"},
			want: "http://agent:9999",
		},
		{
			name: "derived from north port",
			cfg:  config.IoTAgentConfig{URL: "http://agent:4041"},
			want: "http://agent:7896",
		},
		{
			name: "non-standard north port kept as-is",
			cfg:  config.IoTAgentConfig{URL: "http://agent:8080"},
			want: "http://agent:8080",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := southURL(tt.cfg); got != tt.want {
				t.Errorf("southURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestForward_ProvisioningHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get(fiware.HeaderService); got != "openiot" {
			t.Errorf("%s = %q, want openiot", fiware.HeaderService, got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q, want application/json on POST", got)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	status, _, err := testClient(srv.URL, srv.URL).Forward(context.Background(),
		http.MethodPost, "/iot/devices", []byte(`{"devices":[]}`), nil)
	if err != nil {
		t.Fatalf("Forward() error = %v", err)
	}
	if status != http.StatusCreated {
		t.Errorf("status = %d, want 201", status)
	}
}

func TestForward_UpstreamRejectionPreserved(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"name":"DUPLICATE_DEVICE_ID"}`))
	}))
	defer srv.Close()

	_, _, err := testClient(srv.URL, srv.URL).Forward(context.Background(),
		http.MethodPost, "/iot/devices", []byte(`{}`), nil)

	ue, ok := fiware.AsError(err)
	if !ok {
		t.Fatalf("error = %v, want *fiware.Error", err)
	}
	if ue.Status != http.StatusConflict {
		t.Errorf("Status = %d, want 409", ue.Status)
	}
}

func TestSendUltralight_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/iot/d" {
			t.Errorf("path = %q, want /iot/d", r.URL.Path)
		}
		if got := r.URL.Query().Get("k"); got != "apikey1" {
			t.Errorf("k = %q, want apikey1", got)
		}
		if got := r.URL.Query().Get("i"); got != "sensor-01" {
			t.Errorf("i = %q, want sensor-01", got)
		}
		if got := r.Header.Get("Content-Type"); got != "text/plain" {
			t.Errorf("Content-Type = %q, want text/plain", got)
		}
		if got := r.Header.Get(fiware.HeaderAuthToken); got != "" {
			t.Errorf("%s = %q, want omitted without token", fiware.HeaderAuthToken, got)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != "t|25|h|50" {
			t.Errorf("body = %q, want raw payload", body)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := testClient(srv.URL, srv.URL).SendUltralight(context.Background(),
		"apikey1", "sensor-01", "t|25|h|50", "")
	if err != nil {
		t.Fatalf("SendUltralight() error = %v", err)
	}
}

func TestSendJSON_WithToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/iot/json" {
			t.Errorf("path = %q, want /iot/json", r.URL.Path)
		}
		if got := r.Header.Get(fiware.HeaderAuthToken); got != "tok" {
			t.Errorf("%s = %q, want tok", fiware.HeaderAuthToken, got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := testClient(srv.URL, srv.URL).SendJSON(context.Background(),
		"apikey1", "sensor-01", `{"t":25}`, "tok")
	if err != nil {
		t.Fatalf("SendJSON() error = %v", err)
	}
}

func TestSend_MissingKey(t *testing.T) {
	err := testClient("http://unused", "http://unused").SendUltralight(
		context.Background(), "", "sensor-01", "t|25", "")
	if !errors.Is(err, ErrMissingDeviceKey) {
		t.Errorf("error = %v, want ErrMissingDeviceKey", err)
	}
}

type recordingPublisher struct {
	topic   string
	payload []byte
}

func (p *recordingPublisher) Publish(topic string, payload []byte) error {
	p.topic = topic
	p.payload = payload
	return nil
}

func TestSend_MQTTTransport(t *testing.T) {
	c := testClient("http://unused", "http://unused")
	pub := &recordingPublisher{}
	c.SetPublisher(pub)

	if err := c.SendUltralight(context.Background(), "apikey1", "sensor-01", "t|25", ""); err != nil {
		t.Fatalf("SendUltralight() error = %v", err)
	}
	if pub.topic != "/apikey1/sensor-01/attrs" {
		t.Errorf("topic = %q, want /apikey1/sensor-01/attrs", pub.topic)
	}
	if string(pub.payload) != "t|25" {
		t.Errorf("payload = %q, want t|25", pub.payload)
	}
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// validConfig is a minimal config that passes validation.
const validConfig = `
gateway:
  host: "0.0.0.0"
  port: 3000
jwt:
  secret: "test-secret-key-at-least-32-chars!"
keyrock:
  url: "http://keyrock:3005"
  client_id: "client"
  client_secret: "secret"
  app_id: "app-0001"
pep_proxy:
  url: "http://pep:1027"
iot_agent:
  url: "http://iot-agent:4041"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Keyrock.URL != "http://keyrock:3005" {
		t.Errorf("Keyrock.URL = %q, want %q", cfg.Keyrock.URL, "http://keyrock:3005")
	}
	if cfg.Keyrock.AppID != "app-0001" {
		t.Errorf("Keyrock.AppID = %q, want %q", cfg.Keyrock.AppID, "app-0001")
	}
	if cfg.PEPProxy.URL != "http://pep:1027" {
		t.Errorf("PEPProxy.URL = %q, want %q", cfg.PEPProxy.URL, "http://pep:1027")
	}

	// Defaults should survive a partial file
	if cfg.FIWARE.Service != "openiot" {
		t.Errorf("FIWARE.Service = %q, want default %q", cfg.FIWARE.Service, "openiot")
	}
	if cfg.Gateway.Timeouts.Upstream != 15 {
		t.Errorf("Gateway.Timeouts.Upstream = %d, want default 15", cfg.Gateway.Timeouts.Upstream)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	content := strings.Replace(validConfig, `secret: "test-secret-key-at-least-32-chars!"`, `secret: ""`, 1)
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Error("Load() expected validation error for missing JWT secret, got nil")
	}
}

func TestLoad_ShortJWTSecret(t *testing.T) {
	content := strings.Replace(validConfig, "test-secret-key-at-least-32-chars!", "too-short", 1)
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Error("Load() expected validation error for short JWT secret, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GATEWAY_KEYROCK_URL", "http://keyrock-prod:3005")
	t.Setenv("GATEWAY_JWT_SECRET", "env-secret-key-at-least-32-chars-long!")

	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Keyrock.URL != "http://keyrock-prod:3005" {
		t.Errorf("Keyrock.URL = %q, want env override", cfg.Keyrock.URL)
	}
	if cfg.JWT.Secret != "env-secret-key-at-least-32-chars-long!" {
		t.Errorf("JWT.Secret not overridden by environment")
	}
}

func TestValidate_MQTTIngestionRequiresBroker(t *testing.T) {
	content := validConfig + `  mqtt_ingestion: true
mqtt:
  broker:
    host: ""
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Error("Load() expected validation error for MQTT ingestion without broker host, got nil")
	}
}

func TestBrokerURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  MQTTConfig
		want string
	}{
		{
			name: "plain tcp",
			cfg:  MQTTConfig{Broker: MQTTBrokerConfig{Host: "localhost", Port: 1883}},
			want: "tcp://localhost:1883",
		},
		{
			name: "tls",
			cfg:  MQTTConfig{Broker: MQTTBrokerConfig{Host: "broker", Port: 8883, TLS: true}},
			want: "ssl://broker:8883",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.BrokerURL(); got != tt.want {
				t.Errorf("BrokerURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

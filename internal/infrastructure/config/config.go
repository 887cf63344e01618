package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the FIWARE Gateway.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Gateway   GatewayConfig   `yaml:"gateway"`
	JWT       JWTConfig       `yaml:"jwt"`
	Keyrock   KeyrockConfig   `yaml:"keyrock"`
	PEPProxy  PEPProxyConfig  `yaml:"pep_proxy"`
	FIWARE    FIWAREConfig    `yaml:"fiware"`
	IoTAgent  IoTAgentConfig  `yaml:"iot_agent"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// GatewayConfig contains HTTP server settings for the gateway itself.
type GatewayConfig struct {
	Host     string               `yaml:"host"`
	Port     int                  `yaml:"port"`
	Timeouts GatewayTimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig           `yaml:"cors"`
}

// GatewayTimeoutConfig contains HTTP timeout settings in seconds.
type GatewayTimeoutConfig struct {
	Read     int `yaml:"read"`
	Write    int `yaml:"write"`
	Idle     int `yaml:"idle"`
	Upstream int `yaml:"upstream"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// JWTConfig contains settings for the gateway-issued bearer token.
type JWTConfig struct {
	Secret string `yaml:"secret"`
	// TTL is the bearer token lifetime in seconds. When zero, the OAuth2
	// access token lifetime reported by Keyrock is used instead.
	TTL int `yaml:"ttl"`
}

// KeyrockConfig contains connection settings for the Keyrock identity manager.
type KeyrockConfig struct {
	URL          string `yaml:"url"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	AppID        string `yaml:"app_id"`
}

// PEPProxyConfig contains connection settings for the Orion PEP proxy.
type PEPProxyConfig struct {
	URL string `yaml:"url"`
}

// FIWAREConfig contains the multi-tenancy headers sent on every downstream call.
type FIWAREConfig struct {
	Service     string `yaml:"service"`
	ServicePath string `yaml:"service_path"`
}

// IoTAgentConfig contains connection settings for the IoT Agent.
type IoTAgentConfig struct {
	// URL is the north port (provisioning API, typically :4041).
	URL string `yaml:"url"`
	// SouthURL is the south port (device data, typically :7896).
	// When empty it is derived from URL by swapping port 4041 for 7896.
	SouthURL string `yaml:"south_url"`
	// MQTTIngestion enables publishing device measurements over MQTT
	// instead of the HTTP south port.
	MQTTIngestion bool `yaml:"mqtt_ingestion"`
}

// MQTTConfig contains MQTT broker connection settings for device-data transport.
type MQTTConfig struct {
	Broker MQTTBrokerConfig `yaml:"broker"`
	Auth   MQTTAuthConfig   `yaml:"auth"`
	QoS    int              `yaml:"qos"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// WebSocketConfig contains settings for the live activity stream over WebSocket.
type WebSocketConfig struct {
	MaxMessageSize int `yaml:"max_message_size"`
	PingInterval   int `yaml:"ping_interval"`
	PongTimeout    int `yaml:"pong_timeout"`
}

// InfluxDBConfig contains settings for the optional activity telemetry mirror.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: GATEWAY_SECTION_KEY
// For example: GATEWAY_KEYROCK_URL, GATEWAY_JWT_SECRET
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Gateway: GatewayConfig{
			Host: "0.0.0.0",
			Port: 3000,
			Timeouts: GatewayTimeoutConfig{
				Read:     15,
				Write:    30,
				Idle:     60,
				Upstream: 15,
			},
		},
		Keyrock: KeyrockConfig{
			URL: "http://localhost:3005",
		},
		PEPProxy: PEPProxyConfig{
			URL: "http://localhost:1027",
		},
		FIWARE: FIWAREConfig{
			Service:     "openiot",
			ServicePath: "/",
		},
		IoTAgent: IoTAgentConfig{
			URL: "http://iot-agent:4041",
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "fiware-gateway",
			},
			QoS: 1,
		},
		WebSocket: WebSocketConfig{
			MaxMessageSize: 4096,
			PingInterval:   30,
			PongTimeout:    60,
		},
		InfluxDB: InfluxDBConfig{
			URL:           "http://localhost:8086",
			Bucket:        "gateway-activity",
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only settings that commonly differ between deployments (or are secrets)
// have overrides.
func applyEnvOverrides(cfg *Config) {
	// Gateway
	if v := os.Getenv("GATEWAY_HOST"); v != "" {
		cfg.Gateway.Host = v
	}
	if v := os.Getenv("GATEWAY_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Gateway.Port = port
		}
	}

	// JWT secret (IMPORTANT: always override in production)
	if v := os.Getenv("GATEWAY_JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}

	// Keyrock
	if v := os.Getenv("GATEWAY_KEYROCK_URL"); v != "" {
		cfg.Keyrock.URL = v
	}
	if v := os.Getenv("GATEWAY_KEYROCK_CLIENT_ID"); v != "" {
		cfg.Keyrock.ClientID = v
	}
	if v := os.Getenv("GATEWAY_KEYROCK_CLIENT_SECRET"); v != "" {
		cfg.Keyrock.ClientSecret = v
	}
	if v := os.Getenv("GATEWAY_KEYROCK_APP_ID"); v != "" {
		cfg.Keyrock.AppID = v
	}

	// Downstream services
	if v := os.Getenv("GATEWAY_PEP_PROXY_URL"); v != "" {
		cfg.PEPProxy.URL = v
	}
	if v := os.Getenv("GATEWAY_IOT_AGENT_URL"); v != "" {
		cfg.IoTAgent.URL = v
	}
	if v := os.Getenv("GATEWAY_IOT_AGENT_SOUTH_URL"); v != "" {
		cfg.IoTAgent.SouthURL = v
	}

	// Tenancy
	if v := os.Getenv("GATEWAY_FIWARE_SERVICE"); v != "" {
		cfg.FIWARE.Service = v
	}
	if v := os.Getenv("GATEWAY_FIWARE_SERVICE_PATH"); v != "" {
		cfg.FIWARE.ServicePath = v
	}

	// MQTT
	if v := os.Getenv("GATEWAY_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("GATEWAY_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GATEWAY_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("GATEWAY_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// minJWTSecretLength is the minimum accepted JWT secret length. The bearer
// token gates every downstream identity operation, so a guessable secret
// would let an attacker mint identities at will.
const minJWTSecretLength = 32

// Validate checks the configuration for errors and security issues.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Gateway.Port < 1 || c.Gateway.Port > 65535 {
		errs = append(errs, "gateway.port must be between 1 and 65535")
	}

	if c.JWT.Secret == "" {
		errs = append(errs, "jwt.secret is required (set GATEWAY_JWT_SECRET environment variable)")
	} else if len(c.JWT.Secret) < minJWTSecretLength {
		errs = append(errs, fmt.Sprintf("jwt.secret must be at least %d characters", minJWTSecretLength))
	}

	if c.Keyrock.URL == "" {
		errs = append(errs, "keyrock.url is required")
	}
	if c.Keyrock.AppID == "" {
		errs = append(errs, "keyrock.app_id is required (set GATEWAY_KEYROCK_APP_ID environment variable)")
	}

	if c.PEPProxy.URL == "" {
		errs = append(errs, "pep_proxy.url is required")
	}
	if c.IoTAgent.URL == "" {
		errs = append(errs, "iot_agent.url is required")
	}

	if c.IoTAgent.MQTTIngestion {
		if c.MQTT.Broker.Host == "" {
			errs = append(errs, "mqtt.broker.host is required when iot_agent.mqtt_ingestion is enabled")
		}
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, "mqtt.qos must be 0, 1, or 2")
		}
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Token == "" {
			errs = append(errs, "influxdb.token is required when influxdb is enabled (set GATEWAY_INFLUXDB_TOKEN)")
		}
	}

	if c.Gateway.Timeouts.Upstream < 0 {
		errs = append(errs, "gateway.timeouts.upstream must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// BrokerURL returns the MQTT broker URL in the form tcp://host:port
// (or ssl://host:port when TLS is enabled).
func (c *MQTTConfig) BrokerURL() string {
	scheme := "tcp"
	if c.Broker.TLS {
		scheme = "ssl"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Broker.Host, c.Broker.Port)
}

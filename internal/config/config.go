// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Credential is one entry of the fixed credential registry, parsed from CREDENTIALS.
type Credential struct {
	Email       string
	Secret      string
	DisplayName string
}

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :3000).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN for the readings and threshold stores; empty until DB is wired.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// MQTTBrokerAddr is the host:port of the telemetry broker. Empty disables the sensor channel.
	MQTTBrokerAddr string `mapstructure:"MQTT_BROKER_ADDR"`
	// MQTTTopic is the topic carrying numeric temperature payloads (default sensors/temperature).
	MQTTTopic string `mapstructure:"MQTT_TOPIC"`
	// BcryptCost is the bcrypt cost factor (4–31) for registry secrets; default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// Credentials is the fixed credential registry as "email:secret:name" entries separated by ";".
	// The default is the demo registry; override it for anything beyond local use.
	Credentials string `mapstructure:"CREDENTIALS"`
	// OTLPEndpoint is the OTLP gRPC endpoint for telemetry export (e.g. http://localhost:4317).
	// Empty disables export (no-op providers).
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP export even for https endpoints (standard OTEL_EXPORTER_OTLP_INSECURE behavior).
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":3000")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("MQTT_BROKER_ADDR", "")
	v.SetDefault("MQTT_TOPIC", "sensors/temperature")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("CREDENTIALS", "student@example.com:password123:Praktikan A;alice@example.com:alicepass:Alice")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	if cfg.MQTTTopic == "" {
		return nil, errors.New("config: MQTT_TOPIC must be set")
	}

	return &cfg, nil
}

// CredentialList parses Credentials into registry entries. Malformed entries
// (fewer than two fields) are skipped; the display name defaults to the email
// local part when omitted.
func (c *Config) CredentialList() []Credential {
	if c == nil || c.Credentials == "" {
		return nil
	}
	entries := strings.Split(c.Credentials, ";")
	out := make([]Credential, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		parts := strings.SplitN(e, ":", 3)
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			continue
		}
		cred := Credential{Email: strings.ToLower(parts[0]), Secret: parts[1]}
		if len(parts) == 3 && parts[2] != "" {
			cred.DisplayName = parts[2]
		} else {
			cred.DisplayName = strings.SplitN(cred.Email, "@", 2)[0]
		}
		out = append(out, cred)
	}
	return out
}

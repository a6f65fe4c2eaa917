// Package config loads runtime settings from built-in defaults and LIBRARY_*
// environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is stripped from environment variables before they are mapped
// onto config keys: LIBRARY_AUTH_TOKEN_TTL -> auth.token_ttl.
const EnvPrefix = "LIBRARY_"

type Config struct {
	Database DatabaseConfig `koanf:"database" validate:"required"`
	Server   ServerConfig   `koanf:"server"   validate:"required"`
	Auth     AuthConfig     `koanf:"auth"     validate:"required"`
	Log      LogConfig      `koanf:"log"`
}

type DatabaseConfig struct {
	Path        string        `koanf:"path"         validate:"required"`
	BusyTimeout time.Duration `koanf:"busy_timeout" validate:"gte=0"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"             validate:"min=1,max=65535"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

type AuthConfig struct {
	JWTSecret  string        `koanf:"jwt_secret"  validate:"required,min=8"`
	TokenTTL   time.Duration `koanf:"token_ttl"   validate:"gt=0"`
	BcryptCost int           `koanf:"bcrypt_cost" validate:"min=4,max=31"`
}

type LogConfig struct {
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
	JSON  bool   `koanf:"json"`
}

// Addr is the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:        "library.db",
			BusyTimeout: 5 * time.Second,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5000,
			ShutdownTimeout: 10 * time.Second,
		},
		Auth: AuthConfig{
			JWTSecret:  "change-me-in-production",
			TokenTTL:   24 * time.Hour,
			BcryptCost: 10,
		},
		Log: LogConfig{Level: "info"},
	}
}

// envKey converts LIBRARY_AUTH_JWT_SECRET into auth.jwt_secret. The first
// segment after the prefix names the section; the rest is the field name.
func envKey(key string) string {
	s := strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	section, field, ok := strings.Cut(s, "_")
	if !ok || section == "" || field == "" {
		return ""
	}
	return section + "." + field
}

// Load merges defaults with the environment and validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return envKey(key), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

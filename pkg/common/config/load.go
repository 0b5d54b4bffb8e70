package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/imdario/mergo"
	"github.com/joho/godotenv"
)

var validate = validator.New()

// EnvFile is read, when present, before environment overrides are applied.
// Variables already set in the process environment win.
const EnvFile = ".env"

// Load reads a YAML config file, applies environment overrides, fills unset fields
// from Default and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// LoadEnvFile loads path into the process environment. A missing file is ignored.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnv(&cfg)

	// merge defaults
	if err := mergo.Merge(&cfg, Default()); err != nil {
		return nil, fmt.Errorf("merge config defaults: %w", err)
	}

	// validate
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("struct validation failed: %w", err)
	}

	if cfg.Nats.Enabled && cfg.Nats.SubjectPrefix == "" {
		return nil, fmt.Errorf("nats.subject_prefix is required when nats is enabled")
	}
	return &cfg, nil
}

// environment overrides, mostly for secrets that should stay out of the YAML file
var envOverrides = map[string]func(cfg *Config, v string){
	"APPPREFS_ENV":             func(cfg *Config, v string) { cfg.Environment = Env(v) },
	"APPPREFS_ACCOUNT":         func(cfg *Config, v string) { cfg.Account = v },
	"APPPREFS_CONSUL_TOKEN":    func(cfg *Config, v string) { cfg.KVS.Consul.Token = v },
	"APPPREFS_SQL_DSN":         func(cfg *Config, v string) { cfg.KVS.SQL.DSN = v },
	"APPPREFS_REDIS_PASSWORD":  func(cfg *Config, v string) { cfg.Settings.Redis.Password = v },
	"APPPREFS_DYNAMODB_TABLE":  func(cfg *Config, v string) { cfg.Settings.Dynamo.Table = v },
	"APPPREFS_NATS_URL":        func(cfg *Config, v string) { cfg.Nats.URL = v },
	"APPPREFS_NATS_PASSWORD":   func(cfg *Config, v string) { cfg.Nats.Password = v },
	"APPPREFS_HTTP_JWT_SECRET": func(cfg *Config, v string) { cfg.HTTP.JWTSecret = v },
}

func applyEnv(cfg *Config) {
	for key, apply := range envOverrides {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			apply(cfg, v)
		}
	}
}

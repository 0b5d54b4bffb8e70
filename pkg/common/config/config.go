package config

import (
	"github.com/fystack/appprefs/pkg/common/constant"
	"github.com/fystack/appprefs/pkg/common/enum"
)

type Env string

const (
	DevEnv  Env = constant.EnvDevelopment
	ProdEnv Env = constant.EnvProduction
	StgEnv  Env = constant.EnvStaging
)

type Config struct {
	Environment Env            `yaml:"env"      validate:"required,oneof=dev prod stag"`
	Account     string         `yaml:"account"  validate:"required"`
	KVS         KVSConfig      `yaml:"kvstore"  validate:"required"`
	Settings    SettingsConfig `yaml:"settings" validate:"required"`
	Nats        NatsConfig     `yaml:"nats"`
	Schema      SchemaConfig   `yaml:"schema"`
	HTTP        HTTPConfig     `yaml:"http"`
}

type KVSConfig struct {
	Type   enum.KVStoreType `yaml:"type"   validate:"required,oneof=badger consul sql"`
	Badger BadgerConfig     `yaml:"badger"`
	Consul ConsulConfig     `yaml:"consul"`
	SQL    SQLConfig        `yaml:"sql"`
}

type SQLConfig struct {
	Driver string `yaml:"driver" validate:"omitempty,oneof=postgres sqlite"`
	DSN    string `yaml:"dsn"`
}

type BadgerConfig struct {
	Directory string `yaml:"directory"`
	Prefix    string `yaml:"prefix"`
	InMemory  bool   `yaml:"in_memory"`
}

type ConsulConfig struct {
	Scheme   string         `yaml:"scheme"  validate:"omitempty,oneof=http https"`
	Address  string         `yaml:"address"`
	Folder   string         `yaml:"folder"`
	Token    string         `yaml:"token"`
	HttpAuth HttpAuthConfig `yaml:"http_auth"`
}

type HttpAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type SettingsConfig struct {
	Type   enum.SettingsStoreType `yaml:"type"   validate:"required,oneof=file redis dynamodb"`
	File   FileSettingsConfig     `yaml:"file"`
	Redis  RedisConfig            `yaml:"redis"`
	Dynamo DynamoSettingsConfig   `yaml:"dynamodb"`
}

type DynamoSettingsConfig struct {
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint" validate:"omitempty,url"`
	Table    string `yaml:"table"`
}

type FileSettingsConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	URL      string         `yaml:"url"`
	Password string         `yaml:"password"`
	Key      string         `yaml:"key"`
	MTLS     bool           `yaml:"mtls"`
	TLS      RedisTLSConfig `yaml:"tls"`
}

type RedisTLSConfig struct {
	ClientCert string `yaml:"client_cert"`
	ClientKey  string `yaml:"client_key"`
	CACert     string `yaml:"ca_cert"`
}

type NatsConfig struct {
	Enabled       bool          `yaml:"enabled"`
	URL           string        `yaml:"url"            validate:"omitempty,url"`
	Stream        string        `yaml:"stream"`
	SubjectPrefix string        `yaml:"subject_prefix"`
	Username      string        `yaml:"username"`
	Password      string        `yaml:"password"`
	TLS           NatsTLSConfig `yaml:"tls"`
}

type NatsTLSConfig struct {
	ClientCert string `yaml:"client_cert"`
	ClientKey  string `yaml:"client_key"`
	CACert     string `yaml:"ca_cert"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
	// JWTSecret enables HS256 bearer auth on the API when set.
	JWTSecret string `yaml:"jwt_secret"`
	JWTIssuer string `yaml:"jwt_issuer"`
}

type SchemaConfig struct {
	DefaultVersion uint64 `yaml:"default_version"`
}

// Default returns the values applied to any field a config file leaves empty.
func Default() Config {
	return Config{
		Environment: DevEnv,
		Account:     constant.DefaultAccount,
		KVS: KVSConfig{
			Type: enum.KVStoreTypeBadger,
			Badger: BadgerConfig{
				Directory: "./data/prefs",
			},
			Consul: ConsulConfig{
				Scheme:  "http",
				Address: "127.0.0.1:8500",
				Folder:  "appprefs",
			},
			SQL: SQLConfig{
				Driver: "sqlite",
				DSN:    "./data/prefs.db",
			},
		},
		Settings: SettingsConfig{
			Type: enum.SettingsStoreTypeFile,
			File: FileSettingsConfig{
				Path: "~/.appprefs/settings.yaml",
			},
			Redis: RedisConfig{
				URL: "localhost:6379",
				Key: "appprefs:settings",
			},
			Dynamo: DynamoSettingsConfig{
				Region: "us-east-1",
				Table:  "appprefs-settings",
			},
		},
		Nats: NatsConfig{
			URL:           "nats://127.0.0.1:4222",
			Stream:        "preferences",
			SubjectPrefix: "preferences",
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
	}
}

package config

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Addr string `yaml:"addr"`
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|prod
	Service   string `yaml:"service"`   // chat-service
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
}

type Store struct {
	Backend string `yaml:"backend"` // postgres|memory
	DSN     string `yaml:"dsn"`
}

type Auth struct {
	JWTSecret string `yaml:"jwtSecret"`
	Issuer    string `yaml:"issuer"`
	TokenTTL  string `yaml:"tokenTTL"` // e.g. 24h
}

type Chat struct {
	MaxMessageLen int `yaml:"maxMessageLen"`
}

type Views struct {
	DedupWindow string `yaml:"dedupWindow"` // e.g. 60s
}

type Config struct {
	HTTP    HTTP    `yaml:"http"`
	Logging Logging `yaml:"logging"`
	Store   Store   `yaml:"store"`
	Auth    Auth    `yaml:"auth"`
	Chat    Chat    `yaml:"chat"`
	Views   Views   `yaml:"views"`
}

func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "postgres"
	}
	if c.Store.Backend != "postgres" && c.Store.Backend != "memory" {
		return errors.New("store.backend must be postgres or memory")
	}
	if c.Store.Backend == "postgres" && c.Store.DSN == "" {
		return errors.New("store.dsn is required for the postgres backend")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwtSecret is required")
	}
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = "moamarket"
	}
	if c.Chat.MaxMessageLen <= 0 {
		c.Chat.MaxMessageLen = 4000
	}
	if c.Logging.Service == "" {
		c.Logging.Service = "chat-service"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}
	return nil
}

func (c *Config) TokenTTL() time.Duration {
	return parseDurationOr(24*time.Hour, c.Auth.TokenTTL)
}

func (c *Config) DedupWindow() time.Duration {
	return parseDurationOr(60*time.Second, c.Views.DedupWindow)
}

// helper для парсинга timeout-ов
func parseDurationOr(def time.Duration, s string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return def
}

package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	StatsTTL time.Duration `yaml:"stats_ttl"` // public status snapshot cache
}

// APIConfig covers the batch-sync surface used by the code generator client.
// The expected key is derived as HMAC-SHA256(secret_key, key_salt).
type APIConfig struct {
	SecretKey string `yaml:"secret_key"`
	KeySalt   string `yaml:"key_salt"`
}

type AdminConfig struct {
	Username   string        `yaml:"username"`
	Password   string        `yaml:"password"`
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type RateLimitConfig struct {
	Limit  int           `yaml:"limit"`  // verify calls per client IP per window
	Window time.Duration `yaml:"window"`
}

type RetentionConfig struct {
	Days     int           `yaml:"days"`     // query log retention
	Interval time.Duration `yaml:"interval"` // prune cadence
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	API       APIConfig       `yaml:"api"`
	Admin     AdminConfig     `yaml:"admin"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Retention RetentionConfig `yaml:"retention"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Redis.StatsTTL <= 0 {
		cfg.Redis.StatsTTL = 10 * time.Second
	}
	if cfg.Admin.SessionTTL <= 0 {
		cfg.Admin.SessionTTL = 30 * time.Minute
	}
	if cfg.RateLimit.Limit <= 0 {
		cfg.RateLimit.Limit = 100
	}
	if cfg.RateLimit.Window <= 0 {
		cfg.RateLimit.Window = time.Hour
	}
	if cfg.Retention.Days <= 0 {
		cfg.Retention.Days = 30
	}
	if cfg.Retention.Interval <= 0 {
		cfg.Retention.Interval = 24 * time.Hour
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.API.SecretKey == "" {
		return nil, errors.New("api.secret_key is required")
	}
	if cfg.Admin.JWTSecret == "" {
		return nil, errors.New("admin.jwt_secret is required")
	}
	if cfg.Admin.Username == "" || cfg.Admin.Password == "" {
		return nil, errors.New("admin.username and admin.password are required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

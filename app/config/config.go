package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"
)

type Config struct {
	Server     HTTPServerConfig `json:"server"`
	Generation GenerationConfig `json:"generation"`
	Mongo      MongoConfig      `json:"mongo"`
	Archive    ArchiveConfig    `json:"archive"`
	Metrics    MetricsConfig    `json:"metrics"`
	Log        LogConfig        `json:"log"`
}

type HTTPServerConfig struct {
	Host         string        `json:"host" default:"0.0.0.0"`
	Port         int           `json:"port" default:"8080"`
	ReadTimeout  time.Duration `json:"read_timeout" default:"30s"`
	WriteTimeout time.Duration `json:"write_timeout" default:"60s"`
}

type GenerationConfig struct {
	Delay time.Duration `json:"delay" default:"2s"`
}

// MongoConfig enables persistent history when URI is set.
type MongoConfig struct {
	URI      string `json:"uri"`
	Database string `json:"database" default:"schemagen"`
}

// ArchiveConfig enables the artifact archive when Dir is set.
type ArchiveConfig struct {
	Dir string `json:"dir"`
}

// MetricsConfig starts a separate /metrics listener when Addr is set.
type MetricsConfig struct {
	Addr string `json:"addr"`
}

type LogConfig struct {
	Level slog.Level `json:"level" default:"info"`
}

func Default() *Config {
	return &Config{
		Server: HTTPServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Generation: GenerationConfig{Delay: 2 * time.Second},
		Mongo:      MongoConfig{Database: "schemagen"},
		Log:        LogConfig{Level: slog.LevelInfo},
	}
}

// Load reads the optional HCL file at path, then applies environment
// overrides from the process environment.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.Getenv)
}

func LoadWithEnv(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()
	if path != "" {
		var fc fileConfig
		if err := hclsimple.DecodeFile(path, nil, &fc); err != nil {
			return nil, fmt.Errorf("decode config %s: %w", path, err)
		}
		if err := fc.apply(cfg); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}
	if err := applyEnv(cfg, getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server port %d out of range", c.Server.Port))
	}
	if c.Generation.Delay < 0 {
		errs = append(errs, errors.New("generation delay must not be negative"))
	}
	if c.Server.WriteTimeout > 0 && c.Server.WriteTimeout <= c.Generation.Delay {
		errs = append(errs, fmt.Errorf("write timeout %s must exceed generation delay %s", c.Server.WriteTimeout, c.Generation.Delay))
	}
	if c.Mongo.URI != "" && c.Mongo.Database == "" {
		errs = append(errs, errors.New("mongo database is required when mongo uri is set"))
	}
	return errors.Join(errs...)
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	get := func(key string) (string, bool) {
		v := strings.TrimSpace(getenv(key))
		return v, v != ""
	}

	if v, ok := get("SERVER_HOST"); ok {
		cfg.Server.Host = v
	}
	if v, ok := get("SERVER_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v, ok := get("GENERATION_DELAY"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("GENERATION_DELAY: %w", err)
		}
		cfg.Generation.Delay = d
	}
	if v, ok := get("MONGO_URI"); ok {
		cfg.Mongo.URI = v
	}
	if v, ok := get("MONGO_DB"); ok {
		cfg.Mongo.Database = v
	}
	if v, ok := get("ARCHIVE_DIR"); ok {
		cfg.Archive.Dir = v
	}
	if v, ok := get("METRICS_ADDR"); ok {
		cfg.Metrics.Addr = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		if err := cfg.Log.Level.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("LOG_LEVEL: %w", err)
		}
	}
	return nil
}

package config

import (
	"fmt"
	"time"
)

// fileConfig mirrors the HCL config file. Every block and attribute is
// optional; unset values keep their defaults.
//
//	server {
//	  port          = 9090
//	  write_timeout = "90s"
//	}
//	generation {
//	  delay = "2s"
//	}
type fileConfig struct {
	Server     *serverBlock     `hcl:"server,block"`
	Generation *generationBlock `hcl:"generation,block"`
	Mongo      *mongoBlock      `hcl:"mongo,block"`
	Archive    *archiveBlock    `hcl:"archive,block"`
	Metrics    *metricsBlock    `hcl:"metrics,block"`
	Log        *logBlock        `hcl:"log,block"`
}

type serverBlock struct {
	Host         string `hcl:"host,optional"`
	Port         int    `hcl:"port,optional"`
	ReadTimeout  string `hcl:"read_timeout,optional"`
	WriteTimeout string `hcl:"write_timeout,optional"`
}

type generationBlock struct {
	Delay string `hcl:"delay,optional"`
}

type mongoBlock struct {
	URI      string `hcl:"uri,optional"`
	Database string `hcl:"database,optional"`
}

type archiveBlock struct {
	Dir string `hcl:"dir"`
}

type metricsBlock struct {
	Addr string `hcl:"addr"`
}

type logBlock struct {
	Level string `hcl:"level"`
}

func (fc *fileConfig) apply(cfg *Config) error {
	if s := fc.Server; s != nil {
		if s.Host != "" {
			cfg.Server.Host = s.Host
		}
		if s.Port != 0 {
			cfg.Server.Port = s.Port
		}
		if err := setDuration(&cfg.Server.ReadTimeout, s.ReadTimeout, "server.read_timeout"); err != nil {
			return err
		}
		if err := setDuration(&cfg.Server.WriteTimeout, s.WriteTimeout, "server.write_timeout"); err != nil {
			return err
		}
	}
	if g := fc.Generation; g != nil {
		if err := setDuration(&cfg.Generation.Delay, g.Delay, "generation.delay"); err != nil {
			return err
		}
	}
	if m := fc.Mongo; m != nil {
		if m.URI != "" {
			cfg.Mongo.URI = m.URI
		}
		if m.Database != "" {
			cfg.Mongo.Database = m.Database
		}
	}
	if a := fc.Archive; a != nil {
		cfg.Archive.Dir = a.Dir
	}
	if m := fc.Metrics; m != nil {
		cfg.Metrics.Addr = m.Addr
	}
	if l := fc.Log; l != nil {
		if err := cfg.Log.Level.UnmarshalText([]byte(l.Level)); err != nil {
			return fmt.Errorf("log.level: %w", err)
		}
	}
	return nil
}

func setDuration(dst *time.Duration, raw, name string) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = d
	return nil
}

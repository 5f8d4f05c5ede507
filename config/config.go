// Package config loads cilmeta settings from YAML.
package config

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/cilmeta/conflict"
	"github.com/wippyai/cilmeta/errors"
	"github.com/wippyai/cilmeta/resolve"
	"github.com/wippyai/cilmeta/writer"
)

// Config holds every setting the CLI and the library entry points accept.
type Config struct {
	// Workers bounds parallel table work. Zero means GOMAXPROCS.
	Workers int `yaml:"workers"`
	// Strict aborts resolution on the first malformed row instead of
	// collecting failures.
	Strict           bool    `yaml:"strict"`
	ConflictStrategy string  `yaml:"conflict_strategy"`
	Logging          Logging `yaml:"logging"`
	Writer           Writer  `yaml:"writer"`
}

// Logging configures the zap logger built by the CLI.
type Logging struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`
	// Development selects zap's development encoder.
	Development bool `yaml:"development"`
}

// Writer configures metadata serialization.
type Writer struct {
	BaseRVA uint32 `yaml:"base_rva"`
	// Version is the runtime version written when a root is created from
	// loose streams.
	Version string `yaml:"version"`
}

// DefaultConfig returns the settings used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Strict:           true,
		ConflictStrategy: conflict.StrategyLastWriteWins,
		Logging: Logging{
			Level: "info",
		},
		Writer: Writer{
			Version: writer.DefaultVersion,
		},
	}
}

var levels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

func invalid(field, detail string, args ...any) error {
	return errors.New(errors.PhaseConfig, errors.KindInvalidData).
		Field(field).
		Detail(detail, args...).
		Build()
}

// Validate checks field ranges and names.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return invalid("workers", "must not be negative, got %d", c.Workers)
	}
	if c.Workers > 16*runtime.NumCPU() {
		return invalid("workers", "%d exceeds 16 per CPU", c.Workers)
	}
	if _, err := conflict.ByName(c.ConflictStrategy); err != nil {
		return err
	}
	if !levels[c.Logging.Level] {
		return invalid("logging.level", "unknown level %q", c.Logging.Level)
	}
	if c.Writer.BaseRVA%4 != 0 {
		return invalid("writer.base_rva", "0x%x is not 4-byte aligned", c.Writer.BaseRVA)
	}
	if len(c.Writer.Version) > 255 {
		return invalid("writer.version", "longer than 255 bytes")
	}
	return nil
}

// Load reads path over the defaults and validates the result. Unknown keys
// are rejected.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(errors.PhaseConfig, errors.KindNotFound).
			Field("path").
			Detail("%s", path).
			Cause(err).
			Build()
	}
	defer f.Close()

	cfg := DefaultConfig()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, errors.New(errors.PhaseConfig, errors.KindInvalidData).
			Detail("parse %s", path).
			Cause(err).
			Build()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ResolveOptions maps the settings onto resolve.Options.
func (c *Config) ResolveOptions() resolve.Options {
	return resolve.Options{SkipMalformed: !c.Strict, Workers: c.Workers}
}

// WriterOptions maps the settings onto writer.Options.
func (c *Config) WriterOptions() writer.Options {
	return writer.Options{
		ConflictStrategy: c.ConflictStrategy,
		BaseRVA:          c.Writer.BaseRVA,
		Workers:          c.Workers,
		Version:          c.Writer.Version,
	}
}

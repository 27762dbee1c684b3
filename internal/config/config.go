package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"quiz-studio/internal/domain"
	"quiz-studio/internal/persist"
)

type Config struct {
	Server struct {
		Port string `yaml:"port" validate:"required,numeric"`
	} `yaml:"server"`
	Storage struct {
		Backend   string `yaml:"backend" validate:"oneof=memory file redis"`
		Dir       string `yaml:"dir" validate:"required_if=Backend file"`
		Namespace string `yaml:"namespace" validate:"required"`
		CacheTTL  string `yaml:"cache_ttl"`
	} `yaml:"storage"`
	Redis struct {
		Addr     string `yaml:"addr" validate:"required_if=Backend redis"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db" validate:"gte=0"`
		TTL      string `yaml:"ttl"`
		Prefix   string `yaml:"prefix"`
		// Backend mirrors storage.backend so required_if can see it.
		Backend string `yaml:"-"`
	} `yaml:"redis"`
	Quiz struct {
		QuestionTime int    `yaml:"question_time" validate:"gte=5,lte=180"`
		Tick         string `yaml:"tick"`
		AutoAdvance  string `yaml:"auto_advance"`
		Seed         int64  `yaml:"seed"`
	} `yaml:"quiz"`
	Export struct {
		Wasm     string `yaml:"wasm"`
		WasmExec string `yaml:"wasm_exec"`
	} `yaml:"export"`
	Log struct {
		Level  string `yaml:"level" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" validate:"oneof=text json"`
	} `yaml:"log"`
}

// Default is the configuration used when no file is present.
func Default() Config {
	var cfg Config
	cfg.Server.Port = "8080"
	cfg.Storage.Backend = "file"
	cfg.Storage.Dir = "./data"
	cfg.Storage.Namespace = persist.DefaultNamespace
	cfg.Storage.CacheTTL = "5s"
	cfg.Redis.TTL = "0s"
	cfg.Quiz.QuestionTime = domain.DefaultQuestionTime
	cfg.Quiz.Tick = "200ms"
	cfg.Quiz.AutoAdvance = "1500ms"
	cfg.Export.Wasm = "dist/quiz.wasm"
	cfg.Export.WasmExec = "dist/wasm_exec.js"
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	return cfg
}

// Load reads YAML config from path over the defaults. A missing file is
// not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, cfg.Validate()
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

var validate = validator.New()

// Validate checks field constraints.
func (c *Config) Validate() error {
	c.Redis.Backend = c.Storage.Backend
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Duration parses a duration string or returns the fallback if empty or
// malformed.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

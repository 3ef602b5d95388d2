package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by Defaults via Merge.
type Config struct {
	Addr string `json:"addr" yaml:"addr" toml:"addr"`
	// ModelPath is a .gguf file or a directory holding .gguf files.
	ModelPath string `json:"model_path" yaml:"model_path" toml:"model_path"`
	// Model selects a file by name when ModelPath is a directory.
	Model   string `json:"model" yaml:"model" toml:"model"`
	Variant string `json:"variant" yaml:"variant" toml:"variant"`

	// Backend selects the runtime: "llama" (in-process, needs the llama
	// build tag) or "server" (a running llama.cpp server at ServerURL).
	Backend      string `json:"backend" yaml:"backend" toml:"backend"`
	ServerURL    string `json:"server_url" yaml:"server_url" toml:"server_url"`
	ServerAPIKey string `json:"server_api_key" yaml:"server_api_key" toml:"server_api_key"`

	ContextSize int  `json:"context_size" yaml:"context_size" toml:"context_size"`
	GPULayers   int  `json:"gpu_layers" yaml:"gpu_layers" toml:"gpu_layers"`
	Threads     int  `json:"threads" yaml:"threads" toml:"threads"`
	NoMMap      bool `json:"no_mmap" yaml:"no_mmap" toml:"no_mmap"`

	MaxQueueDepth         int   `json:"max_queue_depth" yaml:"max_queue_depth" toml:"max_queue_depth"`
	MaxWaitSeconds        int   `json:"max_wait_seconds" yaml:"max_wait_seconds" toml:"max_wait_seconds"`
	PredictTimeoutSeconds int64 `json:"predict_timeout_seconds" yaml:"predict_timeout_seconds" toml:"predict_timeout_seconds"`
	DrainTimeoutSeconds   int   `json:"drain_timeout_seconds" yaml:"drain_timeout_seconds" toml:"drain_timeout_seconds"`
	MaxBodyBytes          int64 `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`

	CacheTTLSeconds int    `json:"cache_ttl_seconds" yaml:"cache_ttl_seconds" toml:"cache_ttl_seconds"`
	CacheCapacity   uint64 `json:"cache_capacity" yaml:"cache_capacity" toml:"cache_capacity"`

	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format" toml:"log_format"`

	CORSEnabled        bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSAllowedOrigins []string `json:"cors_allowed_origins" yaml:"cors_allowed_origins" toml:"cors_allowed_origins"`
	CORSAllowedMethods []string `json:"cors_allowed_methods" yaml:"cors_allowed_methods" toml:"cors_allowed_methods"`
	CORSAllowedHeaders []string `json:"cors_allowed_headers" yaml:"cors_allowed_headers" toml:"cors_allowed_headers"`

	Swagger bool `json:"swagger" yaml:"swagger" toml:"swagger"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

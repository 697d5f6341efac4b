package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"summaryd/pkg/types"
)

// Config holds runtime parameters for the service. Settings are read once at
// startup and treated as immutable afterwards. Zero values mean "unspecified"
// and are replaced by Default() values in main.
type Config struct {
	Addr string `json:"addr" yaml:"addr" toml:"addr"`

	// Model registry entries, per task/language.
	Models []types.ModelSpec `json:"models" yaml:"models" toml:"models"`

	// Model manager. HardCapacity makes max_resident_models an absolute
	// ceiling instead of a soft cap that overflows under load.
	MaxResidentModels int    `json:"max_resident_models" yaml:"max_resident_models" toml:"max_resident_models"`
	HardCapacity      bool   `json:"hard_capacity" yaml:"hard_capacity" toml:"hard_capacity"`
	DeviceMode        string `json:"device_mode" yaml:"device_mode" toml:"device_mode"` // auto, cpu, gpu
	Quantize          bool   `json:"quantize" yaml:"quantize" toml:"quantize"`
	LoadTimeoutSec    int    `json:"load_timeout_sec" yaml:"load_timeout_sec" toml:"load_timeout_sec"`
	LoadRetries       int    `json:"load_retries" yaml:"load_retries" toml:"load_retries"`
	LeaseWaitSec      int    `json:"lease_wait_sec" yaml:"lease_wait_sec" toml:"lease_wait_sec"`

	// Chunking.
	ChunkSizeWords    int `json:"chunk_size_words" yaml:"chunk_size_words" toml:"chunk_size_words"`
	ChunkOverlapWords int `json:"chunk_overlap_words" yaml:"chunk_overlap_words" toml:"chunk_overlap_words"`

	// Summary length policy (words).
	DefaultMinLength int `json:"default_min_length" yaml:"default_min_length" toml:"default_min_length"`
	DefaultMaxLength int `json:"default_max_length" yaml:"default_max_length" toml:"default_max_length"`
	MinSummaryLength int `json:"min_summary_length" yaml:"min_summary_length" toml:"min_summary_length"`
	MaxSummaryLength int `json:"max_summary_length" yaml:"max_summary_length" toml:"max_summary_length"`

	// Input ceilings (words).
	MinInputWords int `json:"min_input_words" yaml:"min_input_words" toml:"min_input_words"`
	MaxInputWords int `json:"max_input_words" yaml:"max_input_words" toml:"max_input_words"`

	// Pipeline.
	MapWorkers        int `json:"map_workers" yaml:"map_workers" toml:"map_workers"`
	MaxReductionDepth int `json:"max_reduction_depth" yaml:"max_reduction_depth" toml:"max_reduction_depth"`
	RequestTimeoutSec int `json:"request_timeout_sec" yaml:"request_timeout_sec" toml:"request_timeout_sec"`
	Seed              int `json:"seed" yaml:"seed" toml:"seed"`

	// Q&A.
	QAHistoryWindow   int `json:"qa_history_window" yaml:"qa_history_window" toml:"qa_history_window"`
	QAContextMaxChars int `json:"qa_context_max_chars" yaml:"qa_context_max_chars" toml:"qa_context_max_chars"`

	// HTTP surface.
	RateLimitPerMinute int      `json:"rate_limit_per_minute" yaml:"rate_limit_per_minute" toml:"rate_limit_per_minute"`
	CORSEnabled        bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins        []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
	MaxBodyBytes       int64    `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	LogLevel           string   `json:"log_level" yaml:"log_level" toml:"log_level"`

	// Result cache.
	RedisURL          string `json:"redis_url" yaml:"redis_url" toml:"redis_url"`
	EnableResultCache bool   `json:"enable_result_cache" yaml:"enable_result_cache" toml:"enable_result_cache"`
	CacheTTLSec       int    `json:"cache_ttl_sec" yaml:"cache_ttl_sec" toml:"cache_ttl_sec"`
}

// Default returns the configuration used when a field is unspecified.
func Default() Config {
	return Config{
		Addr:               ":8080",
		MaxResidentModels:  3,
		DeviceMode:         "auto",
		LoadTimeoutSec:     60,
		LoadRetries:        3,
		LeaseWaitSec:       30,
		ChunkSizeWords:     1000,
		ChunkOverlapWords:  200,
		DefaultMinLength:   50,
		DefaultMaxLength:   150,
		MinSummaryLength:   20,
		MaxSummaryLength:   500,
		MinInputWords:      10,
		MaxInputWords:      50000,
		MapWorkers:         4,
		MaxReductionDepth:  4,
		RequestTimeoutSec:  120,
		Seed:               42,
		QAHistoryWindow:    20,
		QAContextMaxChars:  2000,
		MaxBodyBytes:       1 << 20,
		LogLevel:           "info",
		CacheTTLSec:        3600,
	}
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
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// Merge fills unspecified fields of cfg from def.
func Merge(cfg, def Config) Config {
	if cfg.Addr == "" {
		cfg.Addr = def.Addr
	}
	if cfg.MaxResidentModels == 0 {
		cfg.MaxResidentModels = def.MaxResidentModels
	}
	if cfg.DeviceMode == "" {
		cfg.DeviceMode = def.DeviceMode
	}
	if cfg.LoadTimeoutSec == 0 {
		cfg.LoadTimeoutSec = def.LoadTimeoutSec
	}
	if cfg.LoadRetries == 0 {
		cfg.LoadRetries = def.LoadRetries
	}
	if cfg.LeaseWaitSec == 0 {
		cfg.LeaseWaitSec = def.LeaseWaitSec
	}
	if cfg.ChunkSizeWords == 0 {
		cfg.ChunkSizeWords = def.ChunkSizeWords
	}
	if cfg.ChunkOverlapWords == 0 {
		cfg.ChunkOverlapWords = def.ChunkOverlapWords
	}
	if cfg.DefaultMinLength == 0 {
		cfg.DefaultMinLength = def.DefaultMinLength
	}
	if cfg.DefaultMaxLength == 0 {
		cfg.DefaultMaxLength = def.DefaultMaxLength
	}
	if cfg.MinSummaryLength == 0 {
		cfg.MinSummaryLength = def.MinSummaryLength
	}
	if cfg.MaxSummaryLength == 0 {
		cfg.MaxSummaryLength = def.MaxSummaryLength
	}
	if cfg.MinInputWords == 0 {
		cfg.MinInputWords = def.MinInputWords
	}
	if cfg.MaxInputWords == 0 {
		cfg.MaxInputWords = def.MaxInputWords
	}
	if cfg.MapWorkers == 0 {
		cfg.MapWorkers = def.MapWorkers
	}
	if cfg.MaxReductionDepth == 0 {
		cfg.MaxReductionDepth = def.MaxReductionDepth
	}
	if cfg.RequestTimeoutSec == 0 {
		cfg.RequestTimeoutSec = def.RequestTimeoutSec
	}
	if cfg.Seed == 0 {
		cfg.Seed = def.Seed
	}
	if cfg.QAHistoryWindow == 0 {
		cfg.QAHistoryWindow = def.QAHistoryWindow
	}
	if cfg.QAContextMaxChars == 0 {
		cfg.QAContextMaxChars = def.QAContextMaxChars
	}
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = def.MaxBodyBytes
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
	if cfg.CacheTTLSec == 0 {
		cfg.CacheTTLSec = def.CacheTTLSec
	}
	return cfg
}

// Validate rejects settings the pipeline cannot run with.
func (c Config) Validate() error {
	if c.ChunkSizeWords <= 0 {
		return fmt.Errorf("chunk_size_words must be positive")
	}
	if c.ChunkOverlapWords < 0 || c.ChunkOverlapWords >= c.ChunkSizeWords {
		return fmt.Errorf("chunk_overlap_words must be >= 0 and < chunk_size_words")
	}
	if c.MaxResidentModels <= 0 {
		return fmt.Errorf("max_resident_models must be positive")
	}
	if c.DefaultMinLength >= c.DefaultMaxLength {
		return fmt.Errorf("default_min_length must be below default_max_length")
	}
	switch c.DeviceMode {
	case "auto", "cpu", "gpu":
	default:
		return fmt.Errorf("device_mode must be auto, cpu or gpu")
	}
	return nil
}

// RequestTimeout returns the per-request ceiling as a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

// CacheTTL returns the result cache TTL as a duration.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSec) * time.Second
}

// Package config loads the gateway configuration from YAML.
package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lafaom-mao/apilocale"
)

// APIKeyEnv is read when translation.api_key is empty.
const APIKeyEnv = "LAFAOM_TRANSLATION_API_KEY"

// Config represents the gateway configuration
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Backend     BackendConfig     `yaml:"backend"`
	Languages   LanguagesConfig   `yaml:"languages"`
	Cache       CacheConfig       `yaml:"cache"`
	Translation TranslationConfig `yaml:"translation"`
	Logging     LoggingConfig     `yaml:"logging"`
	Tracing     TracingConfig     `yaml:"tracing"`
}

// ServerConfig contains listener configuration
type ServerConfig struct {
	Listen        string `yaml:"listen"`
	AdminPrefix   string `yaml:"admin_prefix"`
	ForwardProxy  bool   `yaml:"forward_proxy"`
	ForwardListen string `yaml:"forward_listen"`
}

// BackendConfig describes the proxied REST API
type BackendConfig struct {
	URL        string `yaml:"url"`
	NativeLang string `yaml:"native_lang"`
}

// LanguagesConfig lists the display languages
type LanguagesConfig struct {
	Supported []string `yaml:"supported"`
	Default   string   `yaml:"default"`
}

// CacheConfig contains response cache and store configuration
type CacheConfig struct {
	TTL              string   `yaml:"ttl"`
	Exclusions       []string `yaml:"exclusions"`
	ClearAllOnSwitch bool     `yaml:"clear_all_on_switch"`
	Store            string   `yaml:"store"` // "memory", "disk" or "redis"
	Folder           string   `yaml:"folder"`
	MemoryQuota      int      `yaml:"memory_quota"` // bytes, 0 = unbounded
	RedisURL         string   `yaml:"redis_url"`
	RedisNamespace   string   `yaml:"redis_namespace"`
}

// TranslationConfig contains translation client configuration
type TranslationConfig struct {
	Endpoint      string          `yaml:"endpoint"` // "lingva", "openai" or "mock"
	BaseURL       string          `yaml:"base_url"` // empty selects the public endpoint
	APIKey        string          `yaml:"api_key"`
	Model         string          `yaml:"model"`
	Timeout       string          `yaml:"timeout"`
	ChunkSize     int             `yaml:"chunk_size"`
	Concurrency   int             `yaml:"concurrency"`
	MemoryEntries int             `yaml:"memory_entries"`
	MemoryTTL     string          `yaml:"memory_ttl"`
	PersistentTTL string          `yaml:"persistent_ttl"`
	MaxDepth      int             `yaml:"max_depth"`
	Workers       int             `yaml:"workers"`
	Retry         RetryConfig     `yaml:"retry"`
	RateLimit     RateLimitConfig `yaml:"rate_limit"`
}

type RetryConfig struct {
	MaxRetries int    `yaml:"max_retries"`
	BaseDelay  string `yaml:"base_delay"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"` // 0 disables limiting
	Burst             int `yaml:"burst"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns a configuration usable without a file, apart from the
// backend URL.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:        ":8080",
			AdminPrefix:   "/_gateway",
			ForwardListen: ":8081",
		},
		Backend: BackendConfig{
			NativeLang: apilocale.SourceLang,
		},
		Languages: LanguagesConfig{
			Supported: []string{"fr", "en", "es", "de", "ar"},
			Default:   apilocale.SourceLang,
		},
		Cache: CacheConfig{
			TTL:    apilocale.DefaultResponseTTL.String(),
			Store:  "memory",
			Folder: "./cache",
		},
		Translation: TranslationConfig{
			Endpoint:      "lingva",
			Timeout:       apilocale.DefaultRequestTimeout.String(),
			ChunkSize:     apilocale.DefaultChunkSize,
			Concurrency:   apilocale.DefaultBatchConcurrency,
			MemoryEntries: apilocale.DefaultMemoryEntries,
			MemoryTTL:     apilocale.DefaultMemoryTTL.String(),
			PersistentTTL: apilocale.DefaultPersistentTTL.String(),
			MaxDepth:      apilocale.DefaultLocalizeDepth,
			Workers:       apilocale.DefaultLocalizeWorkers,
			Retry: RetryConfig{
				MaxRetries: 2,
				BaseDelay:  "200ms",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file over the defaults
func Load(path string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	config.applyEnv()
	return config, nil
}

// FromEnv returns the defaults with environment overrides applied, for
// running without a config file.
func FromEnv() *Config {
	config := Default()
	config.applyEnv()
	return config
}

func (c *Config) applyEnv() {
	if c.Translation.APIKey == "" {
		c.Translation.APIKey = os.Getenv(APIKeyEnv)
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Listen == "" {
		return fmt.Errorf("server listen address is required")
	}
	if !strings.HasPrefix(c.Server.AdminPrefix, "/") {
		return fmt.Errorf("admin prefix must start with '/', got: %q", c.Server.AdminPrefix)
	}

	if c.Backend.URL == "" {
		return fmt.Errorf("backend URL is required")
	}
	u, err := url.Parse(c.Backend.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid backend URL: %q", c.Backend.URL)
	}

	if len(c.Languages.Supported) > 0 && !slices.ContainsFunc(c.Languages.Supported, func(l string) bool {
		return apilocale.SameLanguage(l, c.Languages.Default)
	}) {
		return fmt.Errorf("default language %q is not supported", c.Languages.Default)
	}

	for name, value := range map[string]string{
		"cache.ttl":                    c.Cache.TTL,
		"translation.timeout":          c.Translation.Timeout,
		"translation.memory_ttl":       c.Translation.MemoryTTL,
		"translation.persistent_ttl":   c.Translation.PersistentTTL,
		"translation.retry.base_delay": c.Translation.Retry.BaseDelay,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s format: %w", name, err)
		}
	}

	switch c.Cache.Store {
	case "memory":
	case "disk":
		if c.Cache.Folder == "" {
			return fmt.Errorf("cache folder is required for the disk store")
		}
	case "redis":
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("redis_url is required for the redis store")
		}
	default:
		return fmt.Errorf("cache store must be 'memory', 'disk' or 'redis', got: %s", c.Cache.Store)
	}

	switch c.Translation.Endpoint {
	case "lingva":
	case "openai":
		if c.Translation.APIKey == "" {
			return fmt.Errorf("translation api_key (or %s) is required for openai", APIKeyEnv)
		}
	case "mock":
	default:
		return fmt.Errorf("translation endpoint must be 'lingva', 'openai' or 'mock', got: %s", c.Translation.Endpoint)
	}

	if c.Translation.ChunkSize <= 0 || c.Translation.Concurrency <= 0 || c.Translation.MemoryEntries <= 0 {
		return fmt.Errorf("translation chunk_size, concurrency and memory_entries must be positive")
	}

	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("logging format must be 'text' or 'json', got: %s", c.Logging.Format)
	}

	return nil
}

// CacheTTL returns the response cache TTL. Call after Validate.
func (c *Config) CacheTTL() time.Duration {
	return duration(c.Cache.TTL, apilocale.DefaultResponseTTL)
}

func (c *Config) MemoryTTL() time.Duration {
	return duration(c.Translation.MemoryTTL, apilocale.DefaultMemoryTTL)
}

func (c *Config) PersistentTTL() time.Duration {
	return duration(c.Translation.PersistentTTL, apilocale.DefaultPersistentTTL)
}

func (c *Config) Timeout() time.Duration {
	return duration(c.Translation.Timeout, apilocale.DefaultRequestTimeout)
}

func (c *Config) RetryBaseDelay() time.Duration {
	return duration(c.Translation.Retry.BaseDelay, 200*time.Millisecond)
}

// BackendHost returns the host[:port] of the backend URL.
func (c *Config) BackendHost() string {
	u, err := url.Parse(c.Backend.URL)
	if err != nil {
		return ""
	}
	return u.Host
}

func duration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

package config

import (
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/zalando/go-keyring"
)

// Keyring identifiers used when the upstream token is not in the environment
const (
	keyringService = "notiongate"
	keyringUser    = "notion.api_key"
)

// envBindings maps environment variables to configuration keys
var envBindings = map[string]string{
	"NOTION_API_KEY":           "notion.api_key",
	"NOTION_PARENT_PAGE_ID":    "notion.parent_page_id",
	"NOTION_TASKS_DATABASE_ID": "notion.tasks_database_id",
	"NOTION_BASE_URL":          "notion.base_url",
	"API_KEY":                  "auth.api_key",
	"HTTP_PORT":                "server.http_port",
	"REGISTRY_STORE":           "registry.store",
	"REGISTRY_DIR":             "registry.dir",
	"REGISTRY_REDIS_ADDR":      "registry.redis_addr",
	"REGISTRY_POSTGRES_URL":    "registry.postgres_url",
	"BATCH_CHUNK_SIZE":         "batch.chunk_size",
	"BATCH_MAX_PARALLEL":       "batch.max_parallel",
	"BATCH_RETRY_ATTEMPTS":     "batch.retry_attempts",
	"BATCH_CHUNK_DELAY_MS":     "batch.chunk_delay_ms",
}

// Config manages service configuration
type Config struct {
	mu     sync.RWMutex
	values map[string]string
}

// New creates a new configuration manager
func New() *Config {
	return &Config{
		values: make(map[string]string),
	}
}

// Load builds a Config from the process environment. A .env file in the
// working directory is merged in first when present; variables already set in
// the environment win. When no upstream token is found in the environment the
// OS keyring is consulted as a fallback.
func Load() *Config {
	// Missing .env is fine; env vars alone are a complete configuration.
	_ = godotenv.Load()

	c := New()
	for env, key := range envBindings {
		if v := os.Getenv(env); v != "" {
			c.Set(key, v)
		}
	}

	if c.Get("notion.api_key") == "" {
		if v, err := keyring.Get(keyringService, keyringUser); err == nil && v != "" {
			c.Set("notion.api_key", v)
		}
	}

	return c
}

// Get retrieves a configuration value
func (c *Config) Get(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.values[key]
}

// GetOrDefault retrieves a configuration value, falling back when unset
func (c *Config) GetOrDefault(key, fallback string) string {
	if v := c.Get(key); v != "" {
		return v
	}
	return fallback
}

// Set stores a configuration value
func (c *Config) Set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

// GetAll returns a copy of all configuration values
func (c *Config) GetAll() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	copy := make(map[string]string)
	for k, v := range c.values {
		copy[k] = v
	}
	return copy
}

// Update updates configuration values
func (c *Config) Update(values map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, v := range values {
		c.values[k] = v
	}
}

package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	DriverMemory   = "memory"
	DriverBolt     = "bolt"
	DriverPostgres = "postgres"
)

// StorageConfig selects and configures the key-value backend the catalog is persisted to.
type StorageConfig struct {
	Driver   string               `koanf:"driver"`
	Key      string               `koanf:"key"`
	NodeID   int64                `koanf:"nodeid"`
	Bolt     BoltConfig           `koanf:"bolt"`
	Database DatabaseConfig       `koanf:"database"`
	Breaker  CircuitBreakerConfig `koanf:"breaker"`
}

type BoltConfig struct {
	Path    string        `koanf:"path"`
	Bucket  string        `koanf:"bucket"`
	Timeout time.Duration `koanf:"timeout"`
}

type DatabaseConfig struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
	Migrate bool          `koanf:"migrate"`
}

// CircuitBreakerConfig guards the backend; it is disabled when ConsecutiveFailures is 0.
type CircuitBreakerConfig struct {
	ConsecutiveFailures uint32        `koanf:"consecutivefailures"`
	OpenTimeout         time.Duration `koanf:"opentimeout"`
}

func (c *StorageConfig) Validate() error {
	if c.Key == "" {
		return fmt.Errorf("storage key is not configured")
	}
	if c.NodeID < 0 || c.NodeID > 1023 {
		return fmt.Errorf("storage node id must be between 0 and 1023: %d", c.NodeID)
	}
	switch c.Driver {
	case DriverMemory:
	case DriverBolt:
		if err := c.Bolt.Validate(); err != nil {
			return err
		}
	case DriverPostgres:
		if err := c.Database.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown storage driver %q (must be %s, %s or %s)", c.Driver, DriverMemory, DriverBolt, DriverPostgres)
	}
	return c.Breaker.Validate()
}

func (c *BoltConfig) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("bolt database path is not configured")
	}
	if c.Bucket == "" {
		return fmt.Errorf("bolt bucket is not configured")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("invalid bolt open timeout: %v", c.Timeout)
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("database URL is not configured")
	}
	if !isValidPostgresURL(c.URL) {
		return fmt.Errorf("database URL must start with 'postgres://': %s", maskURL(c.URL))
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("invalid database connect timeout: %v", c.Timeout)
	}
	return nil
}

func (c *CircuitBreakerConfig) Enabled() bool {
	return c.ConsecutiveFailures > 0
}

func (c *CircuitBreakerConfig) Validate() error {
	if c.Enabled() && c.OpenTimeout <= 0 {
		return fmt.Errorf("storage.breaker.opentimeout must be greater than 0")
	}
	return nil
}

// isValidPostgresURL checks if the provided URL is a valid PostgreSQL URL
func isValidPostgresURL(url string) bool {
	return strings.HasPrefix(url, "postgres://") ||
		strings.HasPrefix(url, "postgresql://")
}

func maskURL(url string) string {
	if url == "" {
		return "<not configured>"
	}
	// Mask the URL by replacing the username and password with "****"
	parts := strings.Split(url, "@")
	if len(parts) == 2 {
		return "****@" + parts[1]
	}
	return "****"
}

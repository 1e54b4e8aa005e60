// Package config defines the catalog service configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/abgdnv/gocatalog/internal/platform/configloader"
)

// ServiceName prefixes environment variables, e.g. CATALOG_SERVER_PORT.
const ServiceName = "catalog"

var _ configloader.Validator = (*Config)(nil)

type Config struct {
	HTTPServer HTTPConfig     `koanf:"server"`
	Log        LogConfig      `koanf:"log"`
	PProf      PProfConfig    `koanf:"pprof"`
	Shutdown   ShutdownConfig `koanf:"shutdown"`
	CORS       CORSConfig     `koanf:"cors"`
	Storage    StorageConfig  `koanf:"storage"`
}

// Defaults returns the values used when neither config.yaml nor the environment sets a key.
func Defaults() map[string]any {
	return map[string]any{
		"server.host":               "127.0.0.1",
		"server.port":               8080,
		"server.maxheaderbytes":     1 << 20,
		"server.timeout.read":       5 * time.Second,
		"server.timeout.write":      10 * time.Second,
		"server.timeout.idle":       60 * time.Second,
		"server.timeout.readheader": 2 * time.Second,
		"log.level":                 "info",
		"pprof.enabled":             false,
		"pprof.addr":                "127.0.0.1:6060",
		"shutdown.timeout":          10 * time.Second,
		"cors.maxage":               300,
		"storage.driver":            DriverBolt,
		"storage.key":               "products",
		"storage.nodeid":            1,
		"storage.bolt.path":         "data/catalog.db",
		"storage.bolt.bucket":       "catalog",
		"storage.bolt.timeout":      time.Second,
		"storage.database.timeout":  10 * time.Second,
	}
}

// Load reads the configuration from defaults, config.yaml, .env and CATALOG_* environment variables.
func Load() (*Config, error) {
	return configloader.Load[*Config](ServiceName, Defaults())
}

func (c *Config) String() string {
	var b strings.Builder

	b.WriteString(c.HTTPServer.String())

	b.WriteString("\n--- Storage ---\n")
	b.WriteString(fmt.Sprintf("  storage.driver: %s\n", c.Storage.Driver))
	b.WriteString(fmt.Sprintf("  storage.key: %s\n", c.Storage.Key))
	b.WriteString(fmt.Sprintf("  storage.nodeid: %d\n", c.Storage.NodeID))
	switch c.Storage.Driver {
	case DriverBolt:
		b.WriteString(fmt.Sprintf("  storage.bolt.path: %s\n", c.Storage.Bolt.Path))
		b.WriteString(fmt.Sprintf("  storage.bolt.bucket: %s\n", c.Storage.Bolt.Bucket))
		b.WriteString(fmt.Sprintf("  storage.bolt.timeout: %v\n", c.Storage.Bolt.Timeout))
	case DriverPostgres:
		b.WriteString(fmt.Sprintf("  storage.database.url: %s\n", maskURL(c.Storage.Database.URL)))
		b.WriteString(fmt.Sprintf("  storage.database.timeout: %v\n", c.Storage.Database.Timeout))
		b.WriteString(fmt.Sprintf("  storage.database.migrate: %t\n", c.Storage.Database.Migrate))
	}
	b.WriteString(fmt.Sprintf("  storage.breaker.consecutivefailures: %d\n", c.Storage.Breaker.ConsecutiveFailures))
	b.WriteString(fmt.Sprintf("  storage.breaker.opentimeout: %v\n", c.Storage.Breaker.OpenTimeout))

	b.WriteString("\n--- CORS ---\n")
	b.WriteString(fmt.Sprintf("  cors.allowedorigins: %v\n", c.CORS.AllowedOrigins))
	b.WriteString(fmt.Sprintf("  cors.maxage: %d\n", c.CORS.MaxAge))

	b.WriteString("\n--- Observability & Logging ---\n")
	b.WriteString(fmt.Sprintf("  log.level: %s\n", c.Log.Level))
	b.WriteString(fmt.Sprintf("  pprof.enabled: %t\n", c.PProf.Enabled))
	b.WriteString(fmt.Sprintf("  pprof.addr: %s\n", c.PProf.Addr))

	b.WriteString("\n--- Application Behavior ---\n")
	b.WriteString(fmt.Sprintf("  shutdown.timeout: %s\n", c.Shutdown.Timeout))

	return b.String()
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	if err := c.HTTPServer.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.PProf.Validate(); err != nil {
		return err
	}
	if err := c.Shutdown.Validate(); err != nil {
		return err
	}
	if err := c.CORS.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	return nil
}

package config

import (
	"fmt"
	"strings"
	"time"
)

type HTTPConfig struct {
	Host           string `koanf:"host"`
	Port           int    `koanf:"port"`
	MaxHeaderBytes int    `koanf:"maxheaderbytes"`
	Timeout        struct {
		Read       time.Duration `koanf:"read"`
		Write      time.Duration `koanf:"write"`
		Idle       time.Duration `koanf:"idle"`
		ReadHeader time.Duration `koanf:"readheader"`
	} `koanf:"timeout"`
}

// String returns a string representation of the HTTP server configuration.
func (c *HTTPConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Server ---\n")
	b.WriteString(fmt.Sprintf("  server.host: %s\n", c.Host))
	b.WriteString(fmt.Sprintf("  server.port: %d\n", c.Port))
	b.WriteString(fmt.Sprintf("  server.maxheaderbytes: %d\n", c.MaxHeaderBytes))
	b.WriteString(fmt.Sprintf("  server.timeout.read: %v\n", c.Timeout.Read))
	b.WriteString(fmt.Sprintf("  server.timeout.write: %v\n", c.Timeout.Write))
	b.WriteString(fmt.Sprintf("  server.timeout.idle: %v\n", c.Timeout.Idle))
	b.WriteString(fmt.Sprintf("  server.timeout.readheader: %v\n", c.Timeout.ReadHeader))
	return b.String()
}

func (c *HTTPConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid HTTP server port: %d", c.Port)
	}
	if c.Timeout.Read <= 0 {
		return fmt.Errorf("invalid HTTP server read timeout: %v", c.Timeout.Read)
	}
	if c.Timeout.Write <= 0 {
		return fmt.Errorf("invalid HTTP server write timeout: %v", c.Timeout.Write)
	}
	if c.Timeout.Idle <= 0 {
		return fmt.Errorf("invalid HTTP server idle timeout: %v", c.Timeout.Idle)
	}
	if c.Timeout.ReadHeader <= 0 {
		return fmt.Errorf("invalid HTTP server read header timeout: %v", c.Timeout.ReadHeader)
	}
	return nil
}

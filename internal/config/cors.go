package config

import (
	"fmt"
	"strings"
)

// CORSConfig lists the browser origins allowed to call the API. An empty list disables CORS.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowedorigins"`
	MaxAge         int      `koanf:"maxage"`
}

func (c *CORSConfig) Validate() error {
	for _, origin := range c.AllowedOrigins {
		if origin == "" {
			return fmt.Errorf("cors allowed origin must not be empty")
		}
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("cors allowed origin must start with http:// or https://: %s", origin)
		}
	}
	if c.MaxAge < 0 {
		return fmt.Errorf("cors max age must not be negative: %d", c.MaxAge)
	}
	return nil
}

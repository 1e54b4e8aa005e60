// Package configloader loads layered configuration into a service-specific struct.
package configloader

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Validator interface {
	Validate() error
}

const (
	configFile = "config.yaml"
	envFile    = ".env"
	// configFileEnv points at an alternative config file, e.g. CATALOG_CONFIG_FILE.
	configFileEnv = "CONFIG_FILE"
)

// Load merges, from lowest to highest priority: defaults, the YAML file, the .env file and
// the process environment. Environment keys use the <SERVICE>_ prefix and "_" as the path
// separator, so CATALOG_STORAGE_BOLT_PATH sets storage.bolt.path.
func Load[T Validator](serviceName string, defaults map[string]any) (T, error) {
	var cfg T
	k := koanf.New(".")

	envPrefix := fmt.Sprintf("%s_", strings.ToUpper(serviceName))
	envTransformer := func(key string) string {
		key = strings.ToLower(key)
		key = strings.TrimPrefix(key, strings.ToLower(envPrefix))
		return strings.ReplaceAll(key, "_", ".")
	}

	// 1. Built-in defaults
	if len(defaults) > 0 {
		if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
			return cfg, fmt.Errorf("error loading default config: %w", err)
		}
	}

	// 2. YAML file
	path := configFile
	if override := os.Getenv(envPrefix + configFileEnv); override != "" {
		path = override
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("WARN: error loading YAML config file '%s': %v", path, err)
		}
	}

	// 3. .env file, only keys carrying the service prefix
	if envFileMap, err := godotenv.Read(envFile); err == nil {
		envMap := make(map[string]any)
		for key, value := range envFileMap {
			if !strings.HasPrefix(strings.ToUpper(key), envPrefix) {
				continue
			}
			envMap[envTransformer(key)] = value
		}
		if err := k.Load(confmap.Provider(envMap, "."), nil); err != nil {
			log.Printf("WARN: error loading .env config: %v", err)
		}
	} else if !os.IsNotExist(err) {
		log.Printf("WARN: error reading .env file: %v", err)
	}

	// 4. System environment, the highest priority
	if err := k.Load(env.Provider(envPrefix, ".", envTransformer), nil); err != nil {
		log.Printf("WARN: error loading system env vars: %v", err)
	}
	k.Delete(strings.ToLower(strings.ReplaceAll(configFileEnv, "_", ".")))

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

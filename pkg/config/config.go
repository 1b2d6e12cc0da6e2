package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the MetaSpec server configuration
type Config struct {
	Server    ServerConfig      `mapstructure:"server"`
	Log       LogConfig         `mapstructure:"log"`
	Factories FactoriesConfig   `mapstructure:"factories"`
	Lookups   map[string]string `mapstructure:"lookups"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	APIPrefix string `mapstructure:"api_prefix"`
}

// LogConfig represents logger configuration
type LogConfig struct {
	Dev     bool     `mapstructure:"dev"`
	Level   string   `mapstructure:"level"`
	Outputs []string `mapstructure:"outputs"`
}

// FactoriesConfig names the databases behind the built-in factories
type FactoriesConfig struct {
	GormDSN string `mapstructure:"gorm_dsn"`
	BunDSN  string `mapstructure:"bun_dsn"`
	Migrate bool   `mapstructure:"migrate"`
}

// Addr returns host:port
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load loads metaspec.yml or metaspec.yaml from the given directories,
// the working directory when none are given. Environment variables prefixed
// with METASPEC_ override file values.
func Load(paths ...string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.api_prefix", "")
	v.SetDefault("log.dev", false)
	v.SetDefault("log.level", "")
	v.SetDefault("log.outputs", []string{})
	v.SetDefault("factories.gorm_dsn", "file:metaspec_gorm?mode=memory&cache=shared")
	v.SetDefault("factories.bun_dsn", "file:metaspec_bun?mode=memory&cache=shared")
	v.SetDefault("factories.migrate", true)

	// Set config name and paths
	v.SetConfigName("metaspec")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	// Enable environment variable support
	v.SetEnvPrefix("METASPEC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got: %d", cfg.Server.Port)
	}
	if cfg.Server.APIPrefix != "" {
		if !strings.HasPrefix(cfg.Server.APIPrefix, "/") {
			return fmt.Errorf("server.api_prefix must start with '/', got: %s", cfg.Server.APIPrefix)
		}
		if strings.HasSuffix(cfg.Server.APIPrefix, "/") {
			return fmt.Errorf("server.api_prefix must not end with '/', got: %s", cfg.Server.APIPrefix)
		}
	}
	return nil
}

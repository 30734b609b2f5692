package config

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all configurable values for the server.
type Config struct {
	Transport           string   `mapstructure:"transport"`
	Port                int      `mapstructure:"port"`
	MaxFileSizeMB       int      `mapstructure:"max_file_size_mb"`
	OperationTimeoutSec int      `mapstructure:"operation_timeout_sec"`
	Roots               []string `mapstructure:"roots"`
}

// flagBindings maps viper keys to the command-line flag names they follow.
var flagBindings = map[string]string{
	"transport":             "transport",
	"port":                  "port",
	"max_file_size_mb":      "max-file-size",
	"operation_timeout_sec": "timeout",
	"roots":                 "root",
}

// Load resolves configuration with flag > environment > config file > default
// precedence. Environment variables use the HASHLINE_ prefix
// (HASHLINE_TRANSPORT, HASHLINE_PORT, ...). cfgFile may be empty.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetDefault("transport", "stdio")
	v.SetDefault("port", 8080)
	v.SetDefault("max_file_size_mb", 10)
	v.SetDefault("operation_timeout_sec", 30)
	v.SetDefault("roots", []string{})

	v.SetEnvPrefix("HASHLINE")
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	if flags != nil {
		for key, flagName := range flagBindings {
			if f := flags.Lookup(flagName); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", flagName, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// Validate checks if the configuration values are valid.
func (c *Config) Validate() error {
	if c.Transport != "http" && c.Transport != "stdio" {
		return fmt.Errorf("transport must be 'http' or 'stdio'")
	}
	if c.Port < 1024 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1024 and 65535")
	}
	if c.MaxFileSizeMB < 1 || c.MaxFileSizeMB > 100 {
		return fmt.Errorf("max file size must be between 1 and 100 MB")
	}
	if c.OperationTimeoutSec < 1 || c.OperationTimeoutSec > 300 {
		return fmt.Errorf("operation timeout must be between 1 and 300 seconds")
	}
	if len(c.Roots) == 0 {
		return fmt.Errorf("at least one root directory is required")
	}
	for _, root := range c.Roots {
		if root == "" {
			return fmt.Errorf("root directories must not be empty")
		}
	}
	return nil
}

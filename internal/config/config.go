// Package config provides configuration management for the snapfire dev
// server using Viper for flexible loading from files, environment variables,
// and command-line flags.
//
// The configuration system supports YAML files (.snapfire.yml), environment
// variable overrides with the SNAPFIRE_ prefix, and validation of paths and
// server settings.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Templates TemplatesConfig `mapstructure:"templates"`
	Reload    ReloadConfig    `mapstructure:"reload"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

type TemplatesConfig struct {
	Glob    string                 `mapstructure:"glob"`
	Globals map[string]interface{} `mapstructure:"globals"`
}

type ReloadConfig struct {
	StaticDirs []string `mapstructure:"static_dirs"`
	WSPath     string   `mapstructure:"ws_path"`
	AutoInject bool     `mapstructure:"auto_inject"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// An unset bool decodes to false; auto-injection defaults on.
	if !viper.IsSet("reload.auto_inject") {
		config.Reload.AutoInject = true
	}

	// Defaults
	if config.Server.Port == 0 {
		config.Server.Port = 3000
	}
	if config.Server.Host == "" {
		config.Server.Host = "localhost"
	}
	if config.Templates.Glob == "" {
		config.Templates.Glob = "templates/**/*.html"
	}
	if config.Reload.WSPath == "" {
		config.Reload.WSPath = "/_snapfire/ws"
	}
	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	for _, dir := range config.Reload.StaticDirs {
		if err := validatePath(dir); err != nil {
			return fmt.Errorf("invalid static dir '%s': %w", dir, err)
		}
	}

	if !strings.HasPrefix(config.Reload.WSPath, "/") {
		return fmt.Errorf("ws_path must start with '/': %s", config.Reload.WSPath)
	}

	return nil
}

// validateServerConfig validates server configuration values
func validateServerConfig(config *ServerConfig) error {
	// Port 0 is allowed for system-assigned ports in testing.
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Port)
	}

	if config.Host != "" {
		dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}
		for _, char := range dangerousChars {
			if strings.Contains(config.Host, char) {
				return fmt.Errorf("host contains dangerous character: %s", char)
			}
		}
	}

	return nil
}

// validatePath validates a file path for security
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	cleanPath := filepath.Clean(path)

	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path contains traversal: %s", path)
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'"}
	for _, char := range dangerousChars {
		if strings.Contains(cleanPath, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}

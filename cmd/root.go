// Package cmd provides the command-line interface for the snapfire dev
// server with configuration management over multiple sources.
//
// Configuration precedence, highest first:
//  1. Command-line flags (--config, --port, ...)
//  2. SNAPFIRE_CONFIG_FILE environment variable (custom config file path)
//  3. Individual environment variables (SNAPFIRE_SERVER_PORT, ...)
//  4. Configuration file (.snapfire.yml)
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "snapfire",
	Short: "A live-reload dev server for server-rendered HTML templates",
	Long: `Snapfire serves a directory of Jinja-style HTML templates with live
reload: template edits trigger a full browser reload and stylesheet edits
are hot-swapped in place, in every connected tab.

Quick Start:
  snapfire serve                  Serve ./templates with live reload
  snapfire serve --templates 'site/**/*.html' --static assets
  snapfire version                Print build information`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .snapfire.yml, can also use SNAPFIRE_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	bindFlags(rootCmd.PersistentFlags(), map[string]string{
		"log.level":  "log-level",
		"log.format": "log-format",
	})
}

// initConfig wires viper to the config file and SNAPFIRE_ environment
// variables. A missing or malformed config file degrades to defaults.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("SNAPFIRE_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".snapfire")
	}

	viper.SetEnvPrefix("SNAPFIRE")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

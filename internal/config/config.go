// Package config loads MindMash configuration from config files and
// environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	appName = "mindmash"

	defaultLogLevel = "info"
)

// APIConfig defines how to reach the live response backend.
type APIConfig struct {
	BaseURL string        `json:"baseURL"`
	Timeout time.Duration `json:"timeout"`
}

// ServerConfig defines the HTTP/WebSocket server settings.
type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// OrchestratorConfig tunes the response pipeline.
type OrchestratorConfig struct {
	InteractionFrequency float64 `json:"interactionFrequency"`
	HistoryLimit         int     `json:"historyLimit"`
	DelayScale           float64 `json:"delayScale"`
	Seed                 int64   `json:"seed"`
}

// Config is the main application configuration.
type Config struct {
	Offline      bool               `json:"offline"`
	Debug        bool               `json:"debug"`
	LogLevel     string             `json:"logLevel"`
	API          APIConfig          `json:"api"`
	Server       ServerConfig       `json:"server"`
	Orchestrator OrchestratorConfig `json:"orchestrator"`
}

// Load initializes the configuration from config files and environment
// variables. Missing config files are not an error; defaults apply.
func Load(debug bool) (*Config, error) {
	configureViper()
	setDefaults(debug)

	cfg := &Config{}
	if err := readConfig(cfg, viper.ReadInConfig()); err != nil {
		return nil, err
	}
	return cfg, nil
}

// configureViper sets up viper's configuration paths and environment variables
func configureViper() {
	viper.SetConfigName(fmt.Sprintf(".%s", appName))
	viper.SetConfigType("json")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(fmt.Sprintf("$XDG_CONFIG_HOME/%s", appName))
	viper.AddConfigPath(fmt.Sprintf("$HOME/.config/%s", appName))
	viper.SetEnvPrefix(strings.ToUpper(appName))
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// setDefaults configures default values for configuration options
func setDefaults(debug bool) {
	viper.SetDefault("offline", true)

	viper.SetDefault("api.baseURL", "http://localhost:3000")
	viper.SetDefault("api.timeout", 30*time.Second)

	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 47742)

	viper.SetDefault("orchestrator.interactionFrequency", 0.7)
	viper.SetDefault("orchestrator.historyLimit", 24)
	viper.SetDefault("orchestrator.delayScale", 1.0)
	viper.SetDefault("orchestrator.seed", 0)

	if debug {
		viper.SetDefault("debug", true)
		viper.Set("logLevel", "debug")
	} else {
		viper.SetDefault("debug", false)
		viper.SetDefault("logLevel", defaultLogLevel)
	}
}

// readConfig reads configuration from file and environment
func readConfig(cfg *Config, err error) error {
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; ignore error
		} else {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to decode config: %w", err)
	}
	return nil
}

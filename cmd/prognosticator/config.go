package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/tinytelemetry/prognosticator/internal/model"
)

// appConfig holds the terminal client configuration.
type appConfig struct {
	Endpoint         string        `mapstructure:"endpoint"`
	OutputDir        string        `mapstructure:"output-dir"`
	RequestTimeout   time.Duration `mapstructure:"request-timeout"`
	HistoryEnabled   bool          `mapstructure:"history-enabled"`
	HistoryLimit     int           `mapstructure:"history-limit"`
	HistoryRetention int           `mapstructure:"history-retention"`
	DBPath           string        `mapstructure:"db-path"`
	ConfigPath       string        `mapstructure:"-"` // not from config file
}

func loadConfig(configPath string) (appConfig, error) {
	var cfg appConfig

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("loading .env: %w", err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("PROGNOSTICATOR")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("endpoint", model.DefaultEndpoint)
	v.SetDefault("output-dir", ".")
	v.SetDefault("request-timeout", time.Duration(0))
	v.SetDefault("history-enabled", true)
	v.SetDefault("history-limit", model.DefaultHistoryLimit)
	v.SetDefault("history-retention", model.DefaultHistoryRetention)
	v.SetDefault("db-path", filepath.Join(home, ".local", "share", "prognosticator", "history.duckdb"))

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "prognosticator", "config.yml"))
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	cfg.ConfigPath = v.ConfigFileUsed()
	if cfg.RequestTimeout < 0 {
		return cfg, fmt.Errorf("invalid request-timeout: %s", cfg.RequestTimeout)
	}

	// Expand ~ in paths
	cfg.DBPath = expandHome(home, cfg.DBPath)
	cfg.OutputDir = expandHome(home, cfg.OutputDir)

	return cfg, nil
}

func expandHome(home, path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

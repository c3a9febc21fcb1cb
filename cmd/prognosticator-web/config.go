package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/tinytelemetry/prognosticator/internal/model"
)

// webConfig holds the web form server configuration.
type webConfig struct {
	ListenAddr       string        `mapstructure:"listen-addr"`
	Endpoint         string        `mapstructure:"endpoint"`
	RequestTimeout   time.Duration `mapstructure:"request-timeout"`
	HistoryEnabled   bool          `mapstructure:"history-enabled"`
	HistoryRetention int           `mapstructure:"history-retention"`
	DBPath           string        `mapstructure:"db-path"`
	ConfigPath       string        `mapstructure:"-"` // not from config file
}

func loadWebConfig(configPath string) (webConfig, error) {
	var cfg webConfig

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

	v.SetDefault("listen-addr", model.DefaultListenAddr)
	v.SetDefault("endpoint", model.DefaultEndpoint)
	v.SetDefault("request-timeout", time.Duration(0))
	v.SetDefault("history-enabled", true)
	v.SetDefault("history-retention", model.DefaultHistoryRetention)
	v.SetDefault("db-path", filepath.Join(home, ".local", "share", "prognosticator", "web-history.duckdb"))

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

	if _, _, err := net.SplitHostPort(cfg.ListenAddr); err != nil {
		return cfg, fmt.Errorf("invalid listen-addr %q: %w", cfg.ListenAddr, err)
	}
	if cfg.RequestTimeout < 0 {
		return cfg, fmt.Errorf("invalid request-timeout: %s", cfg.RequestTimeout)
	}

	// Expand ~ in db-path
	if strings.HasPrefix(cfg.DBPath, "~/") {
		cfg.DBPath = filepath.Join(home, cfg.DBPath[2:])
	}

	return cfg, nil
}

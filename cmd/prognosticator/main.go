package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/prognosticator/internal/duckdb"
	"github.com/tinytelemetry/prognosticator/internal/model"
	"github.com/tinytelemetry/prognosticator/internal/predict"
	"github.com/tinytelemetry/prognosticator/internal/tui"
)

// Build variables - set by ldflags during build.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

func main() {
	var configPath string
	var showVersion bool
	var opts headlessOptions

	flag.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/prognosticator/config.yml)")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.StringVar(&opts.File, "file", "", "CSV file to submit without starting the terminal UI")
	flag.StringVar(&opts.Interval, "interval", "", "time interval sent with -file")
	flag.StringVar(&opts.Format, "format", formatTable, "headless output: table, csv, json, yaml or xlsx")
	flag.Parse()

	if showVersion {
		fmt.Printf("Prognosticator - Traffic Prediction Client\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	cleanupLogger := configureRuntimeLogger()
	defer cleanupLogger()

	client := predict.NewClient(cfg.Endpoint, predict.WithTimeout(cfg.RequestTimeout))

	store, closeStore := openHistory(cfg)
	defer closeStore()

	if opts.File != "" {
		opts.OutputDir = cfg.OutputDir
		err = runHeadless(context.Background(), client, historyWriter(store), opts, os.Stdout)
	} else {
		err = runTUI(cfg, client, store)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		closeStore()
		os.Exit(1)
	}
}

// openHistory opens the submission history when enabled. A store that cannot
// be opened disables history instead of failing the client.
func openHistory(cfg appConfig) (*duckdb.Store, func()) {
	if !cfg.HistoryEnabled {
		return nil, func() {}
	}
	store, err := duckdb.NewStore(cfg.DBPath)
	if err != nil {
		log.Printf("history: open %s: %v (history disabled)", cfg.DBPath, err)
		return nil, func() {}
	}
	cleaner := duckdb.NewRetentionCleaner(store, duckdb.RetentionConfig{
		RetentionDays: cfg.HistoryRetention,
	})

	closed := false
	return store, func() {
		if closed {
			return
		}
		closed = true
		if cleaner != nil {
			cleaner.Stop()
		}
		if err := store.Close(); err != nil {
			log.Printf("history: close: %v", err)
		}
	}
}

func historyWriter(store *duckdb.Store) model.HistoryWriter {
	if store == nil {
		return nil
	}
	return store
}

func runTUI(cfg appConfig, client model.Predictor, store *duckdb.Store) error {
	formPage := tui.NewFormPage(tui.FormOptions{
		Predictor: client,
		History:   historyWriter(store),
		OutputDir: cfg.OutputDir,
	})

	var historyPage tui.Page
	if store != nil {
		historyPage = tui.NewHistoryPage(store, cfg.HistoryLimit)
	}
	app := tui.NewApp(formPage, historyPage)

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		if strings.Contains(err.Error(), "TTY") || strings.Contains(err.Error(), "/dev/tty") {
			return fmt.Errorf("TUI requires a real terminal; use -file for headless mode")
		}
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

func configureRuntimeLogger() func() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	home, err := os.UserHomeDir()
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	logDir := filepath.Join(home, ".local", "state", "prognosticator")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	logPath := filepath.Join(logDir, "prognosticator.log")
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	log.SetOutput(f)
	return func() {
		_ = f.Close()
	}
}

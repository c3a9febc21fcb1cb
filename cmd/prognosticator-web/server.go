package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/tinytelemetry/prognosticator/internal/duckdb"
	"github.com/tinytelemetry/prognosticator/internal/httpserver"
	"github.com/tinytelemetry/prognosticator/internal/model"
	"github.com/tinytelemetry/prognosticator/internal/predict"
)

// runServer serves the web form until SIGINT or SIGTERM.
func runServer(cfg webConfig) error {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.SetOutput(os.Stderr)

	client := predict.NewClient(cfg.Endpoint, predict.WithTimeout(cfg.RequestTimeout))

	var history model.HistoryStore
	if cfg.HistoryEnabled {
		store, err := duckdb.NewStore(cfg.DBPath, 10*time.Second)
		if err != nil {
			return fmt.Errorf("failed to initialize history: %w", err)
		}
		defer store.Close()

		cleaner := duckdb.NewRetentionCleaner(store, duckdb.RetentionConfig{
			RetentionDays: cfg.HistoryRetention,
		})
		if cleaner != nil {
			defer cleaner.Stop()
		}
		history = store
	}

	srv := httpserver.NewServer(cfg.ListenAddr, client, history)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start web server: %w", err)
	}

	printStartupBanner(cfg, client.Endpoint())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return serveUntilDone(ctx, srv)
}

// serveUntilDone blocks until ctx is cancelled or the server fails, then
// shuts the server down.
func serveUntilDone(ctx context.Context, srv *httpserver.Server) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case err, ok := <-srv.Errors():
			if ok {
				return fmt.Errorf("web server stopped: %w", err)
			}
			return nil
		case <-gctx.Done():
			return nil
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Printf("server: shutting down")
		return srv.Stop()
	})

	return g.Wait()
}

func printStartupBanner(cfg webConfig, endpoint string) {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cyan := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	bold := lipgloss.NewStyle().Bold(true)

	check := green.Render("●")
	dot := dim.Render("●")

	var lines []string
	lines = append(lines, "")
	lines = append(lines, "    "+cyan.Bold(true).Render("Traffic Prediction")+"  "+dim.Render("v"+version))
	lines = append(lines, "")

	separator := dim.Render("    ─────────────────────────────────")
	lines = append(lines, separator)
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Gateway"))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("    %s  Web Form       %s", check, cyan.Render("http://"+cfg.ListenAddr)))
	lines = append(lines, fmt.Sprintf("    %s  Predictor      %s", check, dim.Render(endpoint)))
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Storage"))
	lines = append(lines, "")
	if cfg.HistoryEnabled {
		lines = append(lines, fmt.Sprintf("    %s  History        %s", check, dim.Render(shortenPath(cfg.DBPath))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  History        %s", dot, dim.Render("disabled")))
	}

	lines = append(lines, "")
	lines = append(lines, bold.Render("    Config"))
	lines = append(lines, "")
	if cfg.ConfigPath != "" {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", check, dim.Render(shortenPath(cfg.ConfigPath))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", dot, dim.Render("default (no file)")))
	}

	lines = append(lines, "")
	lines = append(lines, separator)
	lines = append(lines, "")
	lines = append(lines, "    "+dim.Render("Press ")+yellow.Render("Ctrl+C")+dim.Render(" to stop"))
	lines = append(lines, "")

	fmt.Println(strings.Join(lines, "\n"))
}

func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}

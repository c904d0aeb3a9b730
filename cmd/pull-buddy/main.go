// Package main runs the reviewer recommendation engine as an MCP server
// over stdio.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/sim0417/mcp-pull-buddy/pkg/github"
	"github.com/sim0417/mcp-pull-buddy/pkg/reviewer"
	"github.com/sim0417/mcp-pull-buddy/pkg/server"
)

const version = "1.0.0"

var (
	verbose       = flag.Bool("v", false, "Verbose output with detailed diagnostics")
	cacheTTL      = flag.Duration("cache-ttl", 5*time.Minute, "TTL for cached GitHub responses")
	historyWindow = flag.Duration("history-window", 30*24*time.Hour, "Lookback window for review history")
	httpTimeout   = flag.Duration("http-timeout", 30*time.Second, "Timeout for GitHub API requests")
	useAppAuth    = flag.Bool("app", false, "Authenticate as a GitHub App (requires -app-id and -app-key)")
	appID         = flag.String("app-id", "", "GitHub App ID")
	appKeyPath    = flag.String("app-key", "", "Path to the GitHub App private key (PEM)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Serves GitHub reviewer recommendations to MCP clients over stdio.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nAuthentication:\n")
		fmt.Fprintf(os.Stderr, "  GITHUB_TOKEN         personal access token (default)\n")
		fmt.Fprintf(os.Stderr, "  -app -app-id -app-key  GitHub App authentication\n")
	}
	flag.Parse()

	// Set up structured logging. Stdout carries the MCP stdio transport,
	// so all logs go to stderr.
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := run(context.Background()); err != nil {
		slog.Error("Server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// A missing .env file is fine; environment variables win either way.
	if err := godotenv.Load(); err == nil {
		slog.Debug("Loaded environment from .env file")
	}

	cfg := github.Config{
		UseAppAuth:  *useAppAuth,
		AppID:       *appID,
		AppKeyPath:  *appKeyPath,
		HTTPTimeout: *httpTimeout,
	}
	if !cfg.UseAppAuth {
		cfg.Token = os.Getenv("GITHUB_TOKEN")
		if cfg.Token == "" {
			return fmt.Errorf("GITHUB_TOKEN is not set; export a personal access token or use -app")
		}
	}

	client, err := github.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create GitHub client: %w", err)
	}

	finder := reviewer.New(client, reviewer.Config{
		CacheTTL:      *cacheTTL,
		HistoryWindow: *historyWindow,
	})

	slog.Info("Starting MCP server", "version", version, "cache_ttl", *cacheTTL, "app_auth", cfg.UseAppAuth)
	srv := server.New(finder, client, version)
	return srv.ServeStdio()
}

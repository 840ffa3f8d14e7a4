package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/claude/calilog/internal/backend"
	"github.com/claude/calilog/internal/config"
	"github.com/claude/calilog/internal/mcp"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file (ignored with -url)")
	baseURL := flag.String("url", "", "calilog server URL; reads the local database when empty")
	apiKey := flag.String("api-key", os.Getenv("CALILOG_API_KEY"), "API key for -url")
	flag.Parse()

	// stdout carries the protocol.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var ds mcp.DataSource
	if *baseURL != "" {
		ds = mcp.NewHTTPClient(*baseURL, *apiKey)
		log.Info("using remote data source", "url", *baseURL)
	} else {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		store, err := backend.Open(context.Background(), cfg.Database, log)
		if err != nil {
			log.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer store.Close()
		ds = store
	}

	if err := server.ServeStdio(mcp.New(ds, Version, log)); err != nil {
		log.Error("mcp server error", "error", err)
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/claude/calilog/internal/backend"
	"github.com/claude/calilog/internal/config"
	"github.com/claude/calilog/internal/mcp"
	"github.com/claude/calilog/internal/program"
	"github.com/claude/calilog/internal/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	migrationsPath := flag.String("migrations", "migrations", "PostgreSQL migrations directory")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("calilog starting", "version", Version)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := backend.Migrate(cfg.Database, *migrationsPath); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied", "driver", cfg.Database.Driver)

	ctx := context.Background()
	store, err := backend.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	// Runs created over HTTP have no local speaker; cues are left to clients.
	srv := server.New(store, server.Defaults{
		Program:  cfg.ProgramSettings(),
		Interval: cfg.IntervalSettings(),
		Runner:   program.Options{Cues: cfg.FeedbackOptions(), Logger: log},
	}, cfg.Auth.APIKey, log)
	defer srv.Close()

	srv.SetMCP(mcpserver.NewStreamableHTTPServer(mcp.New(store, Version, log)))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.Error("listen failed", "addr", addr, "error", err)
		os.Exit(1)
	}
	if cfg.Auth.APIKey == "" {
		log.Warn("API key not set, the API is unauthenticated")
	}
	log.Info("server starting", "addr", addr)

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}

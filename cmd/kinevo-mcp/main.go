package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/claude/kinevo/internal/config"
	kinevomcp "github.com/claude/kinevo/internal/mcp"
	"github.com/claude/kinevo/internal/storage"
	"github.com/claude/kinevo/internal/trainingroom"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// kinevo-mcp serves coaching data over MCP stdio against the local
// database. It shares the training-room state db with the main server for
// the live-room resource, read-only.
func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// Logs go to stderr; stdout belongs to the MCP transport.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := storage.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var state *trainingroom.StateDB
	if cfg.Room.StateDir != "" {
		state, err = trainingroom.OpenStateDB(cfg.Room.StateDir)
		if err != nil {
			log.Warn("training room state unavailable", "error", err)
		} else {
			defer state.Close()
		}
	}

	srv := kinevomcp.New(db, state, Version, log)
	if err := server.ServeStdio(srv); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}

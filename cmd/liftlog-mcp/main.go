package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/claude/liftlog/internal/config"
	lmcp "github.com/claude/liftlog/internal/mcp"
	"github.com/claude/liftlog/internal/storage/backend"
	"github.com/claude/liftlog/internal/tracker"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file (local mode)")
	serverURL := flag.String("server", "", "base URL of a remote liftlog server (remote mode)")
	apiKey := flag.String("api-key", os.Getenv("LIFTLOG_AUTH_API_KEY"), "API key for the remote server")
	login := flag.String("user", "local", "login of the user to serve (local mode)")
	flag.Parse()

	// stdout carries the MCP protocol
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var ds lmcp.DataSource
	userID := 1

	if *serverURL != "" {
		ds = lmcp.NewHTTPClient(*serverURL, *apiKey)
		log.Info("remote mode", "server", *serverURL)
	} else {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		log = cfg.Log.NewLogger(os.Stderr)

		ctx := context.Background()
		store, err := backend.Open(ctx, cfg.Database)
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer store.Close()

		svc := tracker.New(store, nil, log)
		userID, err = svc.ResolveUser(ctx, *login, *login)
		if err != nil {
			log.Error("failed to resolve user", "login", *login, "error", err)
			os.Exit(1)
		}
		ds = svc
		log.Info("local mode", "driver", cfg.Database.Driver, "user_id", userID)
	}

	s := lmcp.New(ds, Version, log)
	err := mcpserver.ServeStdio(s, mcpserver.WithStdioContextFunc(func(ctx context.Context) context.Context {
		return lmcp.WithUserID(ctx, userID)
	}))
	if err != nil {
		fmt.Fprintf(os.Stderr, "serve MCP: %v\n", err)
		os.Exit(1)
	}
}

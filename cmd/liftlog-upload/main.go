package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/claude/liftlog/internal/upload"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "LiftLog server URL (e.g. https://liftlog.tail1234.ts.net)")
	apiKey := flag.String("api-key", os.Getenv("LIFTLOG_AUTH_API_KEY"), "API key for the server")
	dir := flag.String("path", "", "directory containing Alpha Progression CSV exports")
	warmups := flag.Bool("warmups", false, "import warm-up sets as regular sets")
	dryRun := flag.Bool("dry-run", false, "list files that would be sent without sending them")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("liftlog-upload", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *dir == "" || *serverURL == "" {
		fmt.Fprintf(os.Stderr, "Usage: liftlog-upload -server <URL> -path <exports dir> [-api-key KEY] [-warmups] [-dry-run]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	info, err := os.Stat(*dir)
	if err != nil || !info.IsDir() {
		log.Error("export directory not found", "path", *dir)
		os.Exit(1)
	}

	// Open state database
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Error("failed to get home directory", "error", err)
		os.Exit(1)
	}
	state, err := upload.OpenHistory(filepath.Join(homeDir, ".liftlog-upload"))
	if err != nil {
		log.Error("failed to open state database", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	if *dryRun {
		log.Info("DRY RUN mode: files will be listed but not sent")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	uploader := upload.New(upload.NewClient(*serverURL, *apiKey), state, *dir,
		upload.Options{IncludeWarmups: *warmups, DryRun: *dryRun}, log)
	stats, err := uploader.Run(ctx)
	printStats(log, stats)
	if err != nil {
		log.Error("upload failed", "error", err)
		os.Exit(1)
	}
	log.Info("upload complete")
}

func printStats(log *slog.Logger, stats *upload.Stats) {
	if stats == nil {
		return
	}
	log.Info("upload summary",
		"files_total", stats.FilesTotal,
		"files_uploaded", stats.FilesUploaded,
		"files_skipped", stats.FilesSkipped,
		"files_errored", stats.FilesErrored,
		"sessions_imported", stats.SessionsImported,
		"sessions_skipped", stats.SessionsSkipped,
		"sets_inserted", stats.SetsInserted,
	)
}

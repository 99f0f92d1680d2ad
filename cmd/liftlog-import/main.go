package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/liftlog/internal/config"
	"github.com/claude/liftlog/internal/ingest"
	"github.com/claude/liftlog/internal/ingest/alpha"
	"github.com/claude/liftlog/internal/storage/backend"
	"github.com/claude/liftlog/internal/tracker"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	csvPath := flag.String("file", "", "path to Alpha Progression CSV export (required)")
	login := flag.String("user", "local", "login of the user to import into")
	warmups := flag.Bool("warmups", false, "import warm-up sets as regular sets")
	dryRun := flag.Bool("dry-run", false, "parse and report counts without writing to the database")
	flag.Parse()

	if *csvPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: liftlog-import -config config.yaml -file export.csv [-user login] [-warmups] [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := cfg.Log.NewLogger(os.Stdout)

	f, err := os.Open(*csvPath)
	if err != nil {
		log.Error("failed to open export", "path", *csvPath, "error", err)
		os.Exit(1)
	}
	defer f.Close()

	// Run migrations
	if err := backend.Migrate(cfg.Database); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	if *dryRun {
		log.Info("DRY RUN mode: no data will be written to the database")
	}

	// Connect database
	ctx := context.Background()
	store, err := backend.Open(ctx, cfg.Database)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	log.Info("database connected")

	svc := tracker.New(store, nil, log, tracker.WithAllocationAttempts(cfg.Tracker.AllocationAttempts))

	userID, err := svc.ResolveUser(ctx, *login, *login)
	if err != nil {
		log.Error("failed to resolve user", "login", *login, "error", err)
		os.Exit(1)
	}

	// Run import
	p := alpha.NewProvider(svc, log)
	res, err := p.Ingest(ctx, f, userID, alpha.Options{IncludeWarmups: *warmups, DryRun: *dryRun})
	if err != nil {
		log.Error("import failed", "error", err)
		printResult(log, res)
		os.Exit(1)
	}

	printResult(log, res)
	log.Info("import complete")
}

func printResult(log *slog.Logger, res *ingest.Result) {
	if res == nil {
		return
	}
	log.Info("import summary",
		"sessions_received", res.SessionsReceived,
		"sessions_imported", res.SessionsImported,
		"sessions_skipped", res.SessionsSkipped,
		"sessions_empty", res.SessionsEmpty,
		"exercises_created", res.ExercisesCreated,
		"sets_received", res.SetsReceived,
		"sets_inserted", res.SetsInserted,
		"sets_skipped", res.SetsSkipped,
	)
}

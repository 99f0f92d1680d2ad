package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Stats tracks upload progress.
type Stats struct {
	FilesTotal    int
	FilesUploaded int
	FilesSkipped  int
	FilesErrored  int

	SessionsImported int
	SessionsSkipped  int
	SetsInserted     int
}

// Options controls an upload run.
type Options struct {
	IncludeWarmups bool
	DryRun         bool
}

// Uploader sends every Alpha Progression export (*.csv) in a directory to
// the LiftLog server, skipping files the server already imported.
type Uploader struct {
	client *Client
	state  *History
	dir    string
	opts   Options
	log    *slog.Logger
	stats  Stats
}

// New creates a new Uploader.
func New(client *Client, state *History, dir string, opts Options, log *slog.Logger) *Uploader {
	return &Uploader{
		client: client,
		state:  state,
		dir:    dir,
		opts:   opts,
		log:    log,
	}
}

// Run uploads exports in file name order. A conflict answer (the user has a
// planned session) stops the run since every later file would fail too.
func (u *Uploader) Run(ctx context.Context) (*Stats, error) {
	entries, err := os.ReadDir(u.dir)
	if err != nil {
		return &u.stats, fmt.Errorf("reading %s: %w", u.dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}
		u.stats.FilesTotal++
		if err := u.uploadFile(ctx, entry.Name()); err != nil {
			var se *StatusError
			if errors.As(err, &se) && se.Status == http.StatusConflict {
				return &u.stats, err
			}
			if ctx.Err() != nil {
				return &u.stats, ctx.Err()
			}
			u.stats.FilesErrored++
			u.log.Error("upload failed", "file", entry.Name(), "error", err)
		}
	}

	return &u.stats, nil
}

func (u *Uploader) uploadFile(ctx context.Context, name string) error {
	data, err := os.ReadFile(filepath.Join(u.dir, name))
	if err != nil {
		return err
	}
	export := Export{Server: u.client.serverURL, File: name, Digest: digest(data)}

	sent, err := u.state.Sent(ctx, export)
	if err != nil {
		return err
	}
	if sent {
		u.stats.FilesSkipped++
		return nil
	}
	if u.opts.DryRun {
		u.log.Info("would upload", "file", name, "bytes", len(data))
		return nil
	}

	res, err := u.client.SendExport(ctx, data, u.opts.IncludeWarmups)
	if err != nil {
		return err
	}
	if err := u.state.Record(ctx, export); err != nil {
		return err
	}

	u.stats.FilesUploaded++
	u.stats.SessionsImported += res.SessionsImported
	u.stats.SessionsSkipped += res.SessionsSkipped
	u.stats.SetsInserted += res.SetsInserted
	u.log.Info("uploaded", "file", name, "sessions", res.SessionsImported, "sets", res.SetsInserted)
	return nil
}

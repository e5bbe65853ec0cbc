package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bedecarroll/tx/internal/config"
	"github.com/bedecarroll/tx/internal/indexer"
	"github.com/bedecarroll/tx/internal/store"
	"github.com/bedecarroll/tx/internal/txerr"
)

// App is the shared runtime every subcommand's Run method receives: loaded
// config, an open store connection, and a logger. One App is built per
// process invocation (spec.md §5: "reads config, opens the store ... runs
// the indexer synchronously, then dispatches").
type App struct {
	Config *config.Config
	Store  *store.Store
	Logger *slog.Logger

	dataDir string
}

func newApp(cli *CLI) (*App, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var err error
	configDir := cli.ConfigDir
	if configDir == "" {
		configDir, err = config.ConfigDir()
		if err != nil {
			return nil, txerr.New(txerr.KindConfiguration, "app.bootstrap: resolve config dir", "", err)
		}
	}
	cfg, warnings, err := config.Load(configDir)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		logger.Warn("config warning", "source", w.Source, "message", w.Message)
	}

	dataDir := cli.DataDir
	if dataDir == "" {
		dataDir, err = config.DataDir()
		if err != nil {
			return nil, txerr.New(txerr.KindConfiguration, "app.bootstrap: resolve data dir", "", err)
		}
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, txerr.New(txerr.KindIO, "app.bootstrap: mkdir data dir", dataDir, err)
	}

	st, err := store.Open(filepath.Join(dataDir, "tx.sqlite3"), logger)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Store: st, Logger: logger, dataDir: dataDir}

	if os.Getenv("TX_SKIP_INDEX") == "" {
		if err := app.reindex(); err != nil {
			logger.Warn("indexing failed, continuing with existing data", "error", err)
		}
	}

	return app, nil
}

// sessionRoots collects every configured provider's session roots as
// indexer.Root entries, for both the startup reindex pass and `doctor
// --watch`'s filesystem watch set.
func (a *App) sessionRoots() []indexer.Root {
	var roots []indexer.Root
	for name, provider := range a.Config.Providers {
		for _, root := range config.SessionRoots(name, provider) {
			roots = append(roots, indexer.Root{Provider: name, Path: root})
		}
	}
	return roots
}

// reindex runs one indexer pass over every configured provider's session
// roots (spec.md §4.C).
func (a *App) reindex() error {
	roots := a.sessionRoots()
	if len(roots) == 0 {
		return nil
	}

	report, err := indexer.Run(a.Store, roots, a.Logger)
	if err != nil {
		return err
	}
	a.Logger.Info("indexed session roots",
		"scanned", report.Scanned, "updated", report.Updated,
		"skipped", report.Skipped, "removed", report.Removed, "errors", len(report.Errors))
	for _, fe := range report.Errors {
		a.Logger.Warn("indexer file error", "path", fe.Path, "error", fe.Err)
	}
	return nil
}

func (a *App) Close() error {
	return a.Store.Close()
}

// dbPath returns the on-disk path of the store's sqlite database file.
func (a *App) dbPath() string {
	return filepath.Join(a.dataDir, "tx.sqlite3")
}

// resetDatabase closes the current store, deletes its database file (and
// any WAL/SHM siblings), and reopens a fresh one in its place (spec.md §6
// `db reset --yes`).
func (a *App) resetDatabase() error {
	if err := a.Store.Close(); err != nil {
		return txerr.New(txerr.KindStore, "app.reset_database: close", a.dbPath(), err)
	}

	path := a.dbPath()
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(path + suffix); err != nil && !os.IsNotExist(err) {
			return txerr.New(txerr.KindIO, "app.reset_database: remove", path+suffix, err)
		}
	}

	st, err := store.Open(path, a.Logger)
	if err != nil {
		return err
	}
	a.Store = st
	return nil
}

package main

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bedecarroll/tx/internal/config"
)

// DoctorCmd implements `doctor [--watch]` (spec.md §6): checks the local
// environment the same way the peakyragnar-subluminal doctor subcommand
// checks its ledger db and sqlite3 binary, adapted to tx's providers/session
// roots/RAG credentials. `--watch` keeps the process alive, re-running the
// indexer and the checks whenever a session root changes on disk, mirroring
// the teacher's fsnotify-based binary watcher.
type DoctorCmd struct {
	Watch bool `help:"Re-run checks whenever a provider's session root changes, until interrupted."`
}

const doctorWatchDebounce = 500 * time.Millisecond

func (c *DoctorCmd) Run(app *App) error {
	ok := runDoctorChecks(app)
	if !c.Watch {
		if ok {
			fmt.Println("doctor: ok")
			return nil
		}
		fmt.Println("doctor: issues found")
		return fmt.Errorf("doctor: issues found")
	}

	return watchDoctorChecks(app)
}

func runDoctorChecks(app *App) bool {
	ok := true

	if info, err := os.Stat(app.dbPath()); err != nil {
		fmt.Printf("database: %s (%v)\n", app.dbPath(), err)
		ok = false
	} else if info.IsDir() {
		fmt.Printf("database: %s (is a directory)\n", app.dbPath())
		ok = false
	} else {
		fmt.Printf("database: %s\n", app.dbPath())
	}

	for name, provider := range app.Config.Providers {
		if path, err := exec.LookPath(provider.Bin); err != nil {
			fmt.Printf("provider %s: binary %q not found on PATH\n", name, provider.Bin)
			ok = false
		} else {
			fmt.Printf("provider %s: %s\n", name, path)
		}

		roots := config.SessionRoots(name, provider)
		if len(roots) == 0 {
			fmt.Printf("provider %s: no session roots configured or inferred\n", name)
			continue
		}
		for _, root := range roots {
			if _, err := os.Stat(root); err != nil {
				fmt.Printf("provider %s: session root %s (%v)\n", name, root, err)
				continue
			}
			fmt.Printf("provider %s: session root %s\n", name, root)
		}
	}

	if app.Config.RAG.APIKeyEnv != "" {
		if os.Getenv(app.Config.RAG.APIKeyEnv) == "" {
			fmt.Printf("rag: environment variable %s not set\n", app.Config.RAG.APIKeyEnv)
		} else {
			fmt.Printf("rag: %s is set\n", app.Config.RAG.APIKeyEnv)
		}
	}

	return ok
}

// watchDoctorChecks watches every configured provider's session root
// directory and re-runs the indexer plus the checks above on change,
// debounced, until the process receives an interrupt.
func watchDoctorChecks(app *App) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("doctor --watch: create watcher: %w", err)
	}
	defer watcher.Close()

	watched := 0
	for _, root := range app.sessionRoots() {
		if info, err := os.Stat(root.Path); err == nil && info.IsDir() {
			if err := watcher.Add(root.Path); err == nil {
				watched++
			}
		}
	}
	if watched == 0 {
		fmt.Println("doctor --watch: no existing session root directories to watch")
		return nil
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	var debounce *time.Timer
	changed := make(chan struct{}, 1)

	for {
		select {
		case <-interrupt:
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) {
				continue
			}
			if debounce == nil {
				debounce = time.AfterFunc(doctorWatchDebounce, func() { changed <- struct{}{} })
			} else {
				debounce.Reset(doctorWatchDebounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			app.Logger.Warn("doctor --watch: watcher error", "error", err)

		case <-changed:
			if err := app.reindex(); err != nil {
				app.Logger.Warn("doctor --watch: reindex failed", "error", err)
			}
			fmt.Println("--- session roots changed, re-checking ---")
			runDoctorChecks(app)
		}
	}
}

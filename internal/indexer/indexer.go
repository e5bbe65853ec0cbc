package indexer

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/bedecarroll/tx/internal/session"
	"github.com/bedecarroll/tx/internal/store"
)

// Run walks every root, ingesting changed *.jsonl files into st and removing
// rows whose backing file disappeared since the last run (spec.md §4.C).
func Run(st *store.Store, roots []Root, logger *slog.Logger) (Report, error) {
	if logger == nil {
		logger = slog.Default()
	}

	byProvider := map[string][]Root{}
	for _, r := range roots {
		byProvider[r.Provider] = append(byProvider[r.Provider], r)
	}

	var total Report
	for provider, provRoots := range byProvider {
		rep, err := runProvider(st, provider, provRoots, logger)
		if err != nil {
			return total, err
		}
		total.merge(rep)
	}
	return total, nil
}

func runProvider(st *store.Store, provider string, roots []Root, logger *slog.Logger) (Report, error) {
	var rep Report
	seen := map[string]struct{}{}

	for _, root := range roots {
		info, err := fsStat(root.Path)
		if err != nil {
			logger.Warn("session root missing, skipping", "provider", provider, "path", root.Path, "error", err)
			continue
		}

		if !info.IsDir() {
			if strings.EqualFold(filepath.Ext(root.Path), ".jsonl") {
				processFile(st, provider, filepath.Dir(root.Path), root.Path, &rep, seen, logger)
			}
			continue
		}

		walkErr := filepath.WalkDir(root.Path, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				logger.Warn("walk error, skipping entry", "path", path, "error", err)
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if !strings.EqualFold(filepath.Ext(path), ".jsonl") {
				return nil
			}
			processFile(st, provider, root.Path, path, &rep, seen, logger)
			return nil
		})
		if walkErr != nil {
			logger.Warn("session root walk failed", "provider", provider, "path", root.Path, "error", walkErr)
		}
	}

	if err := reconcileRemoved(st, provider, seen, &rep); err != nil {
		return rep, err
	}

	return rep, nil
}

func processFile(st *store.Store, provider, root, path string, rep *Report, seen map[string]struct{}, logger *slog.Logger) {
	rep.Scanned++

	canonical, err := filepath.EvalSymlinks(path)
	if err != nil {
		canonical = path
	}
	canonical, err = filepath.Abs(canonical)
	if err != nil {
		canonical = path
	}

	info, err := fsStat(canonical)
	if err != nil {
		rep.Errors = append(rep.Errors, FileError{Path: path, Err: err})
		return
	}

	id := session.Identity(provider, root, canonical)

	existing, err := st.ExistingByPath(canonical)
	if err != nil {
		rep.Errors = append(rep.Errors, FileError{Path: path, Err: err})
		return
	}
	if existing != nil {
		seen[existing.ID] = struct{}{}
		if existing.Size == info.Size() && existing.MTime.Equal(info.ModTime().Truncate(modTimeResolution)) {
			rep.Skipped++
			return
		}
	}

	ing, uuid, err := buildIngest(canonical)
	if err != nil {
		rep.Errors = append(rep.Errors, FileError{Path: path, Err: err})
		return
	}

	ing.Session.ID = id
	ing.Session.Provider = provider
	ing.Session.Path = canonical
	ing.Session.Size = info.Size()
	ing.Session.MTime = info.ModTime().Truncate(modTimeResolution)
	if uuid == "" {
		uuid = session.UUIDFromFilename(strings.TrimSuffix(filepath.Base(canonical), filepath.Ext(canonical)))
	}
	if uuid == "" {
		uuid = session.DeterministicUUID(id)
	}
	ing.Session.UUID = uuid
	if existing != nil {
		ing.Session.CreatedAt = existing.CreatedAt
	} else {
		ing.Session.CreatedAt = ing.Session.StartedAt
	}

	if err := st.UpsertSession(ing); err != nil {
		rep.Errors = append(rep.Errors, FileError{Path: path, Err: err})
		return
	}

	seen[id] = struct{}{}
	rep.Updated++
}

func reconcileRemoved(st *store.Store, provider string, seen map[string]struct{}, rep *Report) error {
	stored, err := st.ListSessions(provider, false, 0, 0)
	if err != nil {
		return err
	}
	for _, s := range stored {
		if _, ok := seen[s.ID]; ok {
			continue
		}
		if _, statErr := fsStat(s.Path); statErr == nil {
			continue
		}
		if err := st.DeleteSession(s.ID); err != nil {
			return err
		}
		rep.Removed++
	}
	return nil
}

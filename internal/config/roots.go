package config

import (
	"os"
	"path/filepath"
)

// SessionRoots resolves the directories the indexer should walk for a given
// provider: the configured SessionRoots override when present, else a
// provider-specific inference (spec.md §6 "CODEX_HOME" honored env var;
// _examples/original_source/src/config/model.rs's resolve_codex_session_roots
// is the model for the codex case).
func SessionRoots(providerName string, provider Provider) []string {
	if len(provider.SessionRoots) > 0 {
		return provider.SessionRoots
	}

	switch providerName {
	case "codex":
		return inferCodexSessionRoots()
	default:
		return nil
	}
}

func inferCodexSessionRoots() []string {
	var homes []string
	if raw := os.Getenv("CODEX_HOME"); raw != "" {
		homes = appendUnique(homes, raw)
	}
	if home, err := os.UserHomeDir(); err == nil {
		homes = appendUnique(homes, filepath.Join(home, ".codex"))
	}

	var roots []string
	for _, home := range homes {
		roots = appendUnique(roots, filepath.Join(home, "session"))
		roots = appendUnique(roots, filepath.Join(home, "sessions"))
	}
	return roots
}

func appendUnique(list []string, candidate string) []string {
	for _, existing := range list {
		if existing == candidate {
			return list
		}
	}
	return append(list, candidate)
}

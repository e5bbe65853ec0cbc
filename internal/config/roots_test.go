package config

import (
	"path/filepath"
	"testing"
)

func TestSessionRootsExplicitOverrideWins(t *testing.T) {
	roots := SessionRoots("codex", Provider{SessionRoots: []string{"/custom/a", "/custom/b"}})
	if len(roots) != 2 || roots[0] != "/custom/a" {
		t.Fatalf("SessionRoots() = %#v", roots)
	}
}

func TestSessionRootsInfersCodexFromEnv(t *testing.T) {
	t.Setenv("CODEX_HOME", "/tmp/codex-home")
	roots := SessionRoots("codex", Provider{})
	want := []string{
		filepath.Join("/tmp/codex-home", "session"),
		filepath.Join("/tmp/codex-home", "sessions"),
	}
	if len(roots) < 2 || roots[0] != want[0] || roots[1] != want[1] {
		t.Fatalf("SessionRoots() = %#v, want to start with %#v", roots, want)
	}
}

func TestSessionRootsUnknownProviderInfersNothing(t *testing.T) {
	roots := SessionRoots("some-other-cli", Provider{})
	if roots != nil {
		t.Fatalf("SessionRoots() = %#v, want nil", roots)
	}
}

package assembler

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFakeHelper(t *testing.T, script string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "pa")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("write fake helper: %v", err)
	}
	return path
}

func TestRefreshReturnsReadyAndCachesResult(t *testing.T) {
	helper := writeFakeHelper(t, `
if [ "$1" = "list" ]; then
  echo '[{"name":"writer","description":"writes things","tags":["prose"]},{"name":"reviewer","summary":"reviews things"}]'
fi
`)
	a := New("tx", WithHelper(helper), WithCacheTTL(time.Minute))

	first := a.Refresh(false)
	if first.Kind != StatusReady {
		t.Fatalf("Kind = %v, want StatusReady (message=%q)", first.Kind, first.Message)
	}
	if first.Cached {
		t.Fatalf("first refresh should not be cached")
	}
	if len(first.Profiles) != 2 {
		t.Fatalf("Profiles = %#v, want 2 entries", first.Profiles)
	}
	if first.Profiles[0].Key != "tx/writer" {
		t.Fatalf("Key = %q, want tx/writer", first.Profiles[0].Key)
	}
	if first.Profiles[0].Description != "writes things" {
		t.Fatalf("Description = %q", first.Profiles[0].Description)
	}
	if first.Profiles[1].Description != "reviews things" {
		t.Fatalf("Description fallback to summary = %q", first.Profiles[1].Description)
	}

	second := a.Refresh(false)
	if !second.Cached {
		t.Fatalf("second refresh within TTL should be cached")
	}
}

func TestRefreshForceBypassesCache(t *testing.T) {
	helper := writeFakeHelper(t, `echo '[{"name":"writer"}]'`)
	a := New("tx", WithHelper(helper), WithCacheTTL(time.Minute))

	a.Refresh(false)
	forced := a.Refresh(true)
	if forced.Cached {
		t.Fatalf("forced refresh should not report cached")
	}
}

func TestRefreshUnavailableOnHelperFailure(t *testing.T) {
	helper := writeFakeHelper(t, `echo "boom" >&2; exit 1`)
	a := New("tx", WithHelper(helper))

	status := a.Refresh(false)
	if status.Kind != StatusUnavailable {
		t.Fatalf("Kind = %v, want StatusUnavailable", status.Kind)
	}
	if status.Message == "" {
		t.Fatalf("expected a non-empty message")
	}
}

func TestRefreshUnavailableOnMalformedJSON(t *testing.T) {
	helper := writeFakeHelper(t, `echo 'not json'`)
	a := New("tx", WithHelper(helper))

	status := a.Refresh(false)
	if status.Kind != StatusUnavailable {
		t.Fatalf("Kind = %v, want StatusUnavailable", status.Kind)
	}
}

func TestShowReturnsContent(t *testing.T) {
	helper := writeFakeHelper(t, `
if [ "$1" = "show" ]; then
  echo '{"profile":{"content":"assembled prompt text"}}'
fi
`)
	a := New("tx", WithHelper(helper))

	result, err := a.Show("writer", []string{"--topic", "onboarding"})
	if err != nil {
		t.Fatalf("Show() error: %v", err)
	}
	if result.Content != "assembled prompt text" {
		t.Fatalf("Content = %q", result.Content)
	}
}

func TestShowFailsOnHelperError(t *testing.T) {
	helper := writeFakeHelper(t, `exit 1`)
	a := New("tx", WithHelper(helper))

	if _, err := a.Show("writer", nil); err == nil {
		t.Fatalf("Show() expected an error")
	}
}

package txerr

import (
	"errors"
	"testing"
)

func TestChainFormatsCauses(t *testing.T) {
	root := New(KindIO, "open session file", "/tmp/a.jsonl", errors.New("permission denied"))
	wrapped := New(KindStore, "upsert_session", "codex/a.jsonl", root)

	got := Chain(wrapped)
	want := "tx: upsert_session: codex/a.jsonl\n    caused by: open session file: /tmp/a.jsonl\n    caused by: permission denied"
	if got != want {
		t.Fatalf("Chain() =\n%s\nwant\n%s", got, want)
	}
}

func TestIsMatchesAnyLinkInChain(t *testing.T) {
	root := New(KindResumeConstraint, "resume", "profile-x", nil)
	wrapped := New(KindConfiguration, "resume", "", root)

	if !Is(wrapped, KindResumeConstraint) {
		t.Fatalf("Is() = false, want true")
	}
	if Is(wrapped, KindEmbedding) {
		t.Fatalf("Is() = true for unrelated kind, want false")
	}
}

func TestExitCode(t *testing.T) {
	if ExitCode(nil) != 0 {
		t.Fatalf("ExitCode(nil) != 0")
	}
	mismatch := New(KindResumeConstraint, "resume", "", nil)
	if ExitCode(mismatch) != 2 {
		t.Fatalf("ExitCode(resume constraint) = %d, want 2", ExitCode(mismatch))
	}
	generic := New(KindIO, "open", "", nil)
	if ExitCode(generic) != 1 {
		t.Fatalf("ExitCode(io) = %d, want 1", ExitCode(generic))
	}
}

package session

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-runewidth"
)

// Identity derives the stable session id from a provider name and the
// session file's path relative to its configured root, normalizing path
// separators to '/' so ids are stable across platforms.
func Identity(provider, root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	return provider + "/" + rel
}

// sessionUUIDNamespace roots the deterministic UUIDs DeterministicUUID mints;
// any fixed namespace works, this one is private to tx.
var sessionUUIDNamespace = uuid.MustParse("a13a0a9e-6b6b-4c0a-9a1a-7a7b9f8a1e3e")

// DeterministicUUID derives a stable version-5 UUID from a session id, for
// sessions whose provider never recorded one and whose filename carries no
// usable suffix either (UUIDFromFilename returned ""). Re-ingesting the same
// file yields the same id and therefore the same uuid, so this never
// conflicts with the incremental upsert's idempotency.
func DeterministicUUID(id string) string {
	return uuid.NewSHA1(sessionUUIDNamespace, []byte(id)).String()
}

// Truncate caps a preview string at maxLen display cells, flattening
// newlines the way a one-line excerpt needs to read. Uses display width
// rather than rune count so CJK and other wide-rune previews don't overflow
// a terminal column budget that a plain rune cap would have allowed through.
func Truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.TrimSpace(s)
	if runewidth.StringWidth(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return runewidth.Truncate(s, maxLen, "")
	}
	return runewidth.Truncate(s, maxLen, "...")
}

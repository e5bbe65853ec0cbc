package session

import "testing"

func TestParseLineEventMsgUserMessage(t *testing.T) {
	line := []byte(`{"timestamp":"2025-11-21T04:13:55Z","type":"event_msg","payload":{"type":"user_message","message":"Hello"}}`)
	msg, instr, ok, err := ParseLine(line)
	if err != nil {
		t.Fatalf("ParseLine error: %v", err)
	}
	if instr != "" {
		t.Fatalf("expected no instruction block, got %q", instr)
	}
	if !ok {
		t.Fatalf("ParseLine() ok = false, want true")
	}
	if msg.Role != "user" || msg.Content != "Hello" || msg.Source != "event_msg" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestParseLineResponseItemMessage(t *testing.T) {
	line := []byte(`{"timestamp":"2025-11-21T04:13:55Z","type":"response_item","payload":{"type":"message","role":"user","content":[{"type":"text","text":"Hello"}]}}`)
	msg, _, ok, err := ParseLine(line)
	if err != nil {
		t.Fatalf("ParseLine error: %v", err)
	}
	if !ok {
		t.Fatalf("ParseLine() ok = false, want true")
	}
	if msg.Role != "user" || msg.Content != "Hello" || msg.Source != "response_item" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestParseLineBareRoleText(t *testing.T) {
	line := []byte(`{"timestamp":"2025-11-21T04:13:55Z","role":"assistant","text":"Sure thing"}`)
	msg, _, ok, err := ParseLine(line)
	if err != nil {
		t.Fatalf("ParseLine error: %v", err)
	}
	if !ok || msg.Role != "assistant" || msg.Content != "Sure thing" {
		t.Fatalf("unexpected message: %+v, ok=%v", msg, ok)
	}
}

func TestParseLineInstructionBlock(t *testing.T) {
	line := []byte(`{"timestamp":"2025-11-21T04:13:55Z","role":"system","text":"<user_instructions>Be concise</user_instructions>"}`)
	_, instr, ok, err := ParseLine(line)
	if err != nil {
		t.Fatalf("ParseLine error: %v", err)
	}
	if !ok {
		t.Fatalf("ParseLine() ok = false, want true for instruction block")
	}
	if instr == "" {
		t.Fatalf("expected instruction block text, got empty")
	}
}

func TestParseLineInvalidJSON(t *testing.T) {
	_, _, _, err := ParseLine([]byte(`not json`))
	if err == nil {
		t.Fatalf("expected error for invalid JSON")
	}
}

func TestParseLineNoExtractableText(t *testing.T) {
	line := []byte(`{"timestamp":"2025-11-21T04:13:55Z","type":"turn_context","payload":{"model":"gpt"}}`)
	_, _, ok, err := ParseLine(line)
	if err != nil {
		t.Fatalf("ParseLine error: %v", err)
	}
	if ok {
		t.Fatalf("expected ok=false for non-message record")
	}
}

func TestUUIDFromFilenameQuirk(t *testing.T) {
	if got := UUIDFromFilename("rollout-log"); got != "log" {
		t.Fatalf("UUIDFromFilename(rollout-log) = %q, want %q", got, "log")
	}
	if got := UUIDFromFilename("rollout-2025-11-20T04-13-55-abcdef12"); got != "abcdef12" {
		t.Fatalf("UUIDFromFilename() = %q, want %q", got, "abcdef12")
	}
}

func TestIdentityNormalizesSeparators(t *testing.T) {
	id := Identity("codex", "/home/user/.codex/sessions", "/home/user/.codex/sessions/2025/11/20/rollout-1.jsonl")
	want := "codex/2025/11/20/rollout-1.jsonl"
	if id != want {
		t.Fatalf("Identity() = %q, want %q", id, want)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello\nworld", 20); got != "hello world" {
		t.Fatalf("Truncate() = %q", got)
	}
	long := "this is a very long first prompt that definitely exceeds the cap"
	got := Truncate(long, 10)
	if len([]rune(got)) != 10 {
		t.Fatalf("Truncate() len = %d, want 10", len([]rune(got)))
	}
}

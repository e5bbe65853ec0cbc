package indexer

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bedecarroll/tx/internal/session"
	"github.com/bedecarroll/tx/internal/store"
	"github.com/bedecarroll/tx/internal/txerr"
)

const firstPromptMaxLen = 240

const (
	placeholderNoTranscript     = "Session created (no transcript yet)"
	placeholderInstructionsOnly = "Session bootstrapped (instructions only)"
)

// dedupKey is the (role, content, timestamp) identity used to fold repeated
// emissions of the same turn across event shapes (spec.md §4.C step 3).
type dedupKey struct {
	role      string
	content   string
	timestamp int64
}

// buildIngest streams path line-by-line and produces the store.Ingest and
// uuid/first_prompt/actionable bookkeeping spec.md §4.C step 3 describes.
// Invalid JSON lines are skipped, not fatal.
func buildIngest(path string) (store.Ingest, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return store.Ingest{}, "", err
	}
	defer f.Close()

	var (
		messages            []store.Message
		index               = map[dedupKey]int{}
		firstUserText       string
		fallbackPreview     string
		instructionsPreview string
		sawInstructionBlock bool
		sawAnyRecord        bool
		uuid                string
	)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		var raw session.RawRecord
		if err := json.Unmarshal(line, &raw); err != nil {
			continue
		}
		sawAnyRecord = true

		if uuid == "" {
			uuid = session.ExtractUUID(raw)
		}

		if instructionsPreview == "" {
			if instr := payloadInstructions(raw.Payload); instr != "" {
				if summary, ok := summarizeInstructions(instr); ok {
					instructionsPreview = summary
				}
			}
		}

		msg, instruction, ok, perr := session.ParseLine(line)
		if perr != nil || !ok {
			continue
		}

		rawText := msg.Content
		if instruction != "" {
			rawText = instruction
			sawInstructionBlock = true
		}

		if fallbackPreview == "" {
			if firstLine, found := firstContentLine(rawText); found {
				if summary, sok := summarizeInstructions(firstLine); sok {
					fallbackPreview = summary
				} else {
					fallbackPreview = firstLine
				}
			}
		}

		if instruction != "" {
			continue
		}

		if firstUserText == "" && msg.Role == "user" {
			firstUserText = msg.Content
		}

		key := dedupKey{role: msg.Role, content: msg.Content, timestamp: msg.Timestamp.Unix()}
		if i, exists := index[key]; exists {
			if messages[i].Source == "event_msg" && msg.Source == "response_item" {
				messages[i].Source = msg.Source
			}
			continue
		}

		idx := len(messages)
		index[key] = idx
		messages = append(messages, store.Message{
			Index:     idx,
			Role:      msg.Role,
			Content:   msg.Content,
			Source:    msg.Source,
			Timestamp: msg.Timestamp,
			IsFirst:   len(messages) == 0,
		})
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return store.Ingest{}, "", err
	}

	if len(messages) == 0 {
		preview, err := emptyTranscriptPreview(fallbackPreview, instructionsPreview, sawInstructionBlock, sawAnyRecord)
		if err != nil {
			return store.Ingest{}, "", txerr.New(txerr.KindParse, "indexer.build_ingest: empty_transcript", path, err)
		}
		messages = append(messages, store.Message{
			Index:   0,
			Role:    "system",
			Content: preview,
			IsFirst: true,
		})
	}

	if firstUserText == "" {
		firstUserText = messages[0].Content
	}
	firstPrompt := session.Truncate(firstUserText, firstPromptMaxLen)

	actionable := false
	for _, m := range messages {
		if m.Role == "user" {
			actionable = true
			break
		}
	}

	ing := store.Ingest{
		Messages:     messages,
		ReplaceUsage: false,
	}
	ing.Session.FirstPrompt = firstPrompt
	ing.Session.Actionable = actionable
	ing.Session.LastActive = latestTimestamp(messages)
	ing.Session.StartedAt = earliestTimestamp(messages)

	return ing, uuid, nil
}

// emptyTranscriptPreview computes the single synthesized system message's
// body when no ordinary message survived extraction: the fallback preview,
// else the summarized instructions payload, else a fixed placeholder if an
// instruction block was seen, else a fixed placeholder if any record at all
// was seen. A file that yielded literally nothing is an ingest error.
func emptyTranscriptPreview(fallbackPreview, instructionsPreview string, sawInstructionBlock, sawAnyRecord bool) (string, error) {
	preview := fallbackPreview
	if preview == "" {
		preview = instructionsPreview
	}
	if preview == "" && sawInstructionBlock {
		preview = placeholderInstructionsOnly
	}
	if preview == "" && sawAnyRecord {
		preview = placeholderNoTranscript
	}
	if preview == "" {
		return "", fmt.Errorf("no messages discovered in session")
	}
	return session.Truncate(preview, firstPromptMaxLen), nil
}

// payloadInstructions reads payload.instructions, the system-prompt field
// providers emit alongside (not inside) the <user_instructions> text block.
func payloadInstructions(payload json.RawMessage) string {
	if len(payload) == 0 {
		return ""
	}
	var container struct {
		Instructions string `json:"instructions"`
	}
	if err := json.Unmarshal(payload, &container); err != nil {
		return ""
	}
	return container.Instructions
}

// summarizeInstructions reduces an instructions blob to one display line:
// the first non-blank, non-tag line, with a leading markdown heading marker
// stripped. Returns ok=false if nothing usable was found.
func summarizeInstructions(raw string) (string, bool) {
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "<") {
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			summary := strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
			if summary != "" {
				return summary, true
			}
			continue
		}
		return trimmed, true
	}
	return "", false
}

// firstContentLine returns the first non-blank line of raw that doesn't open
// with '<' (a tag), mirroring the fallback-preview scan applied to every
// message's content, instruction blocks included.
func firstContentLine(raw string) (string, bool) {
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "<") {
			continue
		}
		return trimmed, true
	}
	return "", false
}

func latestTimestamp(messages []store.Message) time.Time {
	var latest time.Time
	for _, m := range messages {
		if m.Timestamp.After(latest) {
			latest = m.Timestamp
		}
	}
	return latest
}

func earliestTimestamp(messages []store.Message) time.Time {
	var earliest time.Time
	for _, m := range messages {
		if m.Timestamp.IsZero() {
			continue
		}
		if earliest.IsZero() || m.Timestamp.Before(earliest) {
			earliest = m.Timestamp
		}
	}
	return earliest
}

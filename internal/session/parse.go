package session

import (
	"encoding/json"
	"strings"
	"time"
)

// ParseLine interprets one JSONL line per the extraction rules: event_msg
// user_message payloads, response_item/message containers, and bare
// role+text records. It returns ok=false for lines that parse as JSON but
// carry nothing extractable (not an error: the indexer simply moves on).
func ParseLine(line []byte) (msg Message, instruction string, ok bool, err error) {
	var record RawRecord
	if err = json.Unmarshal(line, &record); err != nil {
		return Message{}, "", false, err
	}

	ts := parseTimestamp(record.Timestamp)

	role, text, source := extractFromRecord(record)
	role = strings.ToLower(strings.TrimSpace(role))
	text = strings.TrimSpace(text)
	if role == "" || text == "" {
		return Message{}, "", false, nil
	}

	if blockTag(text) {
		return Message{}, text, true, nil
	}

	return Message{
		Role:      role,
		Content:   text,
		Source:    source,
		Timestamp: ts,
	}, "", true, nil
}

// extractFromRecord applies the three extraction rules in spec order: event_msg
// user_message, response_item/message containers, then a bare role+text
// record.
func extractFromRecord(record RawRecord) (role, text, source string) {
	switch record.Type {
	case "event_msg":
		var payload struct {
			Type string `json:"type"`
		}
		_ = json.Unmarshal(record.Payload, &payload)
		if payload.Type == "user_message" {
			return "user", extractMessageText(record.Payload), "event_msg"
		}

	case "response_item", "message":
		container := record.Payload
		if len(container) == 0 {
			container = rawSelf(record)
		}
		var base struct {
			Role string `json:"role"`
		}
		_ = json.Unmarshal(container, &base)
		if base.Role != "" {
			if text := extractMessageText(container); text != "" {
				return base.Role, text, record.Type
			}
		}
	}

	// Bare role+text record, regardless of outer type.
	if record.Role != "" {
		if text := extractMessageText(rawSelf(record)); text != "" {
			return record.Role, text, record.Type
		}
	}

	return "", "", ""
}

// rawSelf re-marshals the record's own top-level fields so extractMessageText
// can run against the record itself (the "record itself" fallback in the
// spec: content/message/text live at the top level, not under payload).
func rawSelf(record RawRecord) json.RawMessage {
	self := struct {
		Content json.RawMessage `json:"content"`
		Message json.RawMessage `json:"message"`
		Text    string          `json:"text"`
	}{
		Content: record.Content,
		Message: record.Message,
		Text:    record.Text,
	}
	b, _ := json.Marshal(self)
	return b
}

// extractMessageText walks a container's content/message/text fields in
// order: content[*].text, content[*].message, recursively content, message,
// text.
func extractMessageText(payload json.RawMessage) string {
	if len(payload) == 0 {
		return ""
	}
	var container struct {
		Content json.RawMessage `json:"content"`
		Message json.RawMessage `json:"message"`
		Text    string          `json:"text"`
	}
	if err := json.Unmarshal(payload, &container); err != nil {
		return ""
	}
	if txt := extractFromContent(container.Content); txt != "" {
		return txt
	}
	if txt := stringOrRaw(container.Message); txt != "" {
		return txt
	}
	return strings.TrimSpace(container.Text)
}

// extractFromContent handles the payload.content field, which may be a plain
// string, an array of {text|message|content} blocks, or a nested container.
func extractFromContent(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var blocks []json.RawMessage
	if err := json.Unmarshal(raw, &blocks); err == nil {
		var parts []string
		for _, b := range blocks {
			var block struct {
				Text    string          `json:"text"`
				Message json.RawMessage `json:"message"`
				Content json.RawMessage `json:"content"`
			}
			if err := json.Unmarshal(b, &block); err != nil {
				continue
			}
			switch {
			case strings.TrimSpace(block.Text) != "":
				parts = append(parts, block.Text)
			case stringOrRaw(block.Message) != "":
				parts = append(parts, stringOrRaw(block.Message))
			case extractFromContent(block.Content) != "":
				parts = append(parts, extractFromContent(block.Content))
			}
		}
		return strings.Join(parts, "\n")
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	// Nested container: recurse using the same content/message/text rules.
	return extractMessageText(raw)
}

func stringOrRaw(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return ""
}

func blockTag(text string) bool {
	return strings.HasPrefix(text, tagUserInstructionsOpen) ||
		strings.HasPrefix(text, tagUserInstructionsClose) ||
		strings.HasPrefix(text, tagEnvironmentContext)
}

func parseTimestamp(raw json.RawMessage) time.Time {
	if len(raw) == 0 {
		return time.Time{}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}

// ExtractUUID finds a session uuid by checking, in order: payload.id,
// payload.session_id, session.id, top-level id.
func ExtractUUID(record RawRecord) string {
	var payload struct {
		ID        string `json:"id"`
		SessionID string `json:"session_id"`
	}
	if len(record.Payload) > 0 {
		_ = json.Unmarshal(record.Payload, &payload)
		if payload.ID != "" {
			return payload.ID
		}
		if payload.SessionID != "" {
			return payload.SessionID
		}
	}
	if len(record.Session) > 0 {
		var sess struct {
			ID string `json:"id"`
		}
		_ = json.Unmarshal(record.Session, &sess)
		if sess.ID != "" {
			return sess.ID
		}
	}
	return record.ID
}

// UUIDFromFilename applies the rollout-filename quirk documented in
// spec.md §9 Open Questions: the uuid is whatever follows the last '-' in
// the stem, which is deliberately ambiguous for names like "rollout-log"
// (yields "log"). Preserved for session-id backward compatibility.
func UUIDFromFilename(stem string) string {
	idx := strings.LastIndex(stem, "-")
	if idx < 0 || idx == len(stem)-1 {
		return ""
	}
	return stem[idx+1:]
}

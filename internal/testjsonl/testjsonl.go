// Package testjsonl provides shared JSONL fixture builders for
// rollout session data. Used by the normalize, repair, and catalog
// test packages and by the testfixture command.
package testjsonl

import (
	"encoding/json"
	"strings"
)

// MetaLineJSON returns a bare session-meta record as a JSON string:
// identifying fields nested under meta, optional top-level timestamp.
func MetaLineJSON(id, cwd string, timestamp ...string) string {
	m := map[string]any{
		"meta": map[string]any{
			"id":  id,
			"cwd": cwd,
		},
	}
	if len(timestamp) > 0 {
		m["timestamp"] = timestamp[0]
	}
	return mustMarshal(m)
}

// SessionMetaJSON returns an enveloped session_meta record as a JSON
// string.
func SessionMetaJSON(timestamp, id, cwd string) string {
	m := map[string]any{
		"timestamp": timestamp,
		"type":      "session_meta",
		"payload": map[string]any{
			"meta": map[string]any{
				"id":  id,
				"cwd": cwd,
			},
		},
	}
	return mustMarshal(m)
}

// TurnContextJSON returns a turn_context record as a JSON string.
func TurnContextJSON(timestamp, cwd string) string {
	m := map[string]any{
		"timestamp": timestamp,
		"type":      "turn_context",
		"payload": map[string]any{
			"cwd": cwd,
		},
	}
	return mustMarshal(m)
}

// ResponseItemJSON returns a response_item record as a JSON string.
// Response items never declare a working directory.
func ResponseItemJSON(timestamp, role, text string) string {
	contentType := "output_text"
	if role == "user" {
		contentType = "input_text"
	}
	m := map[string]any{
		"timestamp": timestamp,
		"type":      "response_item",
		"payload": map[string]any{
			"role": role,
			"content": []map[string]string{
				{
					"type": contentType,
					"text": text,
				},
			},
		},
	}
	return mustMarshal(m)
}

// CompactedJSON returns a compacted-history record as a JSON string.
func CompactedJSON(timestamp, message string) string {
	m := map[string]any{
		"timestamp": timestamp,
		"type":      "compacted",
		"payload": map[string]any{
			"message": message,
		},
	}
	return mustMarshal(m)
}

// JoinJSONL joins JSON lines with newlines and appends a
// trailing newline.
func JoinJSONL(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

// SessionBuilder constructs JSONL session content using a
// fluent API.
type SessionBuilder struct {
	lines []string
}

// NewSessionBuilder returns a new empty SessionBuilder.
func NewSessionBuilder() *SessionBuilder {
	return &SessionBuilder{}
}

// AddMetaLine appends a bare session-meta line.
func (b *SessionBuilder) AddMetaLine(
	id, cwd string, timestamp ...string,
) *SessionBuilder {
	b.lines = append(b.lines, MetaLineJSON(id, cwd, timestamp...))
	return b
}

// AddSessionMeta appends an enveloped session_meta line.
func (b *SessionBuilder) AddSessionMeta(
	timestamp, id, cwd string,
) *SessionBuilder {
	b.lines = append(b.lines, SessionMetaJSON(timestamp, id, cwd))
	return b
}

// AddTurnContext appends a turn_context line.
func (b *SessionBuilder) AddTurnContext(
	timestamp, cwd string,
) *SessionBuilder {
	b.lines = append(b.lines, TurnContextJSON(timestamp, cwd))
	return b
}

// AddMessage appends a response_item line.
func (b *SessionBuilder) AddMessage(
	timestamp, role, text string,
) *SessionBuilder {
	b.lines = append(b.lines, ResponseItemJSON(timestamp, role, text))
	return b
}

// AddCompacted appends a compacted-history line.
func (b *SessionBuilder) AddCompacted(
	timestamp, message string,
) *SessionBuilder {
	b.lines = append(b.lines, CompactedJSON(timestamp, message))
	return b
}

// AddRaw appends an arbitrary raw line.
func (b *SessionBuilder) AddRaw(line string) *SessionBuilder {
	b.lines = append(b.lines, line)
	return b
}

// String returns the JSONL content with a trailing newline.
func (b *SessionBuilder) String() string {
	return strings.Join(b.lines, "\n") + "\n"
}

// StringNoTrailingNewline returns the JSONL content without a
// trailing newline.
func (b *SessionBuilder) StringNoTrailingNewline() string {
	return strings.Join(b.lines, "\n")
}

func mustMarshal(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}

package rollout

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// uuidRe matches a standard UUID (8-4-4-4-12 hex) at the end of a
// rollout filename stem.
var uuidRe = regexp.MustCompile(
	`^rollout-.*-([0-9a-fA-F]{8}-[0-9a-fA-F]{4}-` +
		`[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12})$`,
)

// timestampRe matches the fixed-width timestamp a recorder filename
// carries: rollout-YYYY-MM-DDTHH-MM-SS-<id>.jsonl.
var timestampRe = regexp.MustCompile(
	`^rollout-(\d{4}-\d{2}-\d{2}T\d{2}-\d{2}-\d{2})-.+$`,
)

// FilenameTimestampLayout formats times for rollout filenames.
// Colons are not filename-safe on Windows.
const FilenameTimestampLayout = "2006-01-02T15-04-05"

// Filename builds a rollout filename from a timestamp segment and a
// conversation id.
func Filename(ts, id string) string {
	return fmt.Sprintf("rollout-%s-%s.jsonl", ts, id)
}

// TimestampSegment extracts the timestamp portion of a rollout
// filename, or "" when the name does not follow the
// rollout-<timestamp>-<id>.jsonl pattern.
func TimestampSegment(name string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	m := timestampRe.FindStringSubmatch(stem)
	if m == nil {
		return ""
	}
	return m[1]
}

// SessionIDFromFilename recovers the conversation id embedded in a
// rollout filename, or "" when none is present. Collision-renamed
// files carry two ids; the last one wins.
func SessionIDFromFilename(name string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	m := uuidRe.FindStringSubmatch(stem)
	if m == nil {
		return ""
	}
	return m[1]
}

// NewConversationID mints a fresh conversation id.
func NewConversationID() string {
	return uuid.NewString()
}

// IsDigits reports whether s is non-empty and contains only digit
// characters. Date directory names (YYYY/MM/DD) pass this.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

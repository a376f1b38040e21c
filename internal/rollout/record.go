package rollout

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	initialScanBufSize = 64 * 1024        // 64KB
	maxScanTokenSize   = 20 * 1024 * 1024 // 20MB
)

// LineScanner returns a bufio.Scanner sized for rollout records,
// which can run to many megabytes for tool-heavy turns.
func LineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(
		make([]byte, 0, initialScanBufSize), maxScanTokenSize,
	)
	return scanner
}

// NormalizeCwd canonicalizes a working directory for grouping:
// backslashes become forward slashes, the Windows extended-length
// prefix and any trailing slashes are stripped, and ASCII letters are
// lowercased. Distinct spellings of the same directory compare equal;
// non-ASCII characters keep their case.
func NormalizeCwd(cwd string) string {
	s := strings.ReplaceAll(cwd, "\\", "/")
	s = strings.TrimPrefix(s, "//?/")
	s = strings.TrimRight(s, "/")
	return asciiLower(s)
}

// asciiLower folds A-Z only; multibyte runes pass through unchanged.
func asciiLower(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r + 'a' - 'A'
		}
		return r
	}, s)
}

// DeclaredCwd returns the working directory a record declares while
// scanning for mixed sessions: a bare session-meta record, else a
// turn_context envelope. Enveloped session_meta records declare
// nothing on this path.
func DeclaredCwd(line string) (string, bool) {
	if cwd, ok := bareMetaCwd(line); ok {
		return cwd, true
	}
	if gjson.Get(line, "type").Str == "turn_context" {
		return stringField(line, "payload.cwd")
	}
	return "", false
}

// AnyDeclaredCwd recognizes every cwd-declaring shape: bare
// session-meta, enveloped session_meta, and turn_context. Used when
// classifying whole files rather than grouping records.
func AnyDeclaredCwd(line string) (string, bool) {
	if cwd, ok := bareMetaCwd(line); ok {
		return cwd, true
	}
	switch gjson.Get(line, "type").Str {
	case "session_meta":
		if _, ok := stringField(line, "payload.meta.id"); !ok {
			return "", false
		}
		return stringField(line, "payload.meta.cwd")
	case "turn_context":
		return stringField(line, "payload.cwd")
	}
	return "", false
}

// LineTimestamp returns the record's top-level timestamp field.
func LineTimestamp(line string) (string, bool) {
	return stringField(line, "timestamp")
}

// Meta identifies a session: the conversation id and working
// directory its meta record declares.
type Meta struct {
	ID  string
	Cwd string
}

// FirstCwd scans a rollout file for the first record declaring a
// working directory, in any shape. Non-sticky: first hit wins.
func FirstCwd(path string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	scanner := LineScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !gjson.Valid(line) {
			continue
		}
		if cwd, ok := AnyDeclaredCwd(line); ok {
			return cwd, true
		}
	}
	return "", false
}

// FirstMeta scans a rollout file for the first session-meta record,
// bare or enveloped.
func FirstMeta(path string) (Meta, bool) {
	f, err := os.Open(path)
	if err != nil {
		return Meta{}, false
	}
	defer f.Close()

	scanner := LineScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !gjson.Valid(line) {
			continue
		}
		if m, ok := LineMeta(line); ok {
			return m, true
		}
	}
	return Meta{}, false
}

// LineMeta decodes a session-meta record, bare or enveloped. Lines
// missing either identifying field are not metas.
func LineMeta(line string) (Meta, bool) {
	id, okID := stringField(line, "meta.id")
	cwd, okCwd := stringField(line, "meta.cwd")
	if okID && okCwd {
		return Meta{ID: id, Cwd: cwd}, true
	}
	if gjson.Get(line, "type").Str == "session_meta" {
		id, okID = stringField(line, "payload.meta.id")
		cwd, okCwd = stringField(line, "payload.meta.cwd")
		if okID && okCwd {
			return Meta{ID: id, Cwd: cwd}, true
		}
	}
	return Meta{}, false
}

// RewriteBareMeta returns line with its meta identifier and cwd
// replaced, when line is a bare session-meta record. Any other shape
// comes back unchanged with ok=false.
func RewriteBareMeta(line, id, cwd string) (string, bool) {
	if _, ok := bareMetaCwd(line); !ok {
		return line, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(line), &obj); err != nil {
		return line, false
	}
	meta, ok := obj["meta"].(map[string]any)
	if !ok {
		return line, false
	}
	meta["id"] = id
	meta["cwd"] = cwd
	out, err := json.Marshal(obj)
	if err != nil {
		return line, false
	}
	return string(out), true
}

// RetargetLine rewrites any cwd-declaring record to the given
// conversation id and cwd. Used when adopting backed-up records into
// another session; turn_context records carry no id, so only their
// cwd changes.
func RetargetLine(line, id, cwd string) (string, bool) {
	if _, ok := bareMetaCwd(line); ok {
		return RewriteBareMeta(line, id, cwd)
	}
	switch gjson.Get(line, "type").Str {
	case "session_meta":
		return rewriteEnvelope(line, func(payload map[string]any) bool {
			meta, ok := payload["meta"].(map[string]any)
			if !ok {
				return false
			}
			meta["id"] = id
			meta["cwd"] = cwd
			return true
		})
	case "turn_context":
		return rewriteEnvelope(line, func(payload map[string]any) bool {
			payload["cwd"] = cwd
			return true
		})
	}
	return line, false
}

// bareMetaCwd treats a line as a bare session-meta record only when
// both identifying fields are present, mirroring a full decode.
func bareMetaCwd(line string) (string, bool) {
	if _, ok := stringField(line, "meta.id"); !ok {
		return "", false
	}
	return stringField(line, "meta.cwd")
}

func rewriteEnvelope(
	line string, mutate func(payload map[string]any) bool,
) (string, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(line), &obj); err != nil {
		return line, false
	}
	payload, ok := obj["payload"].(map[string]any)
	if !ok {
		return line, false
	}
	if !mutate(payload) {
		return line, false
	}
	out, err := json.Marshal(obj)
	if err != nil {
		return line, false
	}
	return string(out), true
}

func stringField(line, path string) (string, bool) {
	res := gjson.Get(line, path)
	if res.Type != gjson.String {
		return "", false
	}
	return res.Str, true
}

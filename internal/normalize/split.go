package normalize

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hasan-ozdemir/codexa/internal/rollout"
	"github.com/tidwall/gjson"
)

// unknownCwd keys records seen before any cwd declaration.
const unknownCwd = "_unknown"

// cwdGroup holds one working directory's records in original order.
type cwdGroup struct {
	key    string
	rawCwd string // first un-normalized declaration that keyed the group
	lines  []string
}

// splitFileIfMixed rewrites a rollout file whose records span several
// working directories into one file per cwd group, then renames the
// original to a .mixed.bak backup. Returns the paths of the files it
// created; none means the file was single-session or unreadable and
// was left alone.
func splitFileIfMixed(path string) ([]string, error) {
	groups, firstTS, ok := collectCwdGroups(path)
	if !ok || len(groups) <= 1 {
		return nil, nil
	}

	ts := rollout.TimestampSegment(filepath.Base(path))
	if ts == "" {
		ts = firstTS
	}
	if ts == "" {
		ts = time.Now().UTC().Format(rollout.FilenameTimestampLayout)
	}

	dir := filepath.Dir(path)
	created := make([]string, 0, len(groups))
	for _, g := range groups {
		target, err := writeGroup(dir, ts, g)
		if err != nil {
			return nil, err
		}
		created = append(created, target)
	}

	backup := strings.TrimSuffix(path, filepath.Ext(path)) + ".mixed.bak"
	if err := os.Rename(path, backup); err != nil {
		return nil, fmt.Errorf("rename %s: %w", path, err)
	}
	return created, nil
}

// collectCwdGroups reads every record of a rollout file into
// per-working-directory groups, preserving order. Declarations are
// sticky: records carrying no cwd stay with the most recent one, and
// records before any declaration fall into the _unknown group. ok is
// false when the file cannot be read completely; a partially read
// file must never be split.
func collectCwdGroups(path string) (groups []*cwdGroup, firstTS string, ok bool) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", false
	}
	defer f.Close()

	index := make(map[string]*cwdGroup)
	current := unknownCwd

	scanner := rollout.LineScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !gjson.Valid(line) {
			continue
		}
		if firstTS == "" {
			if ts, ok := rollout.LineTimestamp(line); ok {
				firstTS = ts
			}
		}

		raw := ""
		if cwd, ok := rollout.DeclaredCwd(line); ok {
			current = rollout.NormalizeCwd(cwd)
			raw = cwd
		}

		g := index[current]
		if g == nil {
			g = &cwdGroup{key: current}
			index[current] = g
			groups = append(groups, g)
		}
		if g.rawCwd == "" && raw != "" {
			g.rawCwd = raw
		}
		g.lines = append(g.lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, "", false
	}
	return groups, firstTS, true
}

// writeGroup writes one cwd group to a fresh rollout file in dir,
// rewriting the group's session-meta records to the new conversation
// id and the group's representative cwd so each file stays internally
// consistent.
func writeGroup(dir, ts string, g *cwdGroup) (string, error) {
	id := rollout.NewConversationID()
	target := filepath.Join(dir, rollout.Filename(ts, id))

	f, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", target, err)
	}

	w := bufio.NewWriter(f)
	for _, line := range g.lines {
		out := line
		if rewritten, ok := rollout.RewriteBareMeta(line, id, g.rawCwd); ok {
			out = rewritten
		}
		if _, err := fmt.Fprintln(w, out); err != nil {
			f.Close()
			return "", fmt.Errorf("write %s: %w", target, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return "", fmt.Errorf("write %s: %w", target, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", target, err)
	}
	return target, nil
}

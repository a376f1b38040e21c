package repair

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gowebpki/jcs"
	"github.com/hasan-ozdemir/codexa/internal/rollout"
	"github.com/tidwall/gjson"
)

// Stats counts what a repair run touched.
type Stats struct {
	FilesChecked  int
	FilesRepaired int
	RecordsAdded  int
}

// Tree re-adopts records stranded in .mixed.bak backups by earlier,
// lossier splits. For every rollout file under root with a sibling
// backup sharing its timestamp, the backup's records belonging to the
// file's working directory are rewritten to the file's identity and
// merged in, deduplicated against what the file already holds. With
// dryRun set nothing is written; Stats still reports what would
// change.
func Tree(root string, dryRun bool) (Stats, error) {
	var st Stats
	err := rollout.WalkLogFiles(root, func(path string) error {
		added, repaired, err := repairFile(path, dryRun)
		if err != nil {
			return err
		}
		st.FilesChecked++
		if repaired {
			st.FilesRepaired++
			st.RecordsAdded += added
		}
		return nil
	})
	return st, err
}

// repairFile backfills one rollout file from its sibling backup.
// Files without the rollout- naming, a parseable timestamp, a
// matching backup, or a readable meta record are skipped.
func repairFile(path string, dryRun bool) (int, bool, error) {
	name := filepath.Base(path)
	if !strings.HasPrefix(name, "rollout-") {
		return 0, false, nil
	}
	ts := rollout.TimestampSegment(name)
	if ts == "" {
		return 0, false, nil
	}
	// Backups stay at the legacy depth when their splits get moved
	// into per-project directories, so check the parent too.
	dir := filepath.Dir(path)
	backup := findBackup(dir, ts)
	if backup == "" {
		backup = findBackup(filepath.Dir(dir), ts)
	}
	if backup == "" {
		return 0, false, nil
	}
	meta, ok := rollout.FirstMeta(path)
	if !ok {
		return 0, false, nil
	}

	adopted, err := collectForCwd(backup, rollout.NormalizeCwd(meta.Cwd), meta)
	if err != nil {
		return 0, false, nil // unreadable backup, leave the file alone
	}
	if len(adopted) == 0 {
		return 0, false, nil
	}

	current, err := readRecords(path)
	if err != nil {
		return 0, false, nil
	}

	// The backup predates the split that lost records, so its
	// sequence is the session's original record order: adopted lines
	// lead, records only the target holds follow.
	have := make(map[string]struct{}, len(current))
	for _, line := range current {
		have[canonicalKey(line)] = struct{}{}
	}
	seen := make(map[string]struct{}, len(adopted)+len(current))
	merged := make([]string, 0, len(adopted)+len(current))
	added := 0
	for _, line := range adopted {
		k := canonicalKey(line)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		merged = append(merged, line)
		if _, ok := have[k]; !ok {
			added++
		}
	}
	for _, line := range current {
		k := canonicalKey(line)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		merged = append(merged, line)
	}
	if added == 0 {
		return 0, false, nil
	}
	if dryRun {
		return added, true, nil
	}
	if err := writeRecords(path, merged); err != nil {
		return 0, false, err
	}
	return added, true, nil
}

// findBackup returns the sibling .mixed.bak sharing a timestamp
// prefix, preferring the longest name when several match (collision
// renames produce longer stems).
func findBackup(dir, ts string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	prefix := "rollout-" + ts + "-"
	best := ""
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) ||
			!strings.HasSuffix(name, ".mixed.bak") {
			continue
		}
		if len(name) > len(best) {
			best = name
		}
	}
	if best == "" {
		return ""
	}
	return filepath.Join(dir, best)
}

// collectForCwd gathers the backup's records belonging to the given
// normalized cwd key, sticky like the splitter, rewriting each
// declaration to the target session's identity.
func collectForCwd(path, key string, meta rollout.Meta) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	current := ""
	declared := false

	scanner := rollout.LineScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !gjson.Valid(line) {
			continue
		}
		if cwd, ok := rollout.AnyDeclaredCwd(line); ok {
			current = rollout.NormalizeCwd(cwd)
			declared = true
		}
		if !declared || current != key {
			continue
		}
		if rewritten, ok := rollout.RetargetLine(line, meta.ID, meta.Cwd); ok {
			line = rewritten
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func readRecords(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := rollout.LineScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !gjson.Valid(line) {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// writeRecords replaces the file's contents through a temp file in
// the same directory so a crash mid-write cannot lose records. The
// replacement keeps the file's permissions.
func writeRecords(path string, lines []string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".rollout-repair-*")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	tmpPath := tmp.Name()

	// CreateTemp opens the file 0600; the rename must not narrow the
	// original's mode.
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("chmod %s: %w", path, err)
	}

	w := bufio.NewWriter(tmp)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// canonicalKey returns the RFC 8785 canonical form of a record for
// dedup, falling back to the raw text when canonicalization fails.
func canonicalKey(line string) string {
	canonical, err := jcs.Transform([]byte(line))
	if err != nil {
		return line
	}
	return string(canonical)
}

package catalog

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/hasan-ozdemir/codexa/internal/rollout"
	"github.com/tidwall/gjson"
)

// ScanStats summarizes one catalog scan.
type ScanStats struct {
	Indexed int // files read and upserted
	Skipped int // files unchanged since the last scan
	Removed int // rows whose file is gone
}

// Scan walks the sessions tree under root and brings the catalog in
// line with it: changed files are re-read, unchanged files are
// skipped by size and mtime, and rows for deleted files are removed.
// Only files in the dated layout are indexed.
func (db *DB) Scan(root string) (ScanStats, error) {
	var stats ScanStats
	seen := make(map[string]bool)

	err := rollout.WalkLogFiles(root, func(path string) error {
		slug, ok := sessionLocation(root, path)
		if !ok {
			return nil
		}
		seen[path] = true

		fi, err := os.Stat(path)
		if err != nil {
			return nil
		}
		if size, mtime, ok := db.FileInfoByPath(path); ok &&
			size == fi.Size() && mtime == fi.ModTime().Unix() {
			stats.Skipped++
			return nil
		}

		s, ok := readSession(path)
		if !ok {
			return nil
		}
		s.Path = path
		s.Slug = slug
		s.FileSize = fi.Size()
		s.FileMtime = fi.ModTime().Unix()
		if err := db.Upsert(s); err != nil {
			return err
		}
		stats.Indexed++
		return nil
	})
	if err != nil {
		return stats, err
	}

	removed, err := db.DeleteMissing(seen)
	if err != nil {
		return stats, err
	}
	stats.Removed = removed
	return stats, nil
}

// sessionLocation reports whether path sits in the dated layout under
// root (YYYY/MM/DD/file or YYYY/MM/DD/slug/file) and returns the
// project slug for the five-segment form.
func sessionLocation(root, path string) (slug string, ok bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) != 4 && len(parts) != 5 {
		return "", false
	}
	for _, p := range parts[:3] {
		if !rollout.IsDigits(p) {
			return "", false
		}
	}
	if len(parts) == 5 {
		return parts[3], true
	}
	return "", true
}

// readSession derives the catalog row for one rollout file. Files
// with no recoverable id or no records are not indexable.
func readSession(path string) (Session, bool) {
	f, err := os.Open(path)
	if err != nil {
		return Session{}, false
	}
	defer f.Close()

	var s Session
	scanner := rollout.LineScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !gjson.Valid(line) {
			continue
		}
		s.RecordCount++
		if ts, ok := rollout.LineTimestamp(line); ok {
			if s.StartedAt == "" {
				s.StartedAt = ts
			}
			s.EndedAt = ts
		}
		if s.ID == "" {
			if m, ok := rollout.LineMeta(line); ok {
				s.ID = m.ID
				if s.Cwd == "" {
					s.Cwd = rollout.NormalizeCwd(m.Cwd)
				}
			}
		}
		if s.Cwd == "" {
			if cwd, ok := rollout.AnyDeclaredCwd(line); ok && cwd != "" {
				s.Cwd = rollout.NormalizeCwd(cwd)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return Session{}, false
	}
	if s.ID == "" {
		s.ID = rollout.SessionIDFromFilename(filepath.Base(path))
	}
	if s.ID == "" || s.RecordCount == 0 {
		return Session{}, false
	}
	return s, true
}

package catalog

import (
	"fmt"
)

// Session is one indexed rollout file.
type Session struct {
	ID          string
	Path        string
	Slug        string
	Cwd         string
	StartedAt   string
	EndedAt     string
	RecordCount int
	FileSize    int64
	FileMtime   int64
}

// Upsert inserts or updates a session row keyed by session ID.
func (db *DB) Upsert(s Session) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.writer.Exec(`
		INSERT INTO sessions (id, path, slug, cwd, started_at, ended_at, record_count, file_size, file_mtime)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			path = excluded.path,
			slug = excluded.slug,
			cwd = excluded.cwd,
			started_at = excluded.started_at,
			ended_at = excluded.ended_at,
			record_count = excluded.record_count,
			file_size = excluded.file_size,
			file_mtime = excluded.file_mtime
	`, s.ID, s.Path, s.Slug, s.Cwd, s.StartedAt, s.EndedAt, s.RecordCount, s.FileSize, s.FileMtime)
	if err != nil {
		return fmt.Errorf("upserting session %s: %w", s.ID, err)
	}
	return nil
}

// FileInfoByPath returns the stored size and mtime for a path, used to
// skip re-reading files that have not changed since the last scan.
func (db *DB) FileInfoByPath(path string) (size, mtime int64, ok bool) {
	row := db.reader.QueryRow(`SELECT file_size, file_mtime FROM sessions WHERE path = ?`, path)
	if err := row.Scan(&size, &mtime); err != nil {
		return 0, 0, false
	}
	return size, mtime, true
}

// List returns indexed sessions, newest first. An empty cwdFilter
// matches everything; otherwise rows whose cwd contains the filter as
// a substring are returned. limit <= 0 means no limit.
func (db *DB) List(cwdFilter string, limit int) ([]Session, error) {
	query := `
		SELECT id, path, slug, cwd, started_at, ended_at, record_count, file_size, file_mtime
		FROM sessions`
	args := []any{}
	if cwdFilter != "" {
		query += ` WHERE instr(cwd, ?) > 0`
		args = append(args, cwdFilter)
	}
	query += ` ORDER BY started_at DESC, id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.reader.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.Path, &s.Slug, &s.Cwd, &s.StartedAt, &s.EndedAt, &s.RecordCount, &s.FileSize, &s.FileMtime); err != nil {
			return nil, fmt.Errorf("scanning session row: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// DeleteMissing removes rows whose path is not in keep. Returns the
// number of rows deleted.
func (db *DB) DeleteMissing(keep map[string]bool) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	rows, err := db.writer.Query(`SELECT id, path FROM sessions`)
	if err != nil {
		return 0, fmt.Errorf("querying sessions: %w", err)
	}
	var stale []string
	for rows.Next() {
		var id, path string
		if err := rows.Scan(&id, &path); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scanning session row: %w", err)
		}
		if !keep[path] {
			stale = append(stale, id)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	rows.Close()

	if len(stale) == 0 {
		return 0, nil
	}

	tx, err := db.writer.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning delete: %w", err)
	}
	for _, id := range stale {
		if _, err := tx.Exec(`DELETE FROM sessions WHERE id = ?`, id); err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("deleting session %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing delete: %w", err)
	}
	return len(stale), nil
}

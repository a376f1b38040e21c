package normalize

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/hasan-ozdemir/codexa/internal/rollout"
)

// Stats counts what a pass touched.
type Stats struct {
	FilesScanned  int
	FilesSplit    int
	GroupsWritten int
	FilesMigrated int
	Collisions    int
}

// Sessions runs the one-time layout normalization over the rollout
// tree under home/sessions: mixed files are split per working
// directory, then legacy-depth files are moved into per-project
// directories. A missing tree is a successful no-op. The pass is
// idempotent; a second run over a normalized tree changes nothing.
func Sessions(home string) (Stats, error) {
	root := filepath.Join(home, "sessions")
	if _, err := os.Stat(root); err != nil {
		return Stats{}, nil
	}
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	return Tree(root)
}

// Tree runs both sweeps, split then migrate, over an explicit
// sessions root. The first fatal error aborts the pass.
func Tree(root string) (Stats, error) {
	var st Stats
	if err := splitSweep(root, &st); err != nil {
		return st, err
	}
	if err := migrateSweep(root, &st); err != nil {
		return st, err
	}
	return st, nil
}

// Background offloads Sessions onto its own goroutine. Host tools
// start it at launch and collect the result once startup settles.
func Background(home string) <-chan error {
	done := make(chan error, 1)
	go func() {
		_, err := Sessions(home)
		done <- err
	}()
	return done
}

// File normalizes a single path: splits it if mixed, then migrates
// whatever now stands at a legacy depth. Watch mode feeds changed
// paths through here.
func File(root, path string) error {
	if !strings.EqualFold(filepath.Ext(path), ".jsonl") {
		return nil
	}
	created, err := splitFileIfMixed(path)
	if err != nil {
		return err
	}
	if len(created) == 0 {
		_, _, err := migrateFile(root, path)
		return err
	}
	for _, out := range created {
		if _, _, err := migrateFile(root, out); err != nil {
			return err
		}
	}
	return nil
}

func splitSweep(root string, st *Stats) error {
	return rollout.WalkLogFiles(root, func(path string) error {
		st.FilesScanned++
		created, err := splitFileIfMixed(path)
		if err != nil {
			return err
		}
		if len(created) > 0 {
			st.FilesSplit++
			st.GroupsWritten += len(created)
		}
		return nil
	})
}

func migrateSweep(root string, st *Stats) error {
	return rollout.WalkLogFiles(root, func(path string) error {
		moved, renamed, err := migrateFile(root, path)
		if err != nil {
			return err
		}
		if moved {
			st.FilesMigrated++
		}
		if renamed {
			st.Collisions++
		}
		return nil
	})
}

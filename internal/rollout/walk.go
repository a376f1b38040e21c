package rollout

import (
	"os"
	"path/filepath"
	"strings"
)

// WalkLogFiles visits every .jsonl file under root (extension matched
// case-insensitively), depth-first over an explicit directory stack.
// Unreadable directories are skipped silently; an error from fn stops
// the walk and propagates.
func WalkLogFiles(root string, fn func(path string) error) error {
	stack := []string{root}
	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			p := filepath.Join(dir, entry.Name())
			if isDirOrSymlink(entry, dir) {
				stack = append(stack, p)
				continue
			}
			if !strings.EqualFold(filepath.Ext(entry.Name()), ".jsonl") {
				continue
			}
			if err := fn(p); err != nil {
				return err
			}
		}
	}
	return nil
}

// isDirOrSymlink reports whether the entry is a directory or a
// symlink that resolves to one. parentDir is needed to build the full
// path for symlink resolution.
func isDirOrSymlink(entry os.DirEntry, parentDir string) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	fi, err := os.Stat(filepath.Join(parentDir, entry.Name()))
	return err == nil && fi.IsDir()
}

package rollout

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"
)

func writeEmpty(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func collectWalk(t *testing.T, root string) []string {
	t.Helper()
	var got []string
	err := WalkLogFiles(root, func(path string) error {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		got = append(got, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		t.Fatalf("WalkLogFiles: %v", err)
	}
	sort.Strings(got)
	return got
}

func TestWalkLogFiles(t *testing.T) {
	root := t.TempDir()
	writeEmpty(t, filepath.Join(root, "2025", "01", "03", "a.jsonl"))
	writeEmpty(t, filepath.Join(root, "2025", "01", "03", "b.JSONL"))
	writeEmpty(t, filepath.Join(root, "top.jsonl"))
	writeEmpty(t, filepath.Join(root, "notes.md"))
	writeEmpty(t, filepath.Join(root, "2025", "readme.txt"))

	got := collectWalk(t, root)
	want := []string{
		"2025/01/03/a.jsonl",
		"2025/01/03/b.JSONL",
		"top.jsonl",
	}
	if len(got) != len(want) {
		t.Fatalf("walked %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("walked[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWalkLogFilesDirectoryNamedLikeLog(t *testing.T) {
	// A directory whose name ends in .jsonl is traversed, not
	// yielded.
	root := t.TempDir()
	writeEmpty(t, filepath.Join(root, "trap.jsonl", "inner.jsonl"))

	got := collectWalk(t, root)
	if len(got) != 1 || got[0] != "trap.jsonl/inner.jsonl" {
		t.Errorf("walked %v, want [trap.jsonl/inner.jsonl]", got)
	}
}

func TestWalkLogFilesUnreadableDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping: Unix permissions not reliable on Windows")
	}
	if os.Getuid() == 0 {
		t.Skip("skipping: running as root bypasses permissions")
	}

	root := t.TempDir()
	writeEmpty(t, filepath.Join(root, "ok", "a.jsonl"))
	locked := filepath.Join(root, "locked")
	writeEmpty(t, filepath.Join(locked, "hidden.jsonl"))
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	got := collectWalk(t, root)
	if len(got) != 1 || got[0] != "ok/a.jsonl" {
		t.Errorf("walked %v, want [ok/a.jsonl]", got)
	}
}

func TestWalkLogFilesCallbackErrorAborts(t *testing.T) {
	root := t.TempDir()
	writeEmpty(t, filepath.Join(root, "a.jsonl"))
	writeEmpty(t, filepath.Join(root, "b.jsonl"))

	sentinel := errors.New("stop here")
	calls := 0
	err := WalkLogFiles(root, func(string) error {
		calls++
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want sentinel", err)
	}
	if calls != 1 {
		t.Errorf("callback ran %d times after error, want 1", calls)
	}
}

func TestWalkLogFilesFollowsDirSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping: symlinks need privileges on Windows")
	}

	root := t.TempDir()
	target := t.TempDir()
	writeEmpty(t, filepath.Join(target, "linked.jsonl"))
	if err := os.Symlink(target, filepath.Join(root, "link")); err != nil {
		t.Fatal(err)
	}

	got := collectWalk(t, root)
	if len(got) != 1 || got[0] != "link/linked.jsonl" {
		t.Errorf("walked %v, want [link/linked.jsonl]", got)
	}
}

package normalize

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWatcherEmptyRoot(t *testing.T) {
	_, err := NewWatcher("", time.Second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrInvalid))
}

func TestHandleEventFilters(t *testing.T) {
	root := t.TempDir()
	w, err := NewWatcher(root, time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.watcher.Close() })

	sub := filepath.Join(root, "2025")
	require.NoError(t, os.Mkdir(sub, 0o755))

	tests := []struct {
		name    string
		event   fsnotify.Event
		pending bool
	}{
		{
			"write to rollout file",
			fsnotify.Event{Name: filepath.Join(root, "a.jsonl"), Op: fsnotify.Write},
			true,
		},
		{
			"create with uppercase extension",
			fsnotify.Event{Name: filepath.Join(root, "b.JSONL"), Op: fsnotify.Create},
			true,
		},
		{
			"chmod ignored",
			fsnotify.Event{Name: filepath.Join(root, "c.jsonl"), Op: fsnotify.Chmod},
			false,
		},
		{
			"own backup rename ignored",
			fsnotify.Event{Name: filepath.Join(root, "d.mixed.bak"), Op: fsnotify.Write},
			false,
		},
		{
			"other extension ignored",
			fsnotify.Event{Name: filepath.Join(root, "e.txt"), Op: fsnotify.Write},
			false,
		},
		{
			"created directory watched not queued",
			fsnotify.Event{Name: sub, Op: fsnotify.Create},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(w.pending)
			w.handleEvent(tt.event)
			want := before
			if tt.pending {
				want++
			}
			assert.Len(t, w.pending, want)
		})
	}
}

func TestFlushHonorsDebounce(t *testing.T) {
	root := t.TempDir()
	name := "rollout-2025-01-03T10-00-00-0195fffa-aaaa-7aaa-8aaa-000000000001.jsonl"
	path := filepath.Join(root, "2025", "01", "03", name)
	writeSession(t, path, mixedSession())

	w, err := NewWatcher(root, 100*time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.watcher.Close() })

	base := time.Now()
	current := base
	w.now = func() time.Time { return current }

	w.handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Write})
	require.Len(t, w.pending, 1)

	current = base.Add(50 * time.Millisecond)
	w.flush()
	assert.Len(t, w.pending, 1, "half the debounce has elapsed")
	_, statErr := os.Stat(path)
	assert.NoError(t, statErr, "file must stay untouched until due")

	current = base.Add(150 * time.Millisecond)
	w.flush()
	assert.Empty(t, w.pending)

	backup := filepath.Join(filepath.Dir(path),
		strings.TrimSuffix(name, ".jsonl")+".mixed.bak")
	_, statErr = os.Stat(backup)
	assert.NoError(t, statErr, "flush should have normalized the file")
}

func TestWatcherNormalizesNewFiles(t *testing.T) {
	root := t.TempDir()
	day := filepath.Join(root, "2025", "01", "03")
	require.NoError(t, os.MkdirAll(day, 0o755))

	w, err := NewWatcher(root, 50*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	name := "rollout-2025-01-03T10-00-00-0195fffa-aaaa-7aaa-8aaa-000000000001.jsonl"
	writeSession(t, filepath.Join(day, name), mixedSession())

	backup := filepath.Join(day, strings.TrimSuffix(name, ".jsonl")+".mixed.bak")
	require.Eventually(t, func() bool {
		_, err := os.Stat(backup)
		return err == nil
	}, 3*time.Second, 25*time.Millisecond,
		"mixed file should be split once the debounce elapses")

	// Stop is idempotent.
	w.Stop()
	w.Stop()
}

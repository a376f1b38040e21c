package normalize

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hasan-ozdemir/codexa/internal/rollout"
	"github.com/hasan-ozdemir/codexa/internal/testjsonl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func singleCwdSession(cwd string) string {
	return testjsonl.NewSessionBuilder().
		AddMetaLine("0195fffa-aaaa-7aaa-8aaa-000000000001", cwd, ts1).
		AddMessage(ts2, "user", "hello").
		String()
}

func TestMigrateFileDepthGating(t *testing.T) {
	tests := []struct {
		name string
		rel  string
	}{
		{"three segments stay", "2025/01/file.jsonl"},
		{"five segments stay", "2025/01/03/app-abcd1234/file.jsonl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			path := filepath.Join(root, filepath.FromSlash(tt.rel))
			writeSession(t, path, singleCwdSession("/Work/App"))

			moved, renamed, err := migrateFile(root, path)
			require.NoError(t, err)
			assert.False(t, moved)
			assert.False(t, renamed)

			_, err = os.Stat(path)
			assert.NoError(t, err, "file should stay put")
		})
	}
}

func TestMigrateFileMovesIntoSlugDir(t *testing.T) {
	root := t.TempDir()
	name := "rollout-2025-01-03T10-00-00-0195fffa-aaaa-7aaa-8aaa-000000000001.jsonl"
	path := filepath.Join(root, "2025", "01", "03", name)
	content := singleCwdSession("/Work/App")
	writeSession(t, path, content)

	moved, renamed, err := migrateFile(root, path)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.False(t, renamed)

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("source should be gone, stat err = %v", err)
	}

	target := filepath.Join(
		root, "2025", "01", "03", rollout.SlugForCwd("/Work/App"), name,
	)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestMigrateFileNoCwdStays(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "2025", "01", "03", "rollout-x.jsonl")
	writeSession(t, path, testjsonl.NewSessionBuilder().
		AddMessage(ts1, "user", "no declaration anywhere").
		AddMessage(ts2, "assistant", "indeed").
		String())

	moved, _, err := migrateFile(root, path)
	require.NoError(t, err)
	assert.False(t, moved)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestMigrateFileCollisionRenames(t *testing.T) {
	root := t.TempDir()
	name := "rollout-2025-01-03T10-00-00-0195fffa-aaaa-7aaa-8aaa-000000000001.jsonl"
	slugDir := filepath.Join(
		root, "2025", "01", "03", rollout.SlugForCwd("/Work/App"),
	)
	occupied := "occupied\n"
	writeSession(t, filepath.Join(slugDir, name), occupied)

	path := filepath.Join(root, "2025", "01", "03", name)
	writeSession(t, path, singleCwdSession("/Work/App"))

	moved, renamed, err := migrateFile(root, path)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.True(t, renamed)

	// The occupant keeps its bytes; the migrated file gets a fresh
	// id appended to its stem.
	data, err := os.ReadFile(filepath.Join(slugDir, name))
	require.NoError(t, err)
	assert.Equal(t, occupied, string(data))

	entries, err := os.ReadDir(slugDir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	var renamedTo string
	for _, e := range entries {
		if e.Name() != name {
			renamedTo = e.Name()
		}
	}
	require.NotEmpty(t, renamedTo)
	stem := strings.TrimSuffix(name, ".jsonl")
	assert.True(t, strings.HasPrefix(renamedTo, stem+"-"),
		"renamed file %q should extend the original stem", renamedTo)
	assert.NotEqual(t,
		rollout.SessionIDFromFilename(name),
		rollout.SessionIDFromFilename(renamedTo),
	)
}

func TestMigrateFileOutsideRootStays(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "sessions")
	require.NoError(t, os.MkdirAll(root, 0o755))

	// Relative to root this is ../elsewhere/03/f.jsonl: four
	// segments, so only the ".." guard stops it.
	path := filepath.Join(base, "elsewhere", "03", "f.jsonl")
	writeSession(t, path, singleCwdSession("/Work/App"))

	moved, _, err := migrateFile(root, path)
	require.NoError(t, err)
	assert.False(t, moved)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

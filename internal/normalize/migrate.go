package normalize

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hasan-ozdemir/codexa/internal/rollout"
)

// migrateFile moves a legacy-layout rollout file
// (root/YYYY/MM/DD/file.jsonl, exactly four segments below root) into
// its per-project directory under the same day. Files at any other
// depth, or without a determinable cwd, stay put. renamed reports
// that a destination collision forced a fresh id onto the filename.
func migrateFile(root, path string) (moved, renamed bool, err error) {
	rel, relErr := filepath.Rel(root, path)
	if relErr != nil {
		return false, false, nil
	}
	parts := strings.Split(rel, string(filepath.Separator))
	if len(parts) != 4 || parts[0] == ".." {
		return false, false, nil
	}

	cwd, ok := rollout.FirstCwd(path)
	if !ok {
		return false, false, nil
	}

	dir := filepath.Join(
		root, parts[0], parts[1], parts[2], rollout.SlugForCwd(cwd),
	)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, false, fmt.Errorf("create %s: %w", dir, err)
	}

	target := filepath.Join(dir, parts[3])
	if _, err := os.Stat(target); err == nil {
		stem := strings.TrimSuffix(parts[3], filepath.Ext(parts[3]))
		target = filepath.Join(dir, fmt.Sprintf(
			"%s-%s.jsonl", stem, rollout.NewConversationID(),
		))
		renamed = true
	}

	if err := os.Rename(path, target); err != nil {
		return false, renamed, fmt.Errorf("move %s: %w", path, err)
	}
	return true, renamed, nil
}

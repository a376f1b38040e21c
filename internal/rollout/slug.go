package rollout

import (
	"crypto/sha256"
	"encoding/hex"
	"path"
	"regexp"
	"strings"
)

const (
	slugHashLen    = 8
	slugMaxBaseLen = 40
	slugFallback   = "project"
)

var slugStripRe = regexp.MustCompile(`[^a-z0-9]+`)

// SlugForCwd derives the per-project directory name for a working
// directory: the sanitized final path component plus a short hash of
// the normalized path, so projects sharing a basename in different
// locations stay apart. Deterministic across platforms and path
// spellings.
func SlugForCwd(cwd string) string {
	norm := NormalizeCwd(cwd)
	base := slugStripRe.ReplaceAllString(path.Base(norm), "-")
	base = strings.Trim(base, "-")
	if len(base) > slugMaxBaseLen {
		base = strings.Trim(base[:slugMaxBaseLen], "-")
	}
	if base == "" {
		base = slugFallback
	}
	sum := sha256.Sum256([]byte(norm))
	return base + "-" + hex.EncodeToString(sum[:])[:slugHashLen]
}

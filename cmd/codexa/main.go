package main

import (
	"fmt"
	"os"
	"time"

	"github.com/hasan-ozdemir/codexa/internal/config"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = ""
)

const watcherDebounce = 500 * time.Millisecond

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "normalize":
			runNormalize(os.Args[2:])
			return
		case "repair":
			runRepair(os.Args[2:])
			return
		case "index":
			runIndex(os.Args[2:])
			return
		case "config":
			runConfig(os.Args[2:])
			return
		case "update":
			runUpdate(os.Args[2:])
			return
		case "version", "--version", "-v":
			fmt.Printf("codexa %s (commit %s, built %s)\n",
				version, commit, buildDate)
			return
		case "help", "--help", "-h":
			printUsage()
			return
		default:
			fmt.Fprintf(os.Stderr,
				"codexa: unknown command %q\n\n", os.Args[1])
			printUsage()
			os.Exit(2)
		}
	}

	printUsage()
}

// resolveRoot returns the sessions root: the explicit flag value
// when set, else the configured default.
func resolveRoot(flagRoot string) (string, error) {
	if flagRoot != "" {
		return flagRoot, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return "", err
	}
	return cfg.SessionsDir, nil
}

func printUsage() {
	fmt.Printf(`codexa %s - housekeeping for Codex rollout session trees

Normalizes rollout JSONL files under the sessions root: splits files
whose records mix working directories into one session per directory,
and migrates legacy-layout files into per-project subdirectories.

Usage:
  codexa normalize [flags]   Split mixed sessions, migrate legacy paths
  codexa repair [flags]      Backfill records lost by earlier splits
  codexa index [flags]       Maintain and query the session catalog
  codexa config [flags]      Show or edit configuration
  codexa update [flags]      Check for a newer release
  codexa version             Show version information
  codexa help                Show this help

Normalize flags:
  -root string    Sessions root (default <codex-home>/sessions)
  -watch          Keep running and normalize files as they change

Repair flags:
  -root string    Sessions root (default <codex-home>/sessions)
  -dry-run        Report what would change without writing

Index flags:
  -root string    Sessions root (default <codex-home>/sessions)
  -db string      Catalog database path (default <data-dir>/catalog.db)
  -list           List indexed sessions instead of scanning
  -cwd string     With -list, only sessions whose cwd contains this
  -limit int      With -list, show at most N sessions (default 20)

Config flags:
  -edit           Open the config file in your editor

Update flags:
  -force          Force check (ignore cache)

Environment variables:
  CODEX_HOME            Codex home; sessions live in its sessions/
  CODEXA_SESSIONS_DIR   Sessions root override
  CODEXA_DATA_DIR       Data directory (catalog, config, cache)

Data is stored in ~/.codexa/ by default.
`, version)
}

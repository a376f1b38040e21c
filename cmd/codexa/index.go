package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/hasan-ozdemir/codexa/internal/catalog"
	"github.com/hasan-ozdemir/codexa/internal/config"
)

// IndexConfig holds parsed CLI options for the index command.
type IndexConfig struct {
	Root   string
	DBPath string
	List   bool
	Cwd    string
	Limit  int
}

func parseIndexFlags(args []string) (IndexConfig, error) {
	fs := flag.NewFlagSet("index", flag.ContinueOnError)
	root := fs.String(
		"root", "",
		"Sessions root (default <codex-home>/sessions)",
	)
	dbPath := fs.String(
		"db", "",
		"Catalog database path (default <data-dir>/catalog.db)",
	)
	list := fs.Bool(
		"list", false,
		"List indexed sessions instead of scanning",
	)
	cwd := fs.String(
		"cwd", "",
		"With -list, only sessions whose cwd contains this",
	)
	limit := fs.Int(
		"limit", 20,
		"With -list, show at most N sessions",
	)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(),
			"Usage: codexa index [flags]")
		fmt.Fprintln(fs.Output(), "\nFlags:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return IndexConfig{}, err
	}
	if fs.NArg() > 0 {
		return IndexConfig{}, fmt.Errorf(
			"unexpected argument %q", fs.Arg(0),
		)
	}

	cfg := IndexConfig{
		Root:   *root,
		DBPath: *dbPath,
		List:   *list,
		Cwd:    *cwd,
		Limit:  *limit,
	}
	if !cfg.List && cfg.Cwd != "" {
		return IndexConfig{}, fmt.Errorf("-cwd requires -list")
	}
	if cfg.Limit < 0 {
		return IndexConfig{}, fmt.Errorf("limit must be >= 0")
	}
	return cfg, nil
}

func writeSessionList(w io.Writer, sessions []catalog.Session) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions indexed.")
		return
	}
	fmt.Fprintf(w, "Found %d sessions\n\n", len(sessions))
	for _, s := range sessions {
		id := s.ID
		if len(id) > 8 {
			id = id[:8]
		}
		started := s.StartedAt
		if len(started) > 19 {
			started = started[:19]
		}
		fmt.Fprintf(w, "  %-8s  %-19s  %5d records  %s\n",
			id, started, s.RecordCount, s.Cwd)
	}
}

func runIndex(args []string) {
	cmd, err := parseIndexFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	dbPath := cmd.DBPath
	if dbPath == "" {
		cfg, err := config.Load()
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}
		dbPath = cfg.DBPath
	}

	db, err := catalog.Open(dbPath)
	if err != nil {
		log.Fatalf("opening catalog: %v", err)
	}
	defer db.Close()

	if cmd.List {
		sessions, err := db.List(cmd.Cwd, cmd.Limit)
		if err != nil {
			log.Fatalf("listing sessions: %v", err)
		}
		writeSessionList(os.Stdout, sessions)
		return
	}

	root, err := resolveRoot(cmd.Root)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	stats, err := db.Scan(root)
	if err != nil {
		log.Fatalf("indexing sessions: %v", err)
	}
	fmt.Printf(
		"Index complete: %d indexed, %d unchanged, %d removed\n",
		stats.Indexed, stats.Skipped, stats.Removed,
	)
}

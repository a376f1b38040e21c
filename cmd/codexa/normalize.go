package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/hasan-ozdemir/codexa/internal/normalize"
)

// NormalizeConfig holds parsed CLI options for the normalize command.
type NormalizeConfig struct {
	Root  string
	Watch bool
}

func parseNormalizeFlags(args []string) (NormalizeConfig, error) {
	fs := flag.NewFlagSet("normalize", flag.ContinueOnError)
	root := fs.String(
		"root", "",
		"Sessions root (default <codex-home>/sessions)",
	)
	watch := fs.Bool(
		"watch", false,
		"Keep running and normalize files as they change",
	)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(),
			"Usage: codexa normalize [flags]")
		fmt.Fprintln(fs.Output(), "\nFlags:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return NormalizeConfig{}, err
	}
	if fs.NArg() > 0 {
		return NormalizeConfig{}, fmt.Errorf(
			"unexpected argument %q", fs.Arg(0),
		)
	}
	return NormalizeConfig{Root: *root, Watch: *watch}, nil
}

func writeNormalizeSummary(w io.Writer, st normalize.Stats) {
	fmt.Fprintf(w,
		"Normalize complete: %d files scanned, %d mixed files"+
			" split into %d, %d migrated",
		st.FilesScanned, st.FilesSplit,
		st.GroupsWritten, st.FilesMigrated,
	)
	if st.Collisions > 0 {
		fmt.Fprintf(w, " (%d collision renames)", st.Collisions)
	}
	fmt.Fprintln(w)
}

func runNormalize(args []string) {
	cmd, err := parseNormalizeFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	root, err := resolveRoot(cmd.Root)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	stats, err := normalize.Tree(root)
	if err != nil {
		log.Fatalf("normalize: %v", err)
	}
	writeNormalizeSummary(os.Stdout, stats)

	if !cmd.Watch {
		return
	}

	watcher, err := normalize.NewWatcher(root, watcherDebounce)
	if err != nil {
		log.Fatalf("starting watcher: %v", err)
	}
	if err := watcher.Start(); err != nil {
		log.Fatalf("starting watcher: %v", err)
	}
	defer watcher.Stop()

	fmt.Printf("Watching %s (Ctrl-C to stop)\n", root)
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	<-sig
	fmt.Println("\nStopping.")
}

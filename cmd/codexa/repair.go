package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/hasan-ozdemir/codexa/internal/repair"
)

// RepairConfig holds parsed CLI options for the repair command.
type RepairConfig struct {
	Root   string
	DryRun bool
}

func parseRepairFlags(args []string) (RepairConfig, error) {
	fs := flag.NewFlagSet("repair", flag.ContinueOnError)
	root := fs.String(
		"root", "",
		"Sessions root (default <codex-home>/sessions)",
	)
	dryRun := fs.Bool(
		"dry-run", false,
		"Report what would change without writing",
	)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(),
			"Usage: codexa repair [flags]")
		fmt.Fprintln(fs.Output(), "\nFlags:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return RepairConfig{}, err
	}
	if fs.NArg() > 0 {
		return RepairConfig{}, fmt.Errorf(
			"unexpected argument %q", fs.Arg(0),
		)
	}
	return RepairConfig{Root: *root, DryRun: *dryRun}, nil
}

func writeRepairSummary(w io.Writer, st repair.Stats, dryRun bool) {
	verb := "restored to"
	if dryRun {
		verb = "missing from"
	}
	fmt.Fprintf(w,
		"Repair complete: %d files checked, %d records %s %d files\n",
		st.FilesChecked, st.RecordsAdded, verb, st.FilesRepaired,
	)
	if dryRun {
		fmt.Fprintln(w, "Dry run: no changes made.")
	}
}

func runRepair(args []string) {
	cmd, err := parseRepairFlags(args)
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

	stats, err := repair.Tree(root, cmd.DryRun)
	if err != nil {
		log.Fatalf("repair: %v", err)
	}
	writeRepairSummary(os.Stdout, stats, cmd.DryRun)
}

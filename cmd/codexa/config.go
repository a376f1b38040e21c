package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/hasan-ozdemir/codexa/internal/config"
	"github.com/hasan-ozdemir/codexa/internal/editor"
)

const defaultConfigSkeleton = `{
  "sessions_dir": "",
  "editor": ""
}
`

func runConfig(args []string) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	edit := fs.Bool("edit", false,
		"Open the config file in your editor")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(),
			"Usage: codexa config [flags]")
		fmt.Fprintln(fs.Output(), "\nFlags:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		log.Fatalf("parsing flags: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	if !*edit {
		writeConfigSummary(os.Stdout, cfg)
		return
	}

	if err := editConfig(cfg); err != nil {
		log.Fatalf("editing config: %v", err)
	}
	fmt.Printf("Wrote %s\n", cfg.ConfigPath())
}

func writeConfigSummary(w io.Writer, cfg config.Config) {
	editorCmd := cfg.Editor
	if editorCmd == "" {
		editorCmd = "(from $VISUAL/$EDITOR)"
	}
	fmt.Fprintf(w, "config file:  %s\n", cfg.ConfigPath())
	fmt.Fprintf(w, "sessions dir: %s\n", cfg.SessionsDir)
	fmt.Fprintf(w, "data dir:     %s\n", cfg.DataDir)
	fmt.Fprintf(w, "catalog db:   %s\n", cfg.DBPath)
	fmt.Fprintf(w, "editor:       %s\n", editorCmd)
}

// editConfig round-trips the config file through the user's editor,
// refusing to write back anything that is not valid JSON.
func editConfig(cfg config.Config) error {
	initial, err := os.ReadFile(cfg.ConfigPath())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config: %w", err)
	}
	if len(initial) == 0 {
		initial = []byte(defaultConfigSkeleton)
	}

	var opts editor.Options
	if cfg.Editor != "" {
		argv, err := editor.ParseCommand(cfg.Editor)
		if err != nil {
			return err
		}
		opts.Command = argv
	}

	edited, err := editor.Edit(string(initial), opts)
	if err != nil {
		return err
	}

	var check map[string]any
	if err := json.Unmarshal([]byte(edited), &check); err != nil {
		return fmt.Errorf("edited config is not valid JSON: %w", err)
	}
	return cfg.WriteContents(edited + "\n")
}

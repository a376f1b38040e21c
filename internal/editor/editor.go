package editor

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/google/shlex"
)

// ErrEmptyCommand means an editor override resolved to no program.
var ErrEmptyCommand = errors.New("editor command is empty")

// Options control how the external editor is launched.
type Options struct {
	// Command overrides $VISUAL/$EDITOR resolution entirely. Parsed
	// already; the temp file path is appended as the last argument.
	Command []string
	// Suspend runs before the editor takes the terminal and Resume
	// after it exits; TUI hosts restore the terminal and re-enter raw
	// mode here. Both optional.
	Suspend func() error
	Resume  func()
}

// Edit writes initial to a temp file, opens it in the resolved editor
// attached to the caller's terminal, and returns the edited contents
// with one trailing newline stripped.
func Edit(initial string, opts Options) (string, error) {
	argv := opts.Command
	if len(argv) == 0 {
		var err error
		argv, err = resolveCommand()
		if err != nil {
			return "", err
		}
	}
	if argv[0] == "" {
		return "", ErrEmptyCommand
	}

	tmp, err := os.CreateTemp("", "codexa-edit-*.txt")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	path := tmp.Name()
	defer os.Remove(path)

	if _, err := tmp.WriteString(initial); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("write temp file: %w", err)
	}

	if opts.Suspend != nil {
		if err := opts.Suspend(); err != nil {
			return "", err
		}
	}
	if opts.Resume != nil {
		defer opts.Resume()
	}

	cmd := exec.Command(argv[0], append(argv[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("editor %s: %w", argv[0], err)
	}

	edited, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read temp file: %w", err)
	}

	text := string(edited)
	text = strings.TrimSuffix(text, "\n")
	text = strings.TrimSuffix(text, "\r")
	return text, nil
}

// ParseCommand splits a configured editor override shell-style, so
// quoted arguments survive ("code --wait").
func ParseCommand(value string) ([]string, error) {
	argv, err := shlex.Split(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("parse editor command: %w", err)
	}
	if len(argv) == 0 {
		return nil, ErrEmptyCommand
	}
	return argv, nil
}

// resolveCommand picks the editor: $VISUAL, then $EDITOR, then the
// platform default. Values are parsed shell-style, so quoted
// arguments survive ("code --wait").
func resolveCommand() ([]string, error) {
	for _, env := range []string{"VISUAL", "EDITOR"} {
		value := strings.TrimSpace(os.Getenv(env))
		if value == "" {
			continue
		}
		argv, err := shlex.Split(value)
		if err != nil {
			return nil, fmt.Errorf("parse $%s: %w", env, err)
		}
		if len(argv) == 0 {
			continue
		}
		return argv, nil
	}
	if runtime.GOOS == "windows" {
		return []string{"notepad"}, nil
	}
	return []string{"nano"}, nil
}

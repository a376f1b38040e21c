package main

import (
	"bytes"
	"errors"
	"flag"
	"strings"
	"testing"

	"github.com/hasan-ozdemir/codexa/internal/normalize"
)

func TestParseNormalizeFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
		check   func(t *testing.T, cfg NormalizeConfig)
	}{
		{
			name: "defaults",
			args: []string{},
			check: func(t *testing.T, cfg NormalizeConfig) {
				t.Helper()
				if cfg.Root != "" {
					t.Errorf("Root = %q, want empty", cfg.Root)
				}
				if cfg.Watch {
					t.Error("Watch should default to false")
				}
			},
		},
		{
			name: "root and watch",
			args: []string{"-root", "/srv/sessions", "-watch"},
			check: func(t *testing.T, cfg NormalizeConfig) {
				t.Helper()
				if cfg.Root != "/srv/sessions" {
					t.Errorf(
						"Root = %q, want %q",
						cfg.Root, "/srv/sessions",
					)
				}
				if !cfg.Watch {
					t.Error("Watch should be true")
				}
			},
		},
		{
			name:    "unknown flag",
			args:    []string{"--bogus"},
			wantErr: "flag provided but not defined",
		},
		{
			name:    "positional argument",
			args:    []string{"extra"},
			wantErr: "unexpected argument",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := parseNormalizeFlags(tt.args)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error containing %q",
						tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error %q missing %q",
						err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestParseNormalizeFlagsHelp(t *testing.T) {
	_, err := parseNormalizeFlags([]string{"--help"})
	if !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("expected flag.ErrHelp, got %v", err)
	}
}

func TestWriteNormalizeSummary(t *testing.T) {
	var buf bytes.Buffer
	writeNormalizeSummary(&buf, normalize.Stats{
		FilesScanned:  10,
		FilesSplit:    2,
		GroupsWritten: 5,
		FilesMigrated: 7,
	})

	want := "Normalize complete: 10 files scanned," +
		" 2 mixed files split into 5, 7 migrated\n"
	if buf.String() != want {
		t.Errorf("summary = %q, want %q", buf.String(), want)
	}
}

func TestWriteNormalizeSummaryCollisions(t *testing.T) {
	var buf bytes.Buffer
	writeNormalizeSummary(&buf, normalize.Stats{
		FilesScanned:  3,
		FilesMigrated: 3,
		Collisions:    1,
	})

	if !strings.Contains(buf.String(), "(1 collision renames)") {
		t.Errorf("summary missing collision count: %q", buf.String())
	}
}

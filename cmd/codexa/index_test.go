package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/hasan-ozdemir/codexa/internal/catalog"
)

func TestParseIndexFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
		check   func(t *testing.T, cfg IndexConfig)
	}{
		{
			name: "defaults",
			args: []string{},
			check: func(t *testing.T, cfg IndexConfig) {
				t.Helper()
				if cfg.Root != "" || cfg.DBPath != "" || cfg.List {
					t.Errorf("unexpected defaults: %+v", cfg)
				}
				if cfg.Limit != 20 {
					t.Errorf("Limit = %d, want 20", cfg.Limit)
				}
			},
		},
		{
			name: "list with filter",
			args: []string{"-list", "-cwd", "myapp", "-limit", "5"},
			check: func(t *testing.T, cfg IndexConfig) {
				t.Helper()
				if !cfg.List {
					t.Error("List should be true")
				}
				if cfg.Cwd != "myapp" {
					t.Errorf("Cwd = %q", cfg.Cwd)
				}
				if cfg.Limit != 5 {
					t.Errorf("Limit = %d", cfg.Limit)
				}
			},
		},
		{
			name: "explicit db path",
			args: []string{"-db", "/tmp/cat.db"},
			check: func(t *testing.T, cfg IndexConfig) {
				t.Helper()
				if cfg.DBPath != "/tmp/cat.db" {
					t.Errorf("DBPath = %q", cfg.DBPath)
				}
			},
		},
		{
			name:    "cwd without list",
			args:    []string{"-cwd", "myapp"},
			wantErr: "-cwd requires -list",
		},
		{
			name:    "negative limit",
			args:    []string{"-list", "-limit", "-2"},
			wantErr: "limit must be >= 0",
		},
		{
			name:    "unknown flag",
			args:    []string{"--bogus"},
			wantErr: "flag provided but not defined",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := parseIndexFlags(tt.args)
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

func TestWriteSessionList(t *testing.T) {
	sessions := []catalog.Session{
		{
			ID:          "0195fffa-aaaa-7aaa-8aaa-000000000001",
			StartedAt:   "2025-01-03T10:00:00.000Z",
			RecordCount: 12,
			Cwd:         "/home/alice/proj",
		},
		{
			ID:          "short",
			StartedAt:   "2025-01-02",
			RecordCount: 3,
			Cwd:         "/home/alice/other",
		},
	}

	var buf bytes.Buffer
	writeSessionList(&buf, sessions)
	out := buf.String()

	if !strings.Contains(out, "Found 2 sessions") {
		t.Errorf("output missing header: %q", out)
	}
	if !strings.Contains(out, "0195fffa") {
		t.Errorf("output missing truncated id: %q", out)
	}
	if strings.Contains(out, "0195fffa-aaaa") {
		t.Errorf("id should be truncated to 8 chars: %q", out)
	}
	if !strings.Contains(out, "2025-01-03T10:00:00") {
		t.Errorf("output missing trimmed timestamp: %q", out)
	}
	if !strings.Contains(out, "/home/alice/proj") {
		t.Errorf("output missing cwd: %q", out)
	}
}

func TestWriteSessionListEmpty(t *testing.T) {
	var buf bytes.Buffer
	writeSessionList(&buf, nil)
	if buf.String() != "No sessions indexed.\n" {
		t.Errorf("output = %q", buf.String())
	}
}

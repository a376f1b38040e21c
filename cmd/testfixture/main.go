// Command testfixture writes a demo sessions tree in the legacy
// layout, with a mix of single-project, multi-project, and orphan
// files, for exercising the normalize, repair, and index commands by
// hand.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/hasan-ozdemir/codexa/internal/rollout"
	"github.com/hasan-ozdemir/codexa/internal/testjsonl"
)

type fileSpec struct {
	day      string   // YYYY/MM/DD below the root
	label    string   // progress line tag
	projects []string // cwd sequence; more than one makes the file mixed
	msgCount int
}

var specs = []fileSpec{
	{"2025/01/15", "alpha-small", []string{"/work/project-alpha"}, 4},
	{"2025/01/15", "alpha-beta-mixed", []string{"/work/project-alpha", "/work/project-beta"}, 8},
	{"2025/01/16", "beta-medium", []string{"/work/project-beta"}, 24},
	{"2025/01/16", "three-way-mixed", []string{"/work/project-alpha", "/work/project-beta", "/home/notes"}, 12},
	{"2025/01/17", "orphan-records", nil, 3},
	{"2025/01/17", "gamma-large", []string{"/work/project-gamma"}, 200},
}

func main() {
	out := flag.String("out", "", "output sessions root")
	flag.Parse()
	if *out == "" {
		fmt.Fprintln(os.Stderr, "usage: testfixture -out <dir>")
		os.Exit(1)
	}

	if _, err := os.Stat(*out); err == nil {
		log.Fatalf("output %s already exists; remove it first", *out)
	}

	base := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

	for i, spec := range specs {
		path, err := createSessionFile(*out, spec, i, base)
		if err != nil {
			log.Fatalf("creating fixture %s: %v", spec.label, err)
		}
		fmt.Printf(
			"  %s: %d records across %d projects\n",
			filepath.Base(path), spec.msgCount, len(spec.projects),
		)
	}

	fmt.Printf("Fixture tree written to %s\n", *out)
	fmt.Printf("Try: codexa normalize -root %s\n", *out)
}

func createSessionFile(
	root string, spec fileSpec,
	index int, base time.Time,
) (string, error) {
	start := base.Add(time.Duration(index) * time.Hour)
	id := rollout.NewConversationID()
	name := rollout.Filename(
		start.UTC().Format(rollout.FilenameTimestampLayout), id,
	)

	dir := filepath.Join(root, filepath.FromSlash(spec.day))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}

	recordTS := func(i int) string {
		return start.Add(
			time.Duration(i) * time.Minute,
		).UTC().Format(time.RFC3339Nano)
	}

	b := testjsonl.NewSessionBuilder()
	stride := spec.msgCount
	if len(spec.projects) > 0 {
		b.AddMetaLine(id, spec.projects[0], recordTS(0))
		stride = spec.msgCount / len(spec.projects)
		if stride == 0 {
			stride = 1
		}
	}

	for i := range spec.msgCount {
		if len(spec.projects) > 1 && i > 0 && i%stride == 0 {
			next := spec.projects[(i/stride)%len(spec.projects)]
			b.AddTurnContext(recordTS(i), next)
		}
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		b.AddMessage(recordTS(i), role, generateText(role, i, spec.msgCount))
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

func generateText(role string, idx, total int) string {
	if role == "user" {
		return fmt.Sprintf(
			"User message %d of %d. "+
				"Please take a look at this part of the project.",
			idx, total,
		)
	}
	return fmt.Sprintf(
		"Assistant response %d of %d. "+
			"Done; the change is in place and the checks pass.",
		idx, total,
	)
}

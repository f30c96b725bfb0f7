package internal

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/GarciaKevinFab/SISTEMA-ACADEMICO-sub002/internal/config"
	"github.com/GarciaKevinFab/SISTEMA-ACADEMICO-sub002/internal/gate"
	"github.com/GarciaKevinFab/SISTEMA-ACADEMICO-sub002/internal/render"
	"github.com/GarciaKevinFab/SISTEMA-ACADEMICO-sub002/internal/scan"
	"github.com/GarciaKevinFab/SISTEMA-ACADEMICO-sub002/internal/schema"
	"github.com/GarciaKevinFab/SISTEMA-ACADEMICO-sub002/internal/source"
)

func projectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Dir(filepath.Dir(filename))
}

type goldenFinding struct {
	File     string        `json:"file"`
	Line     int           `json:"line"`
	Column   int           `json:"column"`
	Method   string        `json:"method"`
	Severity scan.Severity `json:"severity"`
}

func TestGoldenFixtureRepo(t *testing.T) {
	root := filepath.Join(projectRoot(), "testdata", "repo")

	data, err := os.ReadFile(filepath.Join(projectRoot(), "testdata", "golden", "findings.json"))
	if err != nil {
		t.Fatalf("failed to read golden file: %v", err)
	}
	var want []goldenFinding
	if err := json.Unmarshal(data, &want); err != nil {
		t.Fatalf("failed to parse golden JSON: %v", err)
	}

	cfg, err := config.LoadBuiltin(config.DefaultProfile)
	if err != nil {
		t.Fatal(err)
	}
	sel, err := source.All(context.Background(), root, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(sel.Paths) != 3 {
		t.Errorf("selected %d files, want 3 (mongosafe excluded, README skipped): %v", len(sel.Paths), sel.Paths)
	}

	reports, err := scan.New(cfg.ScanConfig()).ScanFiles(context.Background(), sel.Paths, 2)
	if err != nil {
		t.Fatal(err)
	}
	for i := range reports {
		reports[i].Path = source.Rel(root, reports[i].Path)
	}
	summary := gate.Summarize(reports)

	var got []goldenFinding
	for _, r := range summary.Files {
		for _, f := range r.Findings {
			got = append(got, goldenFinding{File: r.Path, Line: f.Line, Column: f.Column, Method: f.Method, Severity: f.Severity})
		}
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("findings mismatch (-want +got):\n%s", diff)
	}

	if summary.Errors != 2 || summary.Warnings != 1 || !summary.Blocked() {
		t.Errorf("summary = %d errors, %d warnings", summary.Errors, summary.Warnings)
	}

	out, err := render.JSON(&summary, "golden")
	if err != nil {
		t.Fatal(err)
	}
	violations, err := schema.Validate(schema.Report, out)
	if err != nil {
		t.Fatal(err)
	}
	if len(violations) > 0 {
		t.Errorf("golden report violates schema: %v", violations)
	}
}

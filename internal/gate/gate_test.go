package gate

import (
	"testing"

	"github.com/GarciaKevinFab/SISTEMA-ACADEMICO-sub002/internal/scan"
)

func report(path string, sevs ...scan.Severity) scan.FileReport {
	r := scan.FileReport{Path: path, Findings: []scan.Finding{}}
	for i, s := range sevs {
		r.Findings = append(r.Findings, scan.Finding{File: path, Line: i + 1, Column: 1, Severity: s, Method: "UpdateOne"})
	}
	return r
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name         string
		reports      []scan.FileReport
		wantErrors   int
		wantWarnings int
		wantExit     int
	}{
		{"empty", nil, 0, 0, ExitPass},
		{"clean files", []scan.FileReport{report("a.go"), report("b.py")}, 0, 0, ExitPass},
		{"warnings only", []scan.FileReport{report("a.go", scan.SeverityWarning, scan.SeverityWarning)}, 0, 2, ExitPass},
		{"one clean one dirty", []scan.FileReport{report("clean.go"), report("dirty.go", scan.SeverityError, scan.SeverityError)}, 2, 0, ExitBlocked},
		{"mixed", []scan.FileReport{report("a.go", scan.SeverityError, scan.SeverityWarning), report("b.go", scan.SeverityWarning)}, 1, 2, ExitBlocked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Summarize(tt.reports)
			if s.Errors != tt.wantErrors {
				t.Errorf("Errors = %d, want %d", s.Errors, tt.wantErrors)
			}
			if s.Warnings != tt.wantWarnings {
				t.Errorf("Warnings = %d, want %d", s.Warnings, tt.wantWarnings)
			}
			if s.ExitCode() != tt.wantExit {
				t.Errorf("ExitCode() = %d, want %d", s.ExitCode(), tt.wantExit)
			}
			if s.Blocked() != (tt.wantExit == ExitBlocked) {
				t.Errorf("Blocked() = %v", s.Blocked())
			}
		})
	}
}

func TestSummarizeSortsByPath(t *testing.T) {
	in := []scan.FileReport{report("z.go"), report("a.go"), report("m.py")}
	s := Summarize(in)
	want := []string{"a.go", "m.py", "z.go"}
	for i, r := range s.Files {
		if r.Path != want[i] {
			t.Errorf("Files[%d].Path = %q, want %q", i, r.Path, want[i])
		}
	}
	if in[0].Path != "z.go" {
		t.Error("Summarize must not reorder its input")
	}
}

func TestMergeOrderIndependent(t *testing.T) {
	a := Summarize([]scan.FileReport{report("b.go", scan.SeverityError)})
	b := Summarize([]scan.FileReport{report("a.go", scan.SeverityWarning), report("c.go")})

	ab := Merge(a, b)
	ba := Merge(b, a)
	if ab.Errors != 1 || ab.Warnings != 1 || len(ab.Files) != 3 {
		t.Fatalf("unexpected merge: %+v", ab)
	}
	for i := range ab.Files {
		if ab.Files[i].Path != ba.Files[i].Path {
			t.Errorf("Files[%d]: %q vs %q", i, ab.Files[i].Path, ba.Files[i].Path)
		}
	}
}

func TestFilesWithFindings(t *testing.T) {
	s := Summarize([]scan.FileReport{report("a.go"), report("b.go", scan.SeverityWarning)})
	got := s.FilesWithFindings()
	if len(got) != 1 || got[0].Path != "b.go" {
		t.Errorf("FilesWithFindings() = %+v", got)
	}
}

// Package gate aggregates per-file scan reports into a pass/fail decision.
package gate

import (
	"sort"

	"github.com/GarciaKevinFab/SISTEMA-ACADEMICO-sub002/internal/scan"
)

// Exit codes returned by the gate.
const (
	ExitPass    = 0
	ExitBlocked = 1
)

// Summary holds the totals for one scan invocation.
type Summary struct {
	Errors   int               `json:"errors"`
	Warnings int               `json:"warnings"`
	Files    []scan.FileReport `json:"files"`
}

// Summarize counts findings across reports. Reports are sorted by path so
// the result does not depend on scan order.
func Summarize(reports []scan.FileReport) Summary {
	files := make([]scan.FileReport, len(reports))
	copy(files, reports)
	sort.SliceStable(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	s := Summary{Files: files}
	for _, r := range files {
		s.Errors += r.Count(scan.SeverityError)
		s.Warnings += r.Count(scan.SeverityWarning)
	}
	return s
}

// Merge combines summaries computed independently, e.g. per directory.
func Merge(parts ...Summary) Summary {
	var reports []scan.FileReport
	for _, p := range parts {
		reports = append(reports, p.Files...)
	}
	return Summarize(reports)
}

// Blocked reports whether the gate fails. Warnings never block.
func (s Summary) Blocked() bool {
	return s.Errors > 0
}

// ExitCode maps the decision to a process exit status.
func (s Summary) ExitCode() int {
	if s.Blocked() {
		return ExitBlocked
	}
	return ExitPass
}

// FilesWithFindings returns the reports that have at least one finding.
func (s Summary) FilesWithFindings() []scan.FileReport {
	var out []scan.FileReport
	for _, r := range s.Files {
		if len(r.Findings) > 0 {
			out = append(out, r)
		}
	}
	return out
}

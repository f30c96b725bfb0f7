// Package render produces human- and machine-readable reports from a gate summary.
package render

import (
	"fmt"
	"strings"

	"github.com/GarciaKevinFab/SISTEMA-ACADEMICO-sub002/internal/gate"
	"github.com/GarciaKevinFab/SISTEMA-ACADEMICO-sub002/internal/scan"
)

// Markdown renders a summary as a Markdown report, grouping findings by file.
func Markdown(s *gate.Summary) string {
	var b strings.Builder

	b.WriteString("# Mutation Guard Report\n\n")
	fmt.Fprintf(&b, "**Status:** %s\n", status(s))
	fmt.Fprintf(&b, "**Findings:** %d errors, %d warnings in %d files scanned\n\n",
		s.Errors, s.Warnings, len(s.Files))

	files := s.FilesWithFindings()
	if len(files) == 0 {
		b.WriteString("No issues found.\n")
		return b.String()
	}

	for _, r := range files {
		fmt.Fprintf(&b, "## %s\n\n", r.Path)
		for _, f := range r.Findings {
			renderFinding(&b, r, f)
		}
	}
	return b.String()
}

func renderFinding(b *strings.Builder, r scan.FileReport, f scan.Finding) {
	fmt.Fprintf(b, "### L%d:%d %s [%s]\n\n", f.Line, f.Column, f.Method, f.Severity)
	fmt.Fprintf(b, "%s\n\n", f.Message)
	if line := strings.TrimSpace(r.LineText(f.Line)); line != "" {
		fmt.Fprintf(b, "> %s\n\n", line)
	}
	if f.Suggestion != "" {
		fmt.Fprintf(b, "**Suggested fix:** `%s`\n\n", f.Suggestion)
	}
}

func status(s *gate.Summary) string {
	if s.Blocked() {
		return "BLOCKED"
	}
	return "PASS"
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/GarciaKevinFab/SISTEMA-ACADEMICO-sub002/internal/gate"
	"github.com/GarciaKevinFab/SISTEMA-ACADEMICO-sub002/internal/scan"
)

// TextOptions configures Text output.
type TextOptions struct {
	Color bool
}

type palette struct {
	err, warn, path, dim, ok *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:  color.New(color.FgRed, color.Bold),
		warn: color.New(color.FgYellow, color.Bold),
		path: color.New(color.Bold),
		dim:  color.New(color.Faint),
		ok:   color.New(color.FgGreen, color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.path, p.dim, p.ok} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Text writes the plain-text report used on terminals and in commit hooks.
func Text(w io.Writer, s *gate.Summary, opts TextOptions) error {
	p := newPalette(opts.Color)
	var b strings.Builder

	for _, r := range s.FilesWithFindings() {
		b.WriteString(p.path.Sprint(r.Path))
		b.WriteString("\n")
		for _, f := range r.Findings {
			sev := p.warn.Sprintf("%-7s", f.Severity)
			if f.Severity == scan.SeverityError {
				sev = p.err.Sprintf("%-7s", f.Severity)
			}
			fmt.Fprintf(&b, "  %d:%d  %s  %s: %s\n", f.Line, f.Column, sev, f.Method, f.Message)
			if line := strings.TrimSpace(r.LineText(f.Line)); line != "" {
				b.WriteString(p.dim.Sprintf("        > %s", line))
				b.WriteString("\n")
			}
			if f.Suggestion != "" {
				fmt.Fprintf(&b, "        fix: %s\n", f.Suggestion)
			}
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "%s, %s in %s\n",
		plural(s.Errors, "error"), plural(s.Warnings, "warning"), plural(len(s.Files), "file"))
	if s.Blocked() {
		b.WriteString(p.err.Sprint("BLOCKED: fix ERROR findings before committing"))
	} else {
		b.WriteString(p.ok.Sprint("PASS"))
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

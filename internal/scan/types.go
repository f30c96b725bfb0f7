// Package scan finds document-database mutation call sites that bypass the
// safe wrappers.
package scan

// Severity indicates whether a finding blocks the gate.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityError, SeverityWarning:
		return true
	}
	return false
}

// Language identifies the parser used for a file.
type Language string

const (
	LanguageGo     Language = "go"
	LanguagePython Language = "python"
)

// Method names used for findings that are not tied to a call.
const (
	MethodSyntax = "syntax"
	MethodIO     = "io"
)

// Finding is a single violation at a call site.
type Finding struct {
	File       string   `json:"file"`
	Line       int      `json:"line"`
	Column     int      `json:"column"`
	Method     string   `json:"method"`
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// FileReport holds the findings for one scanned file.
type FileReport struct {
	Path        string    `json:"path"`
	Language    Language  `json:"language,omitempty"`
	ImportsSafe bool      `json:"imports_safe"`
	Findings    []Finding `json:"findings"`

	lines []string
}

// Count returns the number of findings with the given severity.
func (r FileReport) Count(sev Severity) int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == sev {
			n++
		}
	}
	return n
}

// LineText returns the 1-based source line, or "" when unavailable.
func (r FileReport) LineText(line int) string {
	if line < 1 || line > len(r.lines) {
		return ""
	}
	return r.lines[line-1]
}

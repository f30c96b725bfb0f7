package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/GarciaKevinFab/SISTEMA-ACADEMICO-sub002/internal/gate"
	"github.com/GarciaKevinFab/SISTEMA-ACADEMICO-sub002/internal/scan"
)

const sarifSchema = "https://json.schemastore.org/sarif-2.1.0.json"

type sarifDocument struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	ShortDescription sarifMessage `json:"shortDescription"`
}

type sarifResult struct {
	RuleID  string          `json:"ruleId"`
	Level   string          `json:"level"`
	Message sarifMessage    `json:"message"`
	Locs    []sarifLocation `json:"locations"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysical `json:"physicalLocation"`
}

type sarifPhysical struct {
	ArtifactLocation sarifArtifact `json:"artifactLocation"`
	Region           sarifRegion   `json:"region"`
}

type sarifArtifact struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn"`
}

// Rule IDs reported in SARIF output.
const (
	RuleDirectCall    = "direct-mutation-call"
	RuleWrapperImport = "wrapper-import"
	RuleSyntax        = "parse-error"
)

var sarifRules = []sarifRule{
	{ID: RuleDirectCall, ShortDescription: sarifMessage{Text: "Direct call to an unsafe update primitive"}},
	{ID: RuleWrapperImport, ShortDescription: sarifMessage{Text: "Safe wrapper used without the required import"}},
	{ID: RuleSyntax, ShortDescription: sarifMessage{Text: "Source file could not be read or parsed"}},
}

// SARIF renders a summary as a SARIF 2.1.0 log for code-scanning uploads.
func SARIF(s *gate.Summary, version string) ([]byte, error) {
	results := []sarifResult{}
	for _, r := range s.Files {
		for _, f := range r.Findings {
			text := f.Message
			if f.Suggestion != "" {
				text += " Suggested fix: " + f.Suggestion
			}
			results = append(results, sarifResult{
				RuleID:  ruleID(f),
				Level:   sarifLevel(f.Severity),
				Message: sarifMessage{Text: text},
				Locs: []sarifLocation{{PhysicalLocation: sarifPhysical{
					ArtifactLocation: sarifArtifact{URI: r.Path},
					Region:           sarifRegion{StartLine: max(f.Line, 1), StartColumn: max(f.Column, 1)},
				}}},
			})
		}
	}

	doc := sarifDocument{
		Schema:  sarifSchema,
		Version: "2.1.0",
		Runs: []sarifRun{{
			Tool:    sarifTool{Driver: sarifDriver{Name: "mutationguard", Version: version, Rules: sarifRules}},
			Results: results,
		}},
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render.SARIF: %w", err)
	}
	return append(data, '\n'), nil
}

func ruleID(f scan.Finding) string {
	switch {
	case f.Method == scan.MethodSyntax || f.Method == scan.MethodIO:
		return RuleSyntax
	case f.Severity == scan.SeverityWarning || isWrapperFinding(f):
		return RuleWrapperImport
	default:
		return RuleDirectCall
	}
}

// isWrapperFinding distinguishes missing-import errors from direct calls.
func isWrapperFinding(f scan.Finding) bool {
	return strings.HasPrefix(f.Suggestion, "import ") || strings.HasPrefix(f.Suggestion, "from ")
}

func sarifLevel(sev scan.Severity) string {
	if sev == scan.SeverityError {
		return "error"
	}
	return "warning"
}

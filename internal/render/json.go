package render

import (
	"encoding/json"
	"fmt"

	"github.com/GarciaKevinFab/SISTEMA-ACADEMICO-sub002/internal/gate"
	"github.com/GarciaKevinFab/SISTEMA-ACADEMICO-sub002/internal/scan"
)

// Report is the JSON document written by --format json.
type Report struct {
	Tool     string            `json:"tool"`
	Version  string            `json:"version"`
	Status   string            `json:"status"`
	Errors   int               `json:"errors"`
	Warnings int               `json:"warnings"`
	Files    []scan.FileReport `json:"files"`
}

// JSON renders a summary as an indented JSON report.
func JSON(s *gate.Summary, version string) ([]byte, error) {
	files := s.Files
	if files == nil {
		files = []scan.FileReport{}
	}
	r := Report{
		Tool:     "mutationguard",
		Version:  version,
		Status:   status(s),
		Errors:   s.Errors,
		Warnings: s.Warnings,
		Files:    files,
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render.JSON: %w", err)
	}
	return append(data, '\n'), nil
}

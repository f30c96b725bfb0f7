package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Rules describe the wrappers module of one language and the unsafe
// primitives each wrapper replaces.
type Rules struct {
	// Module is the wrappers import path (Go) or dotted module name (Python).
	Module string
	// Wrappers maps an unsafe primitive name to its safe wrapper name.
	Wrappers map[string]string
}

func (r Rules) isUnsafe(name string) bool {
	_, ok := r.Wrappers[name]
	return ok
}

func (r Rules) isWrapper(name string) bool {
	for _, w := range r.Wrappers {
		if w == name {
			return true
		}
	}
	return false
}

// Config selects the rules applied per language.
type Config struct {
	Go     Rules
	Python Rules
}

// DefaultConfig returns the rules for this repository's Go wrappers and the
// legacy Python service's wrappers module.
func DefaultConfig() Config {
	return Config{
		Go: Rules{
			Module: "github.com/GarciaKevinFab/SISTEMA-ACADEMICO-sub002/internal/mongosafe",
			Wrappers: map[string]string{
				"UpdateOne":        "SafeUpdateOne",
				"UpdateMany":       "SafeUpdateMany",
				"FindOneAndUpdate": "SafeFindOneAndUpdate",
			},
		},
		Python: Rules{
			Module: "app.utils.safe_mongo",
			Wrappers: map[string]string{
				"update_one":          "safe_update_one",
				"update_many":         "safe_update_many",
				"find_one_and_update": "safe_find_one_and_update",
			},
		},
	}
}

// LanguageOf returns the language scanned for path, if any.
func LanguageOf(path string) (Language, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		return LanguageGo, true
	case ".py", ".pyw":
		return LanguagePython, true
	}
	return "", false
}

// Scanner scans source files. It holds no mutable state and is safe for
// concurrent use.
type Scanner struct {
	cfg Config
}

// New returns a Scanner applying cfg.
func New(cfg Config) *Scanner {
	return &Scanner{cfg: cfg}
}

// ScanFile reads and scans path. A read failure is reported as a single
// ERROR finding rather than an error so other files can continue.
func (s *Scanner) ScanFile(path string) FileReport {
	src, err := os.ReadFile(path)
	if err != nil {
		lang, _ := LanguageOf(path)
		return FileReport{
			Path:     path,
			Language: lang,
			Findings: []Finding{{
				File:     path,
				Line:     1,
				Column:   1,
				Method:   MethodIO,
				Severity: SeverityError,
				Message:  fmt.Sprintf("cannot read file: %v", err),
			}},
		}
	}
	return s.ScanSource(path, src)
}

// ScanSource scans src as the contents of path. Files in unsupported
// languages produce an empty report.
func (s *Scanner) ScanSource(path string, src []byte) FileReport {
	lang, _ := LanguageOf(path)
	rep := FileReport{
		Path:     path,
		Language: lang,
		lines:    strings.Split(string(src), "\n"),
	}

	switch lang {
	case LanguageGo:
		scanGo(&rep, src, s.cfg.Go)
	case LanguagePython:
		scanPython(&rep, src, s.cfg.Python)
	}
	if rep.Findings == nil {
		rep.Findings = []Finding{}
	}
	SortFindings(rep.Findings)
	return rep
}

// ScanFiles scans paths in parallel with at most jobs goroutines (GOMAXPROCS
// when jobs <= 0). Reports are returned sorted by path.
func (s *Scanner) ScanFiles(ctx context.Context, paths []string, jobs int) ([]FileReport, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	reports := make([]FileReport, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			reports[i] = s.ScanFile(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(reports, func(i, j int) bool { return reports[i].Path < reports[j].Path })
	return reports, nil
}

func addFinding(rep *FileReport, line, col int, method string, sev Severity, msg, suggestion string) {
	rep.Findings = append(rep.Findings, Finding{
		File:       rep.Path,
		Line:       line,
		Column:     col,
		Method:     method,
		Severity:   sev,
		Message:    msg,
		Suggestion: suggestion,
	})
}

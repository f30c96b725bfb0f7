package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GarciaKevinFab/SISTEMA-ACADEMICO-sub002/internal/config"
	"github.com/GarciaKevinFab/SISTEMA-ACADEMICO-sub002/internal/gate"
	"github.com/GarciaKevinFab/SISTEMA-ACADEMICO-sub002/internal/render"
	"github.com/GarciaKevinFab/SISTEMA-ACADEMICO-sub002/internal/scan"
	"github.com/GarciaKevinFab/SISTEMA-ACADEMICO-sub002/internal/source"
)

type checkFlags struct {
	all         bool
	staged      bool
	root        string
	format      string
	out         string
	configPath  string
	profileName string
	jobs        int
	noColor     bool
}

func newCheckCmd() *cobra.Command {
	f := &checkFlags{}

	cmd := &cobra.Command{
		Use:   "check [files...]",
		Short: "Scan files for unsafe document updates and gate on the result",
		Long: `Scan Go and Python sources for direct calls to update primitives and for
safe wrappers used without their import. Exits 1 when any ERROR finding
exists, 3 on configuration or I/O failures.

With no files and no mode flag, the files staged in git are scanned; when git
is unavailable every supported file under --root is scanned instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), args, f, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&f.all, "all", false, "Scan every supported file under --root")
	flags.BoolVar(&f.staged, "staged", false, "Scan the files staged in git")
	flags.StringVar(&f.root, "root", ".", "Repository root")
	flags.StringVar(&f.format, "format", "text", "Output format: text, md, json or sarif")
	flags.StringVar(&f.out, "out", "", "Output file path (default: stdout)")
	flags.StringVar(&f.configPath, "config", "", "Config file (default: .mutationguard.yaml or .toml in --root)")
	flags.StringVar(&f.profileName, "profile", config.DefaultProfile, "Builtin profile the config is layered on")
	flags.IntVar(&f.jobs, "jobs", 0, "Files scanned in parallel (default: config jobs, else GOMAXPROCS)")
	flags.BoolVar(&f.noColor, "no-color", false, "Disable colors in text output")

	return cmd
}

func runCheck(ctx context.Context, args []string, f *checkFlags, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := zap.L().Named("check")

	if !validFormat(f.format) {
		return exitError(exitConfig, "unknown format: %s", f.format)
	}
	if f.all && f.staged {
		return exitError(exitConfig, "--all and --staged cannot be combined")
	}
	if (f.all || f.staged) && len(args) > 0 {
		return exitError(exitConfig, "file arguments cannot be combined with --all or --staged")
	}

	cfg, err := config.Resolve(f.configPath, f.root, f.profileName)
	if err != nil {
		return exitError(exitConfig, "failed to load config: %v", err)
	}
	log.Debug("config resolved", zap.String("source", cfg.Source), zap.Strings("exclude", cfg.Exclude))

	summary, err := checkOnce(ctx, cfg, args, f)
	if err != nil {
		return err
	}

	output, err := renderSummary(&summary, f.format, useColor(f))
	if err != nil {
		return exitError(exitConfig, "failed to render report: %v", err)
	}
	if f.out != "" {
		log.Debug("writing report", zap.String("path", f.out))
		if err := os.WriteFile(f.out, output, 0o644); err != nil {
			return exitError(exitConfig, "failed to write output: %v", err)
		}
	} else if _, err := stdout.Write(output); err != nil {
		return exitError(exitConfig, "failed to write output: %v", err)
	}

	if summary.Blocked() {
		return exitError(gate.ExitBlocked, "mutation guard: %d blocking finding(s); commit rejected", summary.Errors)
	}
	return nil
}

// checkOnce selects files, scans them and summarizes the result.
func checkOnce(ctx context.Context, cfg *config.Config, args []string, f *checkFlags) (gate.Summary, error) {
	log := zap.L().Named("check")

	sel, err := selectFiles(ctx, cfg, args, f)
	if err != nil {
		return gate.Summary{}, exitError(exitConfig, "failed to select files: %v", err)
	}
	if sel.FellBack {
		log.Info("git index unavailable; scanning all files", zap.String("root", sel.Root))
	}
	log.Debug("files selected", zap.String("mode", string(sel.Mode)), zap.Int("count", len(sel.Paths)))

	jobs := f.jobs
	if jobs <= 0 {
		jobs = cfg.Jobs
	}
	reports, err := scan.New(cfg.ScanConfig()).ScanFiles(ctx, sel.Paths, jobs)
	if err != nil {
		return gate.Summary{}, exitError(exitConfig, "scan failed: %v", err)
	}
	relativize(f.root, reports)

	summary := gate.Summarize(reports)
	log.Debug("gate evaluated",
		zap.Int("files", len(summary.Files)),
		zap.Int("errors", summary.Errors),
		zap.Int("warnings", summary.Warnings),
		zap.Bool("blocked", summary.Blocked()))
	return summary, nil
}

func selectFiles(ctx context.Context, cfg *config.Config, args []string, f *checkFlags) (*source.Selection, error) {
	switch {
	case len(args) > 0:
		return source.Files(ctx, f.root, args, cfg)
	case f.all:
		return source.All(ctx, f.root, cfg)
	default:
		return source.Staged(ctx, f.root, cfg)
	}
}

// relativize rewrites report paths relative to root so output does not
// depend on where the tool was started.
func relativize(root string, reports []scan.FileReport) {
	for i := range reports {
		rel := source.Rel(root, reports[i].Path)
		reports[i].Path = rel
		for j := range reports[i].Findings {
			reports[i].Findings[j].File = rel
		}
	}
}

// useColor reports whether text output goes to a terminal with colors enabled.
func useColor(f *checkFlags) bool {
	return f.out == "" && !f.noColor && !color.NoColor
}

func validFormat(format string) bool {
	switch format {
	case "text", "md", "json", "sarif":
		return true
	}
	return false
}

func renderSummary(s *gate.Summary, format string, useColor bool) ([]byte, error) {
	switch format {
	case "md":
		return []byte(render.Markdown(s)), nil
	case "json":
		return render.JSON(s, version)
	case "sarif":
		return render.SARIF(s, version)
	default:
		var buf bytes.Buffer
		if err := render.Text(&buf, s, render.TextOptions{Color: useColor}); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
}

func absRoot(root string) string {
	if abs, err := filepath.Abs(root); err == nil {
		return abs
	}
	return root
}

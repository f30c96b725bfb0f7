package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GarciaKevinFab/SISTEMA-ACADEMICO-sub002/internal/config"
)

type watchFlags struct {
	check    checkFlags
	debounce time.Duration
}

func newWatchCmd() *cobra.Command {
	f := &watchFlags{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run the gate on changed files until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, f, cmd.OutOrStdout(), nil)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.check.root, "root", ".", "Repository root")
	flags.StringVar(&f.check.configPath, "config", "", "Config file (default: .mutationguard.yaml or .toml in --root)")
	flags.StringVar(&f.check.profileName, "profile", config.DefaultProfile, "Builtin profile the config is layered on")
	flags.IntVar(&f.check.jobs, "jobs", 0, "Files scanned in parallel")
	flags.BoolVar(&f.check.noColor, "no-color", false, "Disable colors")
	flags.DurationVar(&f.debounce, "debounce", 300*time.Millisecond, "Quiet period before re-running")

	return cmd
}

// runWatch scans the whole root once, then rescans changed files after each
// quiet period. ready, when non-nil, is closed once the watcher is armed.
func runWatch(ctx context.Context, f *watchFlags, out io.Writer, ready chan<- struct{}) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := zap.L().Named("watch")
	f.check.format = "text"
	root := absRoot(f.check.root)
	f.check.root = root

	cfg, err := config.Resolve(f.check.configPath, root, f.check.profileName)
	if err != nil {
		return exitError(exitConfig, "failed to load config: %v", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return exitError(exitConfig, "watch init failed: %v", err)
	}
	defer watcher.Close()

	if err := addWatchRecursive(watcher, root); err != nil {
		return exitError(exitConfig, "watch failed: %v", err)
	}

	report := func(args []string) {
		full := *f
		full.check.all = len(args) == 0
		summary, err := checkOnce(ctx, cfg, args, &full.check)
		if err != nil {
			log.Error("check failed", zap.Error(err))
			return
		}
		output, err := renderSummary(&summary, "text", useColor(&f.check))
		if err != nil {
			log.Error("render failed", zap.Error(err))
			return
		}
		_, _ = out.Write(output)
	}

	report(nil)
	log.Info("watching for changes", zap.String("root", root))
	if ready != nil {
		close(ready)
	}

	pending := map[string]bool{}
	fire := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if st, err := os.Stat(ev.Name); err == nil && st.IsDir() {
					if err := addWatchRecursive(watcher, ev.Name); err != nil {
						log.Warn("cannot watch directory", zap.String("dir", ev.Name), zap.Error(err))
					}
					continue
				}
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if !cfg.Accepts(ev.Name) {
				continue
			}
			pending[ev.Name] = true
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(f.debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case <-fire:
			changed := make([]string, 0, len(pending))
			for p := range pending {
				if _, err := os.Stat(p); err == nil {
					changed = append(changed, p)
				}
			}
			sort.Strings(changed)
			pending = map[string]bool{}
			if len(changed) == 0 {
				continue
			}
			log.Debug("rescanning", zap.Strings("files", changed))
			fmt.Fprintf(out, "--- %s: %d changed file(s)\n", time.Now().Format(time.TimeOnly), len(changed))
			report(changed)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", zap.Error(err))
		}
	}
}

func addWatchRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if p != root && (strings.HasPrefix(name, ".") || name == "vendor" || name == "node_modules" || name == "__pycache__") {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}

// Package source selects the files a gate run scans: explicit paths, every
// supported file under a root, or the files staged in git.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// Mode names how a selection was made.
type Mode string

const (
	ModeFiles  Mode = "files"
	ModeAll    Mode = "all"
	ModeStaged Mode = "staged"
)

// Filter decides which root-relative paths are scanned.
type Filter interface {
	Accepts(path string) bool
	Excluded(rel string) bool
}

// Selection is the set of files chosen for one run.
type Selection struct {
	Root  string
	Mode  Mode
	Paths []string
	// FellBack is set when a staged selection could not query git and walked
	// the root instead.
	FellBack bool
}

// skipDirs are never descended into.
var skipDirs = map[string]bool{
	"vendor":       true,
	"node_modules": true,
	"testdata":     true,
	"__pycache__":  true,
}

// Files selects explicit paths. Directories are expanded as in All. Files
// that do not exist are kept so the scanner can report them.
func Files(ctx context.Context, root string, args []string, f Filter) (*Selection, error) {
	sel := &Selection{Root: root, Mode: ModeFiles}
	seen := map[string]bool{}
	for _, a := range args {
		p := a
		if !filepath.IsAbs(p) {
			p = filepath.Join(root, p)
		}
		if st, err := os.Stat(p); err == nil && st.IsDir() {
			paths, err := walk(ctx, root, p, f)
			if err != nil {
				return nil, err
			}
			for _, w := range paths {
				add(sel, seen, w)
			}
			continue
		}
		if !f.Accepts(p) || f.Excluded(Rel(root, p)) {
			continue
		}
		add(sel, seen, p)
	}
	sort.Strings(sel.Paths)
	return sel, nil
}

// All selects every accepted file under root.
func All(ctx context.Context, root string, f Filter) (*Selection, error) {
	paths, err := walk(ctx, root, root, f)
	if err != nil {
		return nil, err
	}
	return &Selection{Root: root, Mode: ModeAll, Paths: paths}, nil
}

// Staged selects the added, copied, modified and renamed files in the git
// index under root. When git is missing or root is not in a work tree it
// falls back to All.
func Staged(ctx context.Context, root string, f Filter) (*Selection, error) {
	names, err := stagedNames(ctx, root)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		sel, err := All(ctx, root, f)
		if err != nil {
			return nil, err
		}
		sel.FellBack = true
		return sel, nil
	}

	sel := &Selection{Root: root, Mode: ModeStaged}
	seen := map[string]bool{}
	for _, rel := range names {
		if !f.Accepts(rel) || f.Excluded(rel) {
			continue
		}
		add(sel, seen, filepath.Join(root, filepath.FromSlash(rel)))
	}
	sort.Strings(sel.Paths)
	return sel, nil
}

func stagedNames(ctx context.Context, root string) ([]string, error) {
	cmd := exec.CommandContext(ctx, "git", "-C", root, "diff", "--cached",
		"--name-only", "--diff-filter=ACMR", "--relative", "-z")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return nil, fmt.Errorf("source.stagedNames: git: %s", strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("source.stagedNames: %w", err)
	}
	var names []string
	for _, n := range strings.Split(string(out), "\x00") {
		if n != "" {
			names = append(names, n)
		}
	}
	return names, nil
}

func walk(ctx context.Context, root, dir string, f Filter) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if p != dir && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if f.Accepts(p) && !f.Excluded(Rel(root, p)) {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("source.walk: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}

func skipDir(name string) bool {
	return skipDirs[name] || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

func add(sel *Selection, seen map[string]bool, p string) {
	if seen[p] {
		return
	}
	seen[p] = true
	sel.Paths = append(sel.Paths, p)
}

// Rel returns p relative to root in slash form, or p itself when it lies
// outside root.
func Rel(root, p string) string {
	rel, err := filepath.Rel(root, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}

package scan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLanguageOf(t *testing.T) {
	tests := []struct {
		path string
		want Language
		ok   bool
	}{
		{"a/b.go", LanguageGo, true},
		{"a/b.py", LanguagePython, true},
		{"a/B.PY", LanguagePython, true},
		{"a/b.pyw", LanguagePython, true},
		{"a/b.ts", "", false},
		{"Makefile", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := LanguageOf(tt.path)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestSeverityValid(t *testing.T) {
	assert.True(t, SeverityError.Valid())
	assert.True(t, SeverityWarning.Valid())
	assert.False(t, Severity("INFO").Valid())
}

func TestScanFileMissing(t *testing.T) {
	rep := New(DefaultConfig()).ScanFile(filepath.Join(t.TempDir(), "gone.go"))
	require.Len(t, rep.Findings, 1)
	assert.Equal(t, MethodIO, rep.Findings[0].Method)
	assert.Equal(t, SeverityError, rep.Findings[0].Severity)
}

func TestScanSourceUnsupported(t *testing.T) {
	rep := New(DefaultConfig()).ScanSource("notes.txt", []byte("coll.UpdateOne(ctx, f, u)"))
	assert.NotNil(t, rep.Findings)
	assert.Empty(t, rep.Findings)
}

func TestLineText(t *testing.T) {
	rep := New(DefaultConfig()).ScanSource("x.go", []byte("package x\n\nfunc f() { c.UpdateOne(ctx, f, u) }\n"))
	require.Len(t, rep.Findings, 1)
	assert.Equal(t, "func f() { c.UpdateOne(ctx, f, u) }", rep.LineText(rep.Findings[0].Line))
	assert.Equal(t, "", rep.LineText(0))
	assert.Equal(t, "", rep.LineText(99))
}

func TestScanFilesSortedByPath(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "z/last.go", "package z\n\nfunc f() { c.UpdateMany(ctx, f, u) }\n"),
		writeFile(t, dir, "a/first.py", "def f(c):\n    c.update_one({}, {})\n"),
		writeFile(t, dir, "m/clean.go", "package m\n"),
	}

	reports, err := New(DefaultConfig()).ScanFiles(context.Background(), paths, 2)
	require.NoError(t, err)
	require.Len(t, reports, 3)
	assert.Equal(t, paths[1], reports[0].Path)
	assert.Equal(t, paths[2], reports[1].Path)
	assert.Equal(t, paths[0], reports[2].Path)
	assert.Equal(t, 1, reports[0].Count(SeverityError))
	assert.Empty(t, reports[1].Findings)
	assert.Equal(t, 1, reports[2].Count(SeverityError))
}

func TestScanFilesIndependentOfOrder(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a.go", "b.go", "c.go", "d.go", "e.go"} {
		paths = append(paths, writeFile(t, dir, name, "package x\n\nfunc f() { c.FindOneAndUpdate(ctx, f, u) }\n"))
	}
	reversed := make([]string, len(paths))
	for i, p := range paths {
		reversed[len(paths)-1-i] = p
	}

	s := New(DefaultConfig())
	first, err := s.ScanFiles(context.Background(), paths, 4)
	require.NoError(t, err)
	second, err := s.ScanFiles(context.Background(), reversed, 1)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestScanFilesCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(DefaultConfig()).ScanFiles(ctx, []string{"a.go"}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanFilesEmpty(t *testing.T) {
	reports, err := New(DefaultConfig()).ScanFiles(context.Background(), nil, 0)
	assert.NoError(t, err)
	assert.Empty(t, reports)
}

package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) handle(path string) {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func (r *recorder) count(suffix string) int {
	n := 0
	for _, p := range r.snapshot() {
		if strings.HasSuffix(p, suffix) {
			n++
		}
	}
	return n
}

func TestWatcher_AddRemoveDirectories(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}

	w := New(nil, rec.handle, WithExtensions(".csv"), WithRecursive(true))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := w.AddDirectory(dir, false); err != nil {
		t.Fatal(err)
	}
	if err := w.AddDirectory(dir, false); err != nil {
		t.Fatal(err)
	}
	dirs := w.Directories()
	if len(dirs) != 1 || filepath.Clean(dirs[0]) != filepath.Clean(dir) {
		t.Errorf("Directories() = %v", dirs)
	}

	if err := w.RemoveDirectory(dir); err != nil {
		t.Fatal(err)
	}
	if len(w.Directories()) != 0 {
		t.Errorf("after remove: %v", w.Directories())
	}
}

func TestWatcher_DebounceAndExtensionFilter(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := mkdirAll(sub); err != nil {
		t.Fatal(err)
	}

	rec := &recorder{}
	w := New([]string{dir}, rec.handle,
		WithExtensions(".csv"),
		WithRecursive(true),
		WithDebounce(100*time.Millisecond),
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	fPath := filepath.Join(sub, "f.csv")
	for i := 0; i < 3; i++ {
		if err := writeFile(fPath, "a,b\n1,2\n"); err != nil {
			t.Fatal(err)
		}
	}
	if err := writeFile(filepath.Join(sub, "notes.md"), "skip"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(600 * time.Millisecond)

	if n := rec.count("f.csv"); n != 1 {
		t.Errorf("expected one debounced call for f.csv, got %d (%v)", n, rec.snapshot())
	}
	if n := rec.count("notes.md"); n != 0 {
		t.Errorf("notes.md should be filtered out, got %v", rec.snapshot())
	}
}

func TestWatcher_excludedOutputDirectory(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "output")
	if err := mkdirAll(out); err != nil {
		t.Fatal(err)
	}

	rec := &recorder{}
	w := New([]string{dir}, rec.handle,
		WithExtensions(".csv"),
		WithRecursive(true),
		WithExclude(out),
		WithDebounce(100*time.Millisecond),
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := writeFile(filepath.Join(out, "converted.csv"), "a\n1\n"); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(dir, "incoming.csv"), "a\n1\n"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(600 * time.Millisecond)

	if n := rec.count("converted.csv"); n != 0 {
		t.Errorf("files in the excluded directory should be ignored, got %v", rec.snapshot())
	}
	if n := rec.count("incoming.csv"); n != 1 {
		t.Errorf("expected incoming.csv once, got %v", rec.snapshot())
	}
}

func TestMatchExtension(t *testing.T) {
	tests := []struct {
		path       string
		extensions []string
		want       bool
	}{
		{"/a/b.csv", []string{".csv"}, true},
		{"/a/b.CSV", []string{"csv"}, true},
		{"/a/b.csv.gz", []string{".csv"}, true},
		{"/a/b.gz", []string{".csv"}, false},
		{"/a/b.md", []string{".csv"}, false},
		{"/a/b", nil, true},
		{"/a/b", []string{}, true},
	}
	for _, tt := range tests {
		got := matchExtension(tt.path, tt.extensions)
		if got != tt.want {
			t.Errorf("matchExtension(%q, %v) = %v, want %v", tt.path, tt.extensions, got, tt.want)
		}
	}
}

func TestInDir(t *testing.T) {
	tests := []struct {
		dir  string
		path string
		want bool
	}{
		{"/tmp/a", "/tmp/a", true},
		{"/tmp/a", "/tmp/a/b.csv", true},
		{"/tmp/a", "/tmp/b", false},
		{"/tmp/a", "/tmp/a/../b", false},
	}
	for _, tt := range tests {
		got := inDir(tt.dir, tt.path)
		if got != tt.want {
			t.Errorf("inDir(%q, %q) = %v, want %v", tt.dir, tt.path, got, tt.want)
		}
	}
}

func TestWatcher_SyncExistingFiles(t *testing.T) {
	dir := t.TempDir()
	if err := writeFile(filepath.Join(dir, "a.csv"), "x\n1\n"); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(dir, "ignore.xyz"), "x"); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(dir, "nested")
	if err := mkdirAll(nested); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(nested, "b.csv"), "x\n1\n"); err != nil {
		t.Fatal(err)
	}

	t.Run("flat", func(t *testing.T) {
		rec := &recorder{}
		w := New([]string{dir}, rec.handle, WithExtensions(".csv"))
		w.SyncExistingFiles()
		got := rec.snapshot()
		if len(got) != 1 || !strings.HasSuffix(got[0], "a.csv") {
			t.Errorf("expected only a.csv, got %v", got)
		}
	})
	t.Run("recursive", func(t *testing.T) {
		rec := &recorder{}
		w := New([]string{dir}, rec.handle, WithExtensions(".csv"), WithRecursive(true))
		w.SyncExistingFiles()
		if got := rec.snapshot(); len(got) != 2 {
			t.Errorf("expected a.csv and nested/b.csv, got %v", got)
		}
	})
}

func TestWatcher_Start_createsMissingRootDirectory(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "watch", "me")

	w := New([]string{root}, nil, WithExtensions(".csv"), WithRecursive(true))
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if _, err := os.Stat(root); err != nil {
		t.Errorf("root directory should exist after Start: %v", err)
	}
}

func TestWatcher_HandleNewDirectory(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}

	w := New([]string{dir}, rec.handle,
		WithExtensions(".csv", ".json"),
		WithRecursive(true),
		WithDebounce(100*time.Millisecond),
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	// a folder with files moved into the inbox in one step
	staging := filepath.Join(t.TempDir(), "batch")
	nested := filepath.Join(staging, "deeper")
	if err := mkdirAll(nested); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(staging, "one.csv"), "a\n1\n"); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(nested, "two.json"), "[]"); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(staging, "ignore.xyz"), "skip"); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(staging, filepath.Join(dir, "batch")); err != nil {
		t.Fatal(err)
	}

	time.Sleep(800 * time.Millisecond)

	if rec.count("one.csv") != 1 || rec.count("two.json") != 1 {
		t.Errorf("expected one.csv and two.json once each, got %v", rec.snapshot())
	}
	if rec.count("ignore.xyz") != 0 {
		t.Errorf("ignore.xyz should not be handled, got %v", rec.snapshot())
	}
}

func TestWatcher_StopWaitsForHandlers(t *testing.T) {
	dir := t.TempDir()
	var mu sync.Mutex
	finished := false
	started := make(chan struct{})
	var once sync.Once
	w := New([]string{dir}, func(string) {
		once.Do(func() { close(started) })
		time.Sleep(200 * time.Millisecond)
		mu.Lock()
		finished = true
		mu.Unlock()
	}, WithDebounce(50*time.Millisecond))
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(dir, "slow.csv"), "a\n1\n"); err != nil {
		t.Fatal(err)
	}
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not called")
	}
	w.Stop()
	mu.Lock()
	defer mu.Unlock()
	if !finished {
		t.Error("Stop returned before the handler finished")
	}
}

func mkdirAll(path string) error {
	return os.MkdirAll(path, 0755)
}

func writeFile(path string, content string) error {
	return os.WriteFile(path, []byte(content), 0600)
}

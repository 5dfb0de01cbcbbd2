package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

const testDebounce = 100 * time.Millisecond

func TestNewWatcher_directoriesDeduplicated(t *testing.T) {
	dir := t.TempDir()
	other := filepath.Join(dir, "other")
	w := NewWatcher([]string{
		filepath.Join(dir, "mk1 calibration.xlsx"),
		filepath.Join(dir, "mk2 calibration.xlsx"),
		filepath.Join(other, "mk3.xlsx"),
	}, nil)
	dirs := w.Directories()
	if len(dirs) != 2 {
		t.Fatalf("Directories() = %v, want 2 entries", dirs)
	}
	if dirs[0] != filepath.Clean(dir) || dirs[1] != filepath.Clean(other) {
		t.Errorf("Directories() = %v", dirs)
	}
}

func TestWatcher_firesOnSourceWrite(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "mk1 calibration.xlsx")
	if err := writeFile(src, "v1"); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	// A nil logger falls back to the no-op default.
	w := NewWatcher([]string{src}, func(context.Context) { calls.Add(1) }, WithDebounce(testDebounce), WithLogger(nil))
	if w.logger == nil {
		t.Fatal("WithLogger(nil) cleared the logger")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := writeFile(src, "v2"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return calls.Load() >= 1 })
}

func TestWatcher_ignoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "mk1 calibration.xlsx")
	if err := writeFile(src, "v1"); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	w := NewWatcher([]string{src}, func(context.Context) { calls.Add(1) }, WithDebounce(testDebounce))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := writeFile(filepath.Join(dir, "combine.csv"), "a,b"); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(dir, "~$mk1 calibration.xlsx"), "lock"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(4 * testDebounce)
	if n := calls.Load(); n != 0 {
		t.Errorf("onChange called %d times for unrelated files", n)
	}
}

func TestWatcher_burstIsDebounced(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "mk1.xlsx")
	b := filepath.Join(dir, "mk2.xlsx")
	for _, p := range []string{a, b} {
		if err := writeFile(p, "v1"); err != nil {
			t.Fatal(err)
		}
	}

	var calls atomic.Int32
	w := NewWatcher([]string{a, b}, func(context.Context) { calls.Add(1) }, WithDebounce(testDebounce))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	for i := 0; i < 5; i++ {
		if err := writeFile(a, "burst"); err != nil {
			t.Fatal(err)
		}
		if err := writeFile(b, "burst"); err != nil {
			t.Fatal(err)
		}
	}
	waitFor(t, func() bool { return calls.Load() >= 1 })
	time.Sleep(4 * testDebounce)
	if n := calls.Load(); n != 1 {
		t.Errorf("onChange called %d times, want 1", n)
	}
}

func TestWatcher_renameOverSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "mk2 calibration.xlsx")
	if err := writeFile(src, "v1"); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	w := NewWatcher([]string{src}, func(context.Context) { calls.Add(1) }, WithDebounce(testDebounce))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	tmp := filepath.Join(dir, ".save.tmp")
	if err := writeFile(tmp, "v2"); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, src); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return calls.Load() >= 1 })
}

func TestWatcher_stopCancelsPending(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "mk1.xlsx")
	if err := writeFile(src, "v1"); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	w := NewWatcher([]string{src}, func(context.Context) { calls.Add(1) }, WithDebounce(300*time.Millisecond))
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(src, "v2"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)
	w.Stop()
	w.Stop()
	time.Sleep(500 * time.Millisecond)
	if n := calls.Load(); n != 0 {
		t.Errorf("onChange called %d times after Stop", n)
	}
}

func TestWatcher_Start_missingDirectory(t *testing.T) {
	src := filepath.Join(t.TempDir(), "gone", "mk1.xlsx")
	w := NewWatcher([]string{src}, nil)
	if err := w.Start(context.Background()); err == nil {
		w.Stop()
		t.Fatal("expected error for missing source directory")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0600)
}

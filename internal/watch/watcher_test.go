package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

type countingReloader struct {
	calls atomic.Int32
}

func (c *countingReloader) Reload(context.Context) (bool, error) {
	c.calls.Add(1)
	return true, nil
}

func startWatcher(t *testing.T, path string, r Reloader) (*Watcher, chan bool) {
	t.Helper()
	w, err := New(path, r, 30*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	reloads := make(chan bool, 16)
	w.SetReloadCallback(func(changed bool, _ error) { reloads <- changed })
	w.Start()
	t.Cleanup(w.Stop)
	return w, reloads
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mind-node-storage.json")
	if err := os.WriteFile(path, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	r := &countingReloader{}
	_, reloads := startWatcher(t, path, r)

	// A burst of writes settles into a single reload.
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte(`{"n":1}`), 0644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case <-reloads:
	case <-time.After(2 * time.Second):
		t.Fatal("no reload after write")
	}
	time.Sleep(100 * time.Millisecond)
	if got := r.calls.Load(); got != 1 {
		t.Errorf("Reload called %d times, want 1", got)
	}
}

func TestWatcher_ReloadsOnAtomicReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	r := &countingReloader{}
	_, reloads := startWatcher(t, path, r)

	tmp := filepath.Join(dir, ".tmp-1")
	if err := os.WriteFile(tmp, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reloads:
	case <-time.After(2 * time.Second):
		t.Fatal("no reload after rename")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	r := &countingReloader{}
	startWatcher(t, path, r)

	if err := os.WriteFile(filepath.Join(dir, "mindnode.log"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(150 * time.Millisecond)
	if got := r.calls.Load(); got != 0 {
		t.Errorf("Reload called %d times for an unrelated file", got)
	}
}

func TestWatcher_MissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope", "state.json"), &countingReloader{}, 0, nil)
	if err == nil {
		t.Error("New() should fail when the directory does not exist")
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "state.json"), &countingReloader{}, 0, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	w.Start()
	w.Stop()
	w.Stop()
}

package blueprint

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type reload struct {
	spec *Spec
	err  error
}

func startWatcher(t *testing.T, path string) (*Watcher, <-chan reload, <-chan error) {
	t.Helper()
	reloads := make(chan reload, 8)
	w, err := NewWatcher(path, func(s *Spec, err error) {
		reloads <- reload{s, err}
	}, WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		_ = w.Close()
	})
	return w, reloads, done
}

func waitReload(t *testing.T, ch <-chan reload) reload {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reload")
		return reload{}
	}
}

func TestWatcher_Reload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "form.yaml")
	if err := os.WriteFile(path, []byte("id: one\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, reloads, _ := startWatcher(t, path)

	if err := os.WriteFile(path, []byte("id: two\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := waitReload(t, reloads)
	for r.err != nil || r.spec.ID != "two" {
		r = waitReload(t, reloads)
	}

	if err := os.WriteFile(path, []byte("id: [broken\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// A save that spans the debounce window reloads more than once.
	for r = waitReload(t, reloads); r.err == nil; r = waitReload(t, reloads) {
	}
	var pe *ParseError
	if !errors.As(r.err, &pe) {
		t.Errorf("broken file reload err = %v", r.err)
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "form.yaml")
	if err := os.WriteFile(path, []byte("id: one\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, reloads, _ := startWatcher(t, path)

	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("id: x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case r := <-reloads:
		t.Errorf("unexpected reload %+v", r)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_Close(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "form.toml")
	if err := os.WriteFile(path, []byte("id = \"one\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	w, _, done := startWatcher(t, path)
	if w.Path() != path {
		t.Errorf("Path() = %q, want %q", w.Path(), path)
	}

	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
	select {
	case err := <-done:
		if !errors.Is(err, ErrWatcherClosed) {
			t.Errorf("Run = %v, want ErrWatcherClosed", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Close")
	}
}

func TestNewWatcher_MissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "form.yaml")
	if _, err := NewWatcher(path, func(*Spec, error) {}); err == nil {
		t.Error("expected error watching a missing directory")
	}
}

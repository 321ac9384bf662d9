package routes

import (
	"context"
	"net/netip"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

// waitForPin polls until the table resolves podID to want or the deadline
// passes.
func waitForPin(t *testing.T, table *Table, podID string, want netip.AddrPort) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if addr, ok := table.Lookup(podID); ok && addr == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	addr, ok := table.Lookup(podID)
	t.Fatalf("pin %q never became %v (got %v, ok=%v)", podID, want, addr, ok)
}

func startWatcher(t *testing.T, table *Table, debounce time.Duration) *Watcher {
	t.Helper()
	watcher, err := NewWatcher(table, debounce)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = watcher.Stop() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = watcher.Watch(ctx) }()

	// Give the fsnotify subscription a moment to attach.
	time.Sleep(100 * time.Millisecond)
	return watcher
}

// TestWatcher_ReloadsOnWrite tests that rewriting the file swaps the table.
func TestWatcher_ReloadsOnWrite(t *testing.T) {
	path := writeRoutesFile(t, "routes:\n  canary: 10.0.9.1:7777\n")
	table := NewTable(path)
	if err := table.Load(); err != nil {
		t.Fatal(err)
	}

	startWatcher(t, table, 50*time.Millisecond)

	if err := os.WriteFile(path, []byte("routes:\n  canary: 10.0.9.2:7777\n"), 0644); err != nil {
		t.Fatal(err)
	}

	waitForPin(t, table, "canary", netip.MustParseAddrPort("10.0.9.2:7777"))
}

// TestWatcher_SurvivesRenameReplace tests the write-temp-then-rename pattern
// editors and config tools use.
func TestWatcher_SurvivesRenameReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "routes.yaml")
	if err := os.WriteFile(path, []byte("routes:\n  canary: 10.0.9.1:7777\n"), 0644); err != nil {
		t.Fatal(err)
	}

	table := NewTable(path)
	if err := table.Load(); err != nil {
		t.Fatal(err)
	}

	startWatcher(t, table, 50*time.Millisecond)

	tmp := filepath.Join(dir, "routes.yaml.tmp")
	if err := os.WriteFile(tmp, []byte("routes:\n  canary: 10.0.9.3:7777\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}

	waitForPin(t, table, "canary", netip.MustParseAddrPort("10.0.9.3:7777"))
}

// TestWatcher_KeepsLastGoodOnBadReload tests that corrupting the file does
// not lose the loaded pins.
func TestWatcher_KeepsLastGoodOnBadReload(t *testing.T) {
	path := writeRoutesFile(t, "routes:\n  canary: 10.0.9.1:7777\n")
	table := NewTable(path)
	if err := table.Load(); err != nil {
		t.Fatal(err)
	}

	startWatcher(t, table, 50*time.Millisecond)

	if err := os.WriteFile(path, []byte("routes:\n  canary: [broken\n"), 0644); err != nil {
		t.Fatal(err)
	}

	// Let the debounced reload attempt run and fail.
	time.Sleep(300 * time.Millisecond)

	addr, ok := table.Lookup("canary")
	if !ok {
		t.Fatal("pin lost after failed reload")
	}
	if want := netip.MustParseAddrPort("10.0.9.1:7777"); addr != want {
		t.Errorf("Lookup(canary) = %v, want last-good %v", addr, want)
	}
}

// TestWatcher_IgnoresSiblingFiles tests that unrelated files in the watched
// directory do not trigger reloads.
func TestWatcher_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "routes.yaml")
	if err := os.WriteFile(path, []byte("routes:\n  canary: 10.0.9.1:7777\n"), 0644); err != nil {
		t.Fatal(err)
	}

	table := NewTable(path)
	if err := table.Load(); err != nil {
		t.Fatal(err)
	}
	loadedAt := table.LoadedAt()

	startWatcher(t, table, 50*time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("noise: true\n"), 0644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(300 * time.Millisecond)

	if !table.LoadedAt().Equal(loadedAt) {
		t.Error("sibling file write triggered a reload")
	}
}

// TestWatcher_DoubleStart tests that a second Watch call fails.
func TestWatcher_DoubleStart(t *testing.T) {
	path := writeRoutesFile(t, "routes: {}\n")
	table := NewTable(path)

	watcher := startWatcher(t, table, 50*time.Millisecond)

	if err := watcher.Watch(context.Background()); err == nil {
		t.Error("second Watch() returned nil, want error")
	}
}

// TestWatcher_StopIsIdempotent tests Stop after context cancellation and a
// repeated Stop.
func TestWatcher_StopIsIdempotent(t *testing.T) {
	path := writeRoutesFile(t, "routes: {}\n")
	table := NewTable(path)

	watcher, err := NewWatcher(table, 50*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = watcher.Watch(ctx)
		close(done)
	}()
	time.Sleep(100 * time.Millisecond)

	cancel()
	<-done

	if err := watcher.Stop(); err != nil {
		t.Errorf("Stop() after cancel failed: %v", err)
	}
	if err := watcher.Stop(); err != nil {
		t.Errorf("second Stop() failed: %v", err)
	}
}

// TestDebouncer_CollapsesBursts tests that rapid triggers fire once.
func TestDebouncer_CollapsesBursts(t *testing.T) {
	d := newDebouncer(100 * time.Millisecond)
	defer d.stop()

	var calls atomic.Int32
	for i := 0; i < 5; i++ {
		d.trigger(func() { calls.Add(1) })
		time.Sleep(20 * time.Millisecond)
	}

	time.Sleep(200 * time.Millisecond)

	if got := calls.Load(); got != 1 {
		t.Errorf("callback ran %d times, want 1", got)
	}
}

// TestDebouncer_StopCancelsPending tests that stop suppresses an armed
// callback.
func TestDebouncer_StopCancelsPending(t *testing.T) {
	d := newDebouncer(100 * time.Millisecond)

	var calls atomic.Int32
	d.trigger(func() { calls.Add(1) })
	d.stop()

	time.Sleep(200 * time.Millisecond)

	if got := calls.Load(); got != 0 {
		t.Errorf("callback ran %d times after stop, want 0", got)
	}
}

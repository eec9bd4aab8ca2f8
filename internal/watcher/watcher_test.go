package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func TestWatcher_ChangeTriggersReload(t *testing.T) {
	dir := t.TempDir()
	dataset := filepath.Join(dir, "training.json")
	if err := os.WriteFile(dataset, []byte("[]"), 0600); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var changed []string
	onChange := func(path string) {
		mu.Lock()
		changed = append(changed, path)
		mu.Unlock()
	}

	w := New([]string{dataset}, onChange, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(dataset, []byte(`[{"program":"x"}]`), 0600); err != nil {
		t.Fatal(err)
	}

	ok := waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(changed) > 0
	})
	if !ok {
		t.Fatal("change never reported")
	}
	mu.Lock()
	defer mu.Unlock()
	if filepath.Clean(changed[0]) != filepath.Clean(dataset) {
		t.Errorf("changed path = %s, want %s", changed[0], dataset)
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	dataset := filepath.Join(dir, "jobs.json")
	if err := os.WriteFile(dataset, []byte("[]"), 0600); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	count := 0
	w := New([]string{dataset}, func(string) {
		mu.Lock()
		count++
		mu.Unlock()
	}, WithDebounce(30*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	other := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(other, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	time.Sleep(200 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if count != 0 {
		t.Errorf("unrelated file triggered %d reloads", count)
	}
}

func TestWatcher_DebounceCollapsesBursts(t *testing.T) {
	dir := t.TempDir()
	dataset := filepath.Join(dir, "placements.json")
	if err := os.WriteFile(dataset, []byte("[]"), 0600); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	count := 0
	w := New([]string{dataset}, func(string) {
		mu.Lock()
		count++
		mu.Unlock()
	}, WithDebounce(150*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(dataset, []byte("[]"), 0600); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	ok := waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count >= 1
	})
	if !ok {
		t.Fatal("burst never reported")
	}
	time.Sleep(300 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if count > 2 {
		t.Errorf("burst of writes triggered %d reloads", count)
	}
}

func TestWatcher_StartStopIdempotent(t *testing.T) {
	dir := t.TempDir()
	dataset := filepath.Join(dir, "training.json")
	w := New([]string{dataset}, nil)

	ctx := context.Background()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
}

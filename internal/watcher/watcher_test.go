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
	mu       sync.Mutex
	upserted []string
	removed  []string
}

func (r *recorder) upsert(path string) {
	r.mu.Lock()
	r.upserted = append(r.upserted, path)
	r.mu.Unlock()
}

func (r *recorder) remove(path string) {
	r.mu.Lock()
	r.removed = append(r.removed, path)
	r.mu.Unlock()
}

func (r *recorder) upsertCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.upserted)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

func TestWatcher_UpsertOnWrite(t *testing.T) {
	dir := t.TempDir()
	var rec recorder
	w := New(dir, []string{".txt"}, rec.upsert, rec.remove, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	writeFile(t, filepath.Join(dir, "note.txt"), "hello")
	time.Sleep(300 * time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.upserted) < 1 || !strings.HasSuffix(rec.upserted[0], "note.txt") {
		t.Errorf("upserted = %v", rec.upserted)
	}
}

func TestWatcher_IgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	var rec recorder
	w := New(dir, []string{".txt", ".md"}, rec.upsert, rec.remove, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	writeFile(t, filepath.Join(dir, "image.png"), "not text")
	time.Sleep(300 * time.Millisecond)

	if n := rec.upsertCount(); n != 0 {
		t.Errorf("upsert count = %d, want 0", n)
	}
}

func TestWatcher_RemoveOnDelete(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gone.txt")
	writeFile(t, path, "soon deleted")

	var rec recorder
	w := New(dir, []string{".txt"}, rec.upsert, rec.remove, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.removed) != 1 || !strings.HasSuffix(rec.removed[0], "gone.txt") {
		t.Errorf("removed = %v", rec.removed)
	}
}

func TestWatcher_SyncExisting(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "hello")
	writeFile(t, filepath.Join(dir, "b.md"), "world")
	writeFile(t, filepath.Join(dir, "skip.bin"), "x")

	var rec recorder
	w := New(dir, []string{".txt", ".md"}, rec.upsert, rec.remove)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	w.SyncExisting()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.upserted) != 2 {
		t.Errorf("upserted = %v, want a.txt and b.md", rec.upserted)
	}
	for _, p := range rec.upserted {
		if strings.HasSuffix(p, "skip.bin") {
			t.Errorf("skip.bin should not be upserted")
		}
	}
}

func TestWatcher_StopWhileEventsFire(t *testing.T) {
	// Stop must be safe while the event goroutine is mid-iteration; run this
	// under the race detector to cover the shared-state handoff.
	for i := 0; i < 20; i++ {
		dir := t.TempDir()
		var rec recorder
		w := New(dir, []string{".txt"}, rec.upsert, rec.remove, WithDebounce(time.Millisecond))
		if err := w.Start(context.Background()); err != nil {
			t.Fatal(err)
		}

		done := make(chan struct{})
		go func() {
			defer close(done)
			for j := 0; j < 10; j++ {
				_ = os.WriteFile(filepath.Join(dir, "churn.txt"), []byte("x"), 0600)
			}
		}()
		w.Stop()
		<-done
		// Stop is idempotent even with the run goroutine still draining.
		w.Stop()
	}
}

func TestWatcher_CreatesMissingDirectory(t *testing.T) {
	root := filepath.Join(t.TempDir(), "corpus")
	w := New(root, []string{".txt"}, nil, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	if _, err := os.Stat(root); err != nil {
		t.Errorf("corpus directory should exist after Start: %v", err)
	}
}

func TestMatchExtension(t *testing.T) {
	tests := []struct {
		path       string
		extensions []string
		want       bool
	}{
		{"/c/doc.txt", []string{".txt"}, true},
		{"/c/doc.TXT", []string{".txt"}, true},
		{"/c/doc.md", []string{".txt"}, false},
		{"/c/doc", nil, true},
		{"/c/doc", []string{}, true},
	}
	for _, tt := range tests {
		if got := matchExtension(tt.path, tt.extensions); got != tt.want {
			t.Errorf("matchExtension(%q, %v) = %v, want %v", tt.path, tt.extensions, got, tt.want)
		}
	}
}

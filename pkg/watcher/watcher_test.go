package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func waitForEvent(t *testing.T, w *Watcher, kind EventKind, timeout time.Duration) Event {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case ev := <-w.Events():
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s event", kind)
		}
	}
}

func TestWatcherReportsCreateAndDelete(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("*.tmp\n"), 0o644))

	w, err := New(root, ".gitignore")
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	target := filepath.Join(root, "new.txt")
	require.NoError(t, os.WriteFile(target, []byte("hi"), 0o644))
	created := waitForEvent(t, w, Create, 2*time.Second)
	require.Equal(t, "new.txt", string(created.Path))

	require.NoError(t, os.Remove(target))
	deleted := waitForEvent(t, w, Delete, 2*time.Second)
	require.Equal(t, "new.txt", string(deleted.Path))
}

func TestWatcherIgnoresMatchedPaths(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("*.tmp\n"), 0o644))

	w, err := New(root, ".gitignore")
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(root, "cache.tmp"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "keep.txt"), []byte("x"), 0o644))

	created := waitForEvent(t, w, Create, 2*time.Second)
	require.Equal(t, "keep.txt", string(created.Path))
}

package locator

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch_MarksStaleOnPDFChange(t *testing.T) {
	folder := t.TempDir()
	loc := New(Options{IndexCacheDir: t.TempDir()})
	require.NoError(t, loc.Build(context.Background(), folder, BuildOptions{}))
	require.False(t, loc.Stale())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loc.Watch(ctx, folder) }()

	// Give the watcher a moment to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(folder, "added.pdf"), []byte("%PDF"), 0o644))

	assert.Eventually(t, loc.Stale, 2*time.Second, 20*time.Millisecond)
}

func TestWatch_IgnoresNonPDFFiles(t *testing.T) {
	folder := t.TempDir()
	loc := New(Options{IndexCacheDir: t.TempDir()})
	require.NoError(t, loc.Build(context.Background(), folder, BuildOptions{}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loc.Watch(ctx, folder) }()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(folder, "notes.txt"), []byte("x"), 0o644))

	time.Sleep(300 * time.Millisecond)
	assert.False(t, loc.Stale())
}

func TestWatch_StaleClearsOnRebuild(t *testing.T) {
	folder := t.TempDir()
	loc := New(Options{IndexCacheDir: t.TempDir()})
	require.NoError(t, loc.Build(context.Background(), folder, BuildOptions{}))

	loc.markStale()
	require.True(t, loc.Stale())

	require.NoError(t, loc.Build(context.Background(), folder, BuildOptions{}))
	assert.False(t, loc.Stale())
}

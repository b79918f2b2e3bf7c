package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePDF(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestListPDFs_SortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	writePDF(t, dir, "zebra.pdf", "z")
	writePDF(t, dir, "alpha.PDF", "a")
	writePDF(t, dir, "notes.txt", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.pdf"), 0o755))

	paths, err := ListPDFs(dir)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, "alpha.PDF", filepath.Base(paths[0]))
	assert.Equal(t, "zebra.pdf", filepath.Base(paths[1]))
}

func TestDirHash_StableWhenUnchanged(t *testing.T) {
	dir := t.TempDir()
	writePDF(t, dir, "a.pdf", "content")

	h1, err := DirHash(dir)
	require.NoError(t, err)
	h2, err := DirHash(dir)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestDirHash_SensitiveToChanges(t *testing.T) {
	dir := t.TempDir()
	path := writePDF(t, dir, "a.pdf", "content")
	base, err := DirHash(dir)
	require.NoError(t, err)

	// Touch: same size, new mtime.
	require.NoError(t, os.Chtimes(path, time.Now(), time.Now().Add(time.Hour)))
	touched, err := DirHash(dir)
	require.NoError(t, err)
	assert.NotEqual(t, base, touched)

	// Add a file.
	writePDF(t, dir, "b.pdf", "more")
	added, err := DirHash(dir)
	require.NoError(t, err)
	assert.NotEqual(t, touched, added)

	// Remove it again: size+mtime of the survivor decide, not history.
	require.NoError(t, os.Remove(filepath.Join(dir, "b.pdf")))
	removed, err := DirHash(dir)
	require.NoError(t, err)
	assert.Equal(t, touched, removed)
}

func TestDirHash_IgnoresNonPDFChanges(t *testing.T) {
	dir := t.TempDir()
	writePDF(t, dir, "a.pdf", "content")
	base, err := DirHash(dir)
	require.NoError(t, err)

	writePDF(t, dir, "readme.md", "docs")
	after, err := DirHash(dir)
	require.NoError(t, err)
	assert.Equal(t, base, after)
}

func TestDirHash_EmptyFolder(t *testing.T) {
	h, err := DirHash(t.TempDir())
	require.NoError(t, err)
	assert.NotEmpty(t, h)
}

func TestDirHash_MissingFolder(t *testing.T) {
	_, err := DirHash(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

// Package store holds the indexed chunk collection and its on-disk cache.
package store

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ListPDFs returns the *.pdf files directly under dir, sorted by name.
func ListPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read folder: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// DirHash derives the folder content hash: SHA-1 over name, byte size,
// and modification time of every *.pdf file sorted by name. Stable under
// no changes; any add, remove, rename, resize, or touch changes it.
func DirHash(dir string) (string, error) {
	paths, err := ListPDFs(dir)
	if err != nil {
		return "", err
	}

	h := sha1.New()
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", filepath.Base(p), err)
		}
		fmt.Fprintf(h, "%s|%d|%d\n", info.Name(), info.Size(), info.ModTime().UnixNano())
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

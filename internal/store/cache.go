package store

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/llk214/semantic-locator/internal/chunk"
)

// Snapshot is one valid index state: the ordered chunk sequence plus the
// cache-key metadata it was built under.
type Snapshot struct {
	Chunks  []*chunk.Chunk
	DirHash string
	OCRMode string
	OCRDPI  int
}

// cacheMeta is the JSON sidecar used to detect staleness without
// deserializing the full blob.
type cacheMeta struct {
	DirHash string `json:"dir_hash"`
}

// Cache persists index snapshots, one blob per
// (folder content hash, OCR mode, OCR resolution) key.
type Cache struct {
	dir string
}

// NewCache creates a snapshot cache rooted at dir.
func NewCache(dir string) *Cache {
	return &Cache{dir: dir}
}

// Key identifies one cache entry.
type Key struct {
	DirHash string
	OCRMode string
	OCRDPI  int
}

func (c *Cache) base(k Key) string {
	short := k.DirHash
	if len(short) > 12 {
		short = short[:12]
	}
	return filepath.Join(c.dir, fmt.Sprintf("index-%s-%s-%d", short, k.OCRMode, k.OCRDPI))
}

// BlobPath returns the serialized chunk sequence path for a key.
func (c *Cache) BlobPath(k Key) string { return c.base(k) + ".gob" }

// MetaPath returns the JSON metadata sidecar path for a key.
func (c *Cache) MetaPath(k Key) string { return c.base(k) + ".meta.json" }

// Lock returns a file lock serializing builds that target the same key.
// Callers must TryLock/Lock and Unlock it around Store.
func (c *Cache) Lock(k Key) (*flock.Flock, error) {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return flock.New(c.base(k) + ".lock"), nil
}

// Load reads a snapshot for the key. Any read or decode failure is a
// cache miss, never an error: the caller rebuilds.
func (c *Cache) Load(k Key) (*Snapshot, bool) {
	metaRaw, err := os.ReadFile(c.MetaPath(k))
	if err != nil {
		return nil, false
	}
	var meta cacheMeta
	if err := json.Unmarshal(metaRaw, &meta); err != nil || meta.DirHash != k.DirHash {
		slog.Debug("index cache metadata stale or corrupt, treating as miss",
			slog.String("path", c.MetaPath(k)))
		return nil, false
	}

	f, err := os.Open(c.BlobPath(k))
	if err != nil {
		return nil, false
	}
	defer func() { _ = f.Close() }()

	var snap Snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		slog.Debug("index cache blob corrupt, treating as miss",
			slog.String("path", c.BlobPath(k)),
			slog.String("error", err.Error()))
		return nil, false
	}
	if snap.DirHash != k.DirHash {
		return nil, false
	}
	return &snap, true
}

// Store writes a snapshot under its key. The blob lands first and the
// metadata sidecar last, so a reader never sees metadata pointing at a
// missing blob.
func (c *Cache) Store(snap *Snapshot) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	k := Key{DirHash: snap.DirHash, OCRMode: snap.OCRMode, OCRDPI: snap.OCRDPI}

	f, err := os.Create(c.BlobPath(k))
	if err != nil {
		return fmt.Errorf("create cache blob: %w", err)
	}
	if err := gob.NewEncoder(f).Encode(snap); err != nil {
		_ = f.Close()
		_ = os.Remove(c.BlobPath(k))
		return fmt.Errorf("encode cache blob: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close cache blob: %w", err)
	}

	metaRaw, err := json.Marshal(cacheMeta{DirHash: snap.DirHash})
	if err != nil {
		return fmt.Errorf("marshal cache metadata: %w", err)
	}
	if err := os.WriteFile(c.MetaPath(k), metaRaw, 0o644); err != nil {
		return fmt.Errorf("write cache metadata: %w", err)
	}
	return nil
}

// Remove deletes any cache artifacts for the key. Used after a canceled
// build so no half-written entry survives.
func (c *Cache) Remove(k Key) {
	_ = os.Remove(c.BlobPath(k))
	_ = os.Remove(c.MetaPath(k))
}

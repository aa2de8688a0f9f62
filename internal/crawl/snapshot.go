package crawl

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DefaultPersistInterval is the minimum time between snapshot writes.
const DefaultPersistInterval = time.Second

// SnapshotFile persists tree snapshots to a JSON file. Writes are
// throttled; Flush writes whatever is pending.
type SnapshotFile struct {
	mu              sync.Mutex
	filePath        string
	persistInterval time.Duration
	lastPersist     time.Time
	pending         *Snapshot
	dirty           bool
}

// NewSnapshotFile creates a SnapshotFile writing to filePath.
func NewSnapshotFile(filePath string) *SnapshotFile {
	return &SnapshotFile{
		filePath:        filePath,
		persistInterval: DefaultPersistInterval,
	}
}

// Path returns the file being written.
func (f *SnapshotFile) Path() string {
	return f.filePath
}

// Update records snap and writes it if the persist interval has elapsed.
func (f *SnapshotFile) Update(snap Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pending = &snap
	return f.throttledPersist()
}

// Flush writes the latest snapshot if it has not been written yet.
func (f *SnapshotFile) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.dirty {
		return nil
	}
	return f.persist()
}

// throttledPersist writes only when persistInterval has elapsed since the
// last write, otherwise marks the file dirty.
// Must be called with lock held.
func (f *SnapshotFile) throttledPersist() error {
	if time.Since(f.lastPersist) < f.persistInterval {
		f.dirty = true
		return nil
	}
	return f.persist()
}

// persist saves the pending snapshot to disk.
// Must be called with lock held.
func (f *SnapshotFile) persist() error {
	if f.filePath == "" || f.pending == nil {
		f.dirty = false
		return nil
	}
	if err := WriteSnapshot(f.filePath, *f.pending); err != nil {
		return err
	}
	f.lastPersist = time.Now()
	f.dirty = false
	return nil
}

// WriteSnapshot writes snap to path atomically.
func WriteSnapshot(path string, snap Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	// Write atomically via temp file + rename
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return os.Rename(tmpPath, path)
}

// ReadSnapshot loads a snapshot written by WriteSnapshot.
func ReadSnapshot(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, err
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode snapshot %s: %w", path, err)
	}
	return snap, nil
}

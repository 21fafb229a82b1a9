package autosync

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// LockRecord is the persisted sync guard state. LastSyncTime is epoch
// milliseconds. The record is only ever overwritten whole.
type LockRecord struct {
	LastSyncTime   int64 `json:"lastSyncTime"`
	SyncInProgress bool  `json:"syncInProgress"`
}

// LockStore persists the lock record. Implementations must write the full
// record atomically; concurrent writers may race but must never interleave
// partial writes.
type LockStore interface {
	Load() (LockRecord, error)
	Store(LockRecord) error
}

// FileLockStore keeps the lock record in a JSON file, written via a temp
// file and rename so readers never observe a half-written record.
type FileLockStore struct {
	path string
}

func NewFileLockStore(dir string) *FileLockStore {
	return &FileLockStore{path: filepath.Join(dir, "last-sync.json")}
}

// Load returns the stored record. A missing file yields the zero record.
func (s *FileLockStore) Load() (LockRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return LockRecord{}, nil
		}
		return LockRecord{}, fmt.Errorf("read lock record: %w", err)
	}

	var rec LockRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return LockRecord{}, fmt.Errorf("parse lock record: %w", err)
	}
	return rec, nil
}

func (s *FileLockStore) Store(rec LockRecord) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("mkdir lock dir: %w", err)
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode lock record: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".last-sync-*")
	if err != nil {
		return fmt.Errorf("create temp lock file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write lock record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close lock record: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace lock record: %w", err)
	}
	return nil
}

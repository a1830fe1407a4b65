package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/oklog/ulid/v2"
)

const schemaVersion = 1

// entropy is shared so revisions minted within one millisecond stay ordered.
var entropy = ulid.DefaultEntropy()

// snapshot is the on-disk form of the whole collection. NextID is a
// high-water mark so deleted IDs are never handed out again.
type snapshot struct {
	Schema   int    `json:"schema"`
	Revision string `json:"revision"`
	NextID   int    `json:"next_id"`
	Tasks    []Task `json:"tasks"`
}

func emptySnapshot() *snapshot {
	return &snapshot{Schema: schemaVersion, NextID: 1, Tasks: []Task{}}
}

func (s *snapshot) indexOf(id int) int {
	for i, t := range s.Tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *snapshot) allocateID() int {
	id := s.NextID
	for _, t := range s.Tasks {
		if t.ID >= id {
			id = t.ID + 1
		}
	}
	if id < 1 {
		id = 1
	}
	s.NextID = id + 1
	return id
}

func loadSnapshot(path string) (*snapshot, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return emptySnapshot(), nil
		}
		return nil, &StorageError{Op: "read", Path: path, Err: err}
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return emptySnapshot(), nil
	}
	snap, err := decodeSnapshot(b)
	if err != nil {
		return nil, &StorageError{Op: "decode", Path: path, Err: err}
	}
	return snap, nil
}

func decodeSnapshot(b []byte) (*snapshot, error) {
	var snap snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, err
	}
	if snap.Schema == 0 {
		snap.Schema = schemaVersion
	}
	if snap.Schema > schemaVersion {
		return nil, fmt.Errorf("unsupported schema %d", snap.Schema)
	}
	if snap.Tasks == nil {
		snap.Tasks = []Task{}
	}
	seen := make(map[int]bool, len(snap.Tasks))
	maxID := 0
	for _, t := range snap.Tasks {
		if err := t.validate(); err != nil {
			return nil, err
		}
		if seen[t.ID] {
			return nil, fmt.Errorf("duplicate task id %d", t.ID)
		}
		seen[t.ID] = true
		if t.ID > maxID {
			maxID = t.ID
		}
	}
	if snap.NextID <= maxID {
		snap.NextID = maxID + 1
	}
	return &snap, nil
}

func saveSnapshot(path string, snap *snapshot) error {
	snap.Schema = schemaVersion
	snap.Revision = newULID()
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return &StorageError{Op: "encode", Path: path, Err: err}
	}
	b = append(b, '\n')
	if err := atomicWriteFile(path, snap.Revision, b, 0o644); err != nil {
		return &StorageError{Op: "write", Path: path, Err: err}
	}
	return nil
}

func atomicWriteFile(path, tag string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), tag))
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	// Rename is atomic on the same filesystem.
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func newULID() string {
	return ulid.MustNew(ulid.Timestamp(timeNow()), entropy).String()
}

package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid")
	ErrStorage  = errors.New("storage")
	timeNow     = func() time.Time { return time.Now().UTC() }
)

// StorageError wraps a failure to read, decode, lock or write the task file.
// It satisfies errors.Is(err, ErrStorage) and unwraps to the cause.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	if e == nil {
		return "storage"
	}
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

func (e *StorageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Store is the file-backed task collection. Every operation reloads the file
// and every mutation rewrites it, so no state is kept between calls apart
// from the last revision seen.
type Store struct {
	path     string
	lock     *flock.Flock
	revision string
}

type ListFilter struct {
	Status  Status
	Exclude bool // match tasks whose status differs from Status
}

// Open returns a store backed by the file at path. The file is created on the
// first write.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("%w: store path is required", ErrInvalid)
	}
	path = expandHome(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &StorageError{Op: "open", Path: path, Err: err}
	}
	return &Store{path: path, lock: flock.New(path + ".lock")}, nil
}

func (s *Store) Path() string { return s.path }

// Revision is the snapshot revision observed by the most recent operation.
func (s *Store) Revision() string { return s.revision }

func (s *Store) Add(description, dueDate string) (*Task, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fmt.Errorf("%w: description is required", ErrInvalid)
	}
	dueDate = strings.TrimSpace(dueDate)
	if dueDate == "" {
		dueDate = NoDueDate
	}
	var out Task
	err := s.mutate(func(snap *snapshot) error {
		id := snap.allocateID()
		out = Task{
			ID:           id,
			Description:  description,
			Status:       StatusToDo,
			CreationDate: timeNow(),
			DueDate:      dueDate,
		}
		snap.Tasks = append(snap.Tasks, out)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) Update(id int, description string) (*Task, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fmt.Errorf("%w: description is required", ErrInvalid)
	}
	return s.modify(id, func(t *Task) { t.Description = description })
}

func (s *Store) Delete(id int) error {
	return s.mutate(func(snap *snapshot) error {
		i := snap.indexOf(id)
		if i < 0 {
			return notFound(id)
		}
		snap.Tasks = append(snap.Tasks[:i], snap.Tasks[i+1:]...)
		return nil
	})
}

// MarkDone sets the status to done. Marking a done task again succeeds.
func (s *Store) MarkDone(id int) (*Task, error) {
	return s.modify(id, func(t *Task) { t.Status = StatusDone })
}

// MarkInProgress sets the status to in-progress regardless of the current one.
func (s *Store) MarkInProgress(id int) (*Task, error) {
	return s.modify(id, func(t *Task) { t.Status = StatusInProgress })
}

// List returns tasks in storage order. An empty filter status matches all.
func (s *Store) List(f ListFilter) ([]Task, error) {
	var out []Task
	err := s.view(func(snap *snapshot) error {
		out = make([]Task, 0, len(snap.Tasks))
		for _, t := range snap.Tasks {
			if f.Status != "" && (t.Status == f.Status) == f.Exclude {
				continue
			}
			out = append(out, t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) modify(id int, fn func(*Task)) (*Task, error) {
	var out Task
	err := s.mutate(func(snap *snapshot) error {
		i := snap.indexOf(id)
		if i < 0 {
			return notFound(id)
		}
		fn(&snap.Tasks[i])
		out = snap.Tasks[i]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// mutate holds the exclusive lock across load, fn and save. The file is left
// untouched when fn fails.
func (s *Store) mutate(fn func(*snapshot) error) error {
	if err := s.lock.Lock(); err != nil {
		return &StorageError{Op: "lock", Path: s.lock.Path(), Err: err}
	}
	defer func() { _ = s.lock.Unlock() }()

	snap, err := loadSnapshot(s.path)
	if err != nil {
		return err
	}
	s.revision = snap.Revision
	if err := fn(snap); err != nil {
		return err
	}
	if err := saveSnapshot(s.path, snap); err != nil {
		return err
	}
	s.revision = snap.Revision
	return nil
}

func (s *Store) view(fn func(*snapshot) error) error {
	if err := s.lock.RLock(); err != nil {
		return &StorageError{Op: "lock", Path: s.lock.Path(), Err: err}
	}
	defer func() { _ = s.lock.Unlock() }()

	snap, err := loadSnapshot(s.path)
	if err != nil {
		return err
	}
	s.revision = snap.Revision
	return fn(snap)
}

func notFound(id int) error {
	return fmt.Errorf("%w: task %d", ErrNotFound, id)
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~"+string(os.PathSeparator)) || path == "~" {
		home, _ := os.UserHomeDir()
		if home != "" {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

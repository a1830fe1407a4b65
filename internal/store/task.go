package store

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusToDo       Status = "to-do"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// NoDueDate is stored in place of a due date when the task has none.
const NoDueDate = "No Due Date"

// DueDateLayout is the display format of due dates (DD/MM/YYYY).
const DueDateLayout = "02/01/2006"

func (s Status) Valid() bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusDone:
		return true
	default:
		return false
	}
}

// ParseStatus accepts the canonical spelling plus a few loose variants.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "to-do", "todo", "to do":
		return StatusToDo, nil
	case "in-progress", "in progress", "doing":
		return StatusInProgress, nil
	case "done":
		return StatusDone, nil
	default:
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalid, s)
	}
}

type Task struct {
	ID           int       `json:"id"`
	Description  string    `json:"description"`
	Status       Status    `json:"status"`
	CreationDate time.Time `json:"creation_date"`
	DueDate      string    `json:"due_date"`
}

// HasDueDate reports whether the task carries a real due date.
func (t Task) HasDueDate() bool {
	return t.DueDate != "" && t.DueDate != NoDueDate
}

func (t Task) validate() error {
	if t.ID <= 0 {
		return fmt.Errorf("task id %d is not positive", t.ID)
	}
	if strings.TrimSpace(t.Description) == "" {
		return fmt.Errorf("task %d has an empty description", t.ID)
	}
	if !t.Status.Valid() {
		return fmt.Errorf("task %d has unknown status %q", t.ID, t.Status)
	}
	if t.CreationDate.IsZero() {
		return fmt.Errorf("task %d has no creation date", t.ID)
	}
	if t.DueDate == "" {
		return fmt.Errorf("task %d has no due date field", t.ID)
	}
	return nil
}

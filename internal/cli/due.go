package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/amirbrooks/tasktrack/internal/store"
)

var timeNow = time.Now

// ParseDueDate validates a DD/MM/YYYY due date against now and returns it in
// canonical form. Blank input, "none" and the sentinel itself mean no due
// date. The date's midnight must fall strictly after now, so today is rejected.
func ParseDueDate(s string, now time.Time) (string, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "none", strings.ToLower(store.NoDueDate):
		return store.NoDueDate, nil
	}
	var d time.Time
	var err error
	for _, layout := range []string{store.DueDateLayout, "2/1/2006"} {
		d, err = time.ParseInLocation(layout, s, now.Location())
		if err == nil {
			break
		}
	}
	if err != nil {
		return "", fmt.Errorf("%w: due date %q must be DD/MM/YYYY", store.ErrInvalid, s)
	}
	if !d.After(now) {
		return "", fmt.Errorf("%w: due date %s must be later than today", store.ErrInvalid, d.Format(store.DueDateLayout))
	}
	return d.Format(store.DueDateLayout), nil
}

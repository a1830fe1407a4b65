package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/amirbrooks/tasktrack/internal/store"
)

const createdLayout = "2006-01-02 15:04"

func (a *app) printResult(msg string, id int, task *store.Task) error {
	if a.gf.JSON {
		if task == nil {
			return writeJSON(a.out, map[string]any{"deleted": id})
		}
		return writeJSON(a.out, map[string]any{"task": task})
	}
	if !a.gf.Quiet {
		fmt.Fprintf(a.out, "%s (id %d)\n", msg, id)
	}
	return nil
}

func (a *app) printTasks(tasks []store.Task) error {
	if a.gf.JSON {
		return writeJSON(a.out, map[string]any{"tasks": tasks})
	}
	if len(tasks) == 0 {
		if !a.gf.Quiet {
			fmt.Fprintln(a.out, "No tasks.")
		}
		return nil
	}
	w := tabwriter.NewWriter(a.out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tDUE\tCREATED\tDESCRIPTION")
	for _, t := range tasks {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", t.ID, t.Status, dueLabel(t), t.CreationDate.Local().Format(createdLayout), t.Description)
	}
	return w.Flush()
}

func dueLabel(t store.Task) string {
	if !t.HasDueDate() {
		return "-"
	}
	return t.DueDate
}

func writeJSON(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

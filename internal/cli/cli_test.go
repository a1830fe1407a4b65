package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirbrooks/tasktrack/internal/store"
)

type result struct {
	code   int
	stdout string
	stderr string
}

func run(t *testing.T, root, stdin string, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	full := append([]string{"--root", root}, args...)
	code := RunWith(full, strings.NewReader(stdin), &out, &errOut)
	return result{code: code, stdout: out.String(), stderr: errOut.String()}
}

func listJSON(t *testing.T, root string, args ...string) []store.Task {
	t.Helper()
	res := run(t, root, "", append([]string{"--json"}, args...)...)
	require.Equal(t, ExitOK, res.code, res.stderr)
	var payload struct {
		Tasks []store.Task `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &payload))
	return payload.Tasks
}

func pinNow(t *testing.T, at time.Time) {
	t.Helper()
	prev := timeNow
	timeNow = func() time.Time { return at }
	t.Cleanup(func() { timeNow = prev })
}

func TestAddAndListThroughAliases(t *testing.T) {
	root := t.TempDir()

	res := run(t, root, "", "add", "Buy", "Milk")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Task added. (id 1)")

	res = run(t, root, "", "NEW", "call", "mom")
	require.Equal(t, ExitOK, res.code, res.stderr)

	tasks := listJSON(t, root, "ls")
	require.Len(t, tasks, 2)
	assert.Equal(t, "Buy Milk", tasks[0].Description)
	assert.Equal(t, "call mom", tasks[1].Description)
	assert.Equal(t, store.StatusToDo, tasks[1].Status)
	assert.Equal(t, store.NoDueDate, tasks[1].DueDate)
}

func TestStatusCommandsAndFilteredLists(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{"one", "two", "three"} {
		require.Equal(t, ExitOK, run(t, root, "", "add", d).code)
	}
	require.Equal(t, ExitOK, run(t, root, "", "mark", "done", "3").code)
	require.Equal(t, ExitOK, run(t, root, "", "d", "1").code)
	require.Equal(t, ExitOK, run(t, root, "", "start", "2").code)

	assert.Equal(t, []int{1, 3}, taskIDs(listJSON(t, root, "list", "done")))
	assert.Equal(t, []int{1, 3}, taskIDs(listJSON(t, root, "ld")))
	assert.Equal(t, []int{2}, taskIDs(listJSON(t, root, "list", "not", "done")))
	assert.Equal(t, []int{2}, taskIDs(listJSON(t, root, "lip")))
	assert.Equal(t, []int{1, 2, 3}, taskIDs(listJSON(t, root, "list")))
}

func TestUpdateAndDelete(t *testing.T) {
	root := t.TempDir()
	require.Equal(t, ExitOK, run(t, root, "", "add", "draft").code)

	res := run(t, root, "", "edit", "1", "final", "draft")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Task updated.")
	assert.Equal(t, "final draft", listJSON(t, root, "list")[0].Description)

	res = run(t, root, "", "rm", "1")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Task deleted.")

	res = run(t, root, "", "update", "1", "again")
	assert.Equal(t, ExitNotFound, res.code)
	assert.Contains(t, res.stderr, "not found")
}

func TestUnknownCommand(t *testing.T) {
	res := run(t, t.TempDir(), "", "listed", "123")
	assert.Equal(t, ExitUsage, res.code)
	assert.Contains(t, res.stderr, "Unknown command: listed")
}

func TestUsageErrors(t *testing.T) {
	root := t.TempDir()
	cases := [][]string{
		{"add"},
		{"update", "1"},
		{"done"},
		{"done", "abc"},
		{"delete", "0"},
		{"start", "1", "2"},
		{"list", "everything"},
		{"add", "x", "--due", "31/02/2030"},
		{"add", "x", "--due"},
		{"list", "--status", "someday"},
	}
	for _, args := range cases {
		res := run(t, root, "", args...)
		assert.Equal(t, ExitUsage, res.code, "%v: %s", args, res.stderr)
	}
	assert.Empty(t, listJSON(t, root, "list"))
}

func TestAddWithDueDate(t *testing.T) {
	pinNow(t, time.Date(2026, 10, 16, 12, 0, 0, 0, time.Local))
	root := t.TempDir()

	res := run(t, root, "", "add", "file taxes", "--due", "1/11/2026")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Equal(t, "01/11/2026", listJSON(t, root, "list")[0].DueDate)

	res = run(t, root, "", "add", "too late", "--due", "16/10/2026")
	assert.Equal(t, ExitUsage, res.code)
}

func TestStorageErrorExitCode(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "tasks.json"), []byte("[oops"), 0o644))
	res := run(t, root, "", "list")
	assert.Equal(t, ExitInternal, res.code)
	assert.Contains(t, res.stderr, "storage")
}

func TestConfigAliasesAndStorePath(t *testing.T) {
	root := t.TempDir()
	cfg := "store: lists/mine.json\naliases:\n  done:\n    - tick\n    - check off\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "config.yaml"), []byte(cfg), 0o644))

	require.Equal(t, ExitOK, run(t, root, "", "add", "stretch").code)
	res := run(t, root, "", "check", "off", "1")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Equal(t, []int{1}, taskIDs(listJSON(t, root, "list-done")))

	_, err := os.Stat(filepath.Join(root, "lists", "mine.json"))
	assert.NoError(t, err)
}

func TestConfigAliasConflictIsUsageError(t *testing.T) {
	root := t.TempDir()
	cfg := "aliases:\n  start:\n    - d\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "config.yaml"), []byte(cfg), 0o644))
	res := run(t, root, "", "list")
	assert.Equal(t, ExitUsage, res.code)
	assert.Contains(t, res.stderr, "alias conflict")
}

func TestHelpListsAliases(t *testing.T) {
	res := run(t, t.TempDir(), "", "?")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "list-done - list tasks that are done")
	assert.Contains(t, res.stdout, `"list done"`)
}

func TestVerboseLogsDispatch(t *testing.T) {
	res := run(t, t.TempDir(), "", "--verbose", "list", "done")
	require.Equal(t, ExitOK, res.code)
	assert.Contains(t, res.stderr, "dispatch")
	assert.Contains(t, res.stderr, "list-done")
	assert.Contains(t, res.stdout, "No tasks.")
}

func TestPromptSession(t *testing.T) {
	pinNow(t, time.Date(2026, 10, 16, 12, 0, 0, 0, time.Local))
	root := t.TempDir()
	input := strings.Join([]string{
		"add buy milk",
		"yesterday",
		"20/10/2026",
		"",
		"add water plants",
		"",
		"bogus 1",
		"mark done 2",
		"list done",
		"quit",
		"add never reached",
	}, "\n") + "\n"

	res := run(t, root, input)
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Invalid due date")
	assert.Contains(t, res.stderr, "Unknown command: bogus")
	assert.Contains(t, res.stdout, "Task marked as done. (id 2)")

	tasks := listJSON(t, root, "list")
	require.Len(t, tasks, 2)
	assert.Equal(t, "20/10/2026", tasks[0].DueDate)
	assert.Equal(t, store.NoDueDate, tasks[1].DueDate)
	assert.Equal(t, store.StatusDone, tasks[1].Status)
}

func TestPromptEndsAtEOF(t *testing.T) {
	root := t.TempDir()
	res := run(t, root, "add no newline at end")
	require.Equal(t, ExitOK, res.code, res.stderr)
	tasks := listJSON(t, root, "list")
	require.Len(t, tasks, 1)
	assert.Equal(t, store.NoDueDate, tasks[0].DueDate)
}

func TestExtractGlobalFlags(t *testing.T) {
	gf, rest, err := extractGlobalFlags([]string{"add", "--json", "x", "--root=/tmp/r", "--quiet"})
	require.NoError(t, err)
	assert.Equal(t, []string{"add", "x"}, rest)
	assert.True(t, gf.JSON)
	assert.True(t, gf.Quiet)
	assert.Equal(t, "/tmp/r", gf.Root)

	_, _, err = extractGlobalFlags([]string{"--config"})
	assert.Error(t, err)
}

func TestDescriptionStartingWithTask(t *testing.T) {
	root := t.TempDir()
	res := run(t, root, "", "add", "task", "force", "meeting")
	require.Equal(t, ExitOK, res.code, res.stderr)
	res = run(t, root, "", "add", "task")
	require.Equal(t, ExitOK, res.code, res.stderr)

	tasks := listJSON(t, root, "list")
	require.Len(t, tasks, 2)
	assert.Equal(t, "task force meeting", tasks[0].Description)
	assert.Equal(t, "task", tasks[1].Description)
}

func TestDashWordsStayInDescriptions(t *testing.T) {
	pinNow(t, time.Date(2026, 10, 16, 12, 0, 0, 0, time.Local))
	root := t.TempDir()

	res := run(t, root, "", "add", "fix", "the", "-v", "flag", "--due=20/10/2026")
	require.Equal(t, ExitOK, res.code, res.stderr)
	res = run(t, root, "", "add", "--", "--due", "is", "a", "word")
	require.Equal(t, ExitOK, res.code, res.stderr)

	input := strings.Join([]string{
		"add buy -5 apples",
		"",
		"update 1 fix the --help output",
		"exit",
	}, "\n") + "\n"
	res = run(t, root, input)
	require.Equal(t, ExitOK, res.code, res.stderr)

	tasks := listJSON(t, root, "list")
	require.Len(t, tasks, 3)
	assert.Equal(t, "fix the --help output", tasks[0].Description)
	assert.Equal(t, "20/10/2026", tasks[0].DueDate)
	assert.Equal(t, "--due is a word", tasks[1].Description)
	assert.Equal(t, "buy -5 apples", tasks[2].Description)
}

func TestListStatusFilter(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{"one", "two", "three"} {
		require.Equal(t, ExitOK, run(t, root, "", "add", d).code)
	}
	require.Equal(t, ExitOK, run(t, root, "", "start", "2").code)
	require.Equal(t, ExitOK, run(t, root, "", "done", "3").code)

	assert.Equal(t, []int{2}, taskIDs(listJSON(t, root, "list", "--status", "in progress")))
	assert.Equal(t, []int{1}, taskIDs(listJSON(t, root, "list", "--status=todo")))
	assert.Equal(t, []int{3}, taskIDs(listJSON(t, root, "ls", "--status", "DONE")))
}

func TestConfigAliasForUnknownCommandIsUsageError(t *testing.T) {
	root := t.TempDir()
	cfg := "aliases:\n  purge:\n    - wipe\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "config.yaml"), []byte(cfg), 0o644))
	res := run(t, root, "", "wipe")
	assert.Equal(t, ExitUsage, res.code)
	assert.Contains(t, res.stderr, `unknown command "purge"`)
}

func taskIDs(tasks []store.Task) []int {
	out := make([]int, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

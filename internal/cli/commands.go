package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amirbrooks/tasktrack/internal/alias"
	"github.com/amirbrooks/tasktrack/internal/store"
)

// newRootCmd builds a fresh command tree. Sub-commands are named by canonical
// command and only ever receive already-normalized arguments. Flag parsing is
// disabled on every sub-command so words starting with "-" stay part of a
// description; the few flags there are get pulled out by hand.
func (a *app) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:               "tasktrack",
		Short:             "Personal task tracker",
		SilenceUsage:      true,
		SilenceErrors:     true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)
	root.SetHelpCommand(a.newHelpCmd())
	root.AddCommand(
		a.newAddCmd(),
		a.newUpdateCmd(),
		a.newIDCmd(alias.Delete, "Delete a task", "Task deleted.", func(id int) (*store.Task, error) {
			return nil, a.store.Delete(id)
		}),
		a.newIDCmd(alias.Start, "Mark a task as in progress", "Task marked as in progress.", a.store.MarkInProgress),
		a.newIDCmd(alias.Done, "Mark a task as done", "Task marked as done.", a.store.MarkDone),
		a.newStatusListCmd(),
		a.newListCmd(alias.ListDone, "List done tasks", store.ListFilter{Status: store.StatusDone}),
		a.newListCmd(alias.ListNotDone, "List tasks that are not done", store.ListFilter{Status: store.StatusDone, Exclude: true}),
		a.newListCmd(alias.ListInProgress, "List tasks in progress", store.ListFilter{Status: store.StatusInProgress}),
		&cobra.Command{
			Use:   string(alias.Exit),
			Short: "Leave the interactive prompt",
			RunE:  func(*cobra.Command, []string) error { return nil },
		},
	)
	for _, sub := range root.Commands() {
		sub.DisableFlagParsing = true
	}
	return root
}

func (a *app) newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <description> [--due DD/MM/YYYY]",
		Short: "Add a new task",
		RunE: func(_ *cobra.Command, args []string) error {
			words, due, dueSet, err := splitFlag(args, "due")
			if err != nil {
				return err
			}
			description := strings.TrimSpace(strings.Join(words, " "))
			if description == "" {
				return usagef("Usage: add <description> [--due DD/MM/YYYY]")
			}
			dueDate, err := a.resolveDue(due, dueSet)
			if err != nil {
				return err
			}
			task, err := a.store.Add(description, dueDate)
			if err != nil {
				return err
			}
			a.logMutation(alias.Add, task.ID)
			return a.printResult("Task added.", task.ID, task)
		},
	}
}

func (a *app) newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update <task id> <new description>",
		Short: "Replace a task description",
		RunE: func(_ *cobra.Command, args []string) error {
			if len(args) < 2 {
				return usagef("Usage: update <task id> <new description>")
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			task, err := a.store.Update(id, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			a.logMutation(alias.Update, task.ID)
			return a.printResult("Task updated.", task.ID, task)
		},
	}
}

func (a *app) newIDCmd(name alias.Command, short, done string, op func(int) (*store.Task, error)) *cobra.Command {
	return &cobra.Command{
		Use:   string(name) + " <task id>",
		Short: short,
		RunE: func(_ *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usagef("Usage: %s <task id>", name)
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			task, err := op(id)
			if err != nil {
				return err
			}
			a.logMutation(name, id)
			return a.printResult(done, id, task)
		},
	}
}

func (a *app) newListCmd(name alias.Command, short string, filter store.ListFilter) *cobra.Command {
	return &cobra.Command{
		Use:   string(name),
		Short: short,
		RunE: func(_ *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usagef("Usage: %s (unexpected %q)", name, strings.Join(args, " "))
			}
			tasks, err := a.store.List(filter)
			if err != nil {
				return err
			}
			return a.printTasks(tasks)
		},
	}
}

// newStatusListCmd is list with an optional --status filter.
func (a *app) newStatusListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   string(alias.List) + " [--status <status>]",
		Short: "List all tasks, or those with one status",
		RunE: func(_ *cobra.Command, args []string) error {
			rest, status, statusSet, err := splitFlag(args, "status")
			if err != nil {
				return err
			}
			if len(rest) > 0 {
				return usagef("Usage: list [--status to-do|in-progress|done] (unexpected %q)", strings.Join(rest, " "))
			}
			var filter store.ListFilter
			if statusSet {
				if filter.Status, err = store.ParseStatus(status); err != nil {
					return err
				}
			}
			tasks, err := a.store.List(filter)
			if err != nil {
				return err
			}
			return a.printTasks(tasks)
		},
	}
}

func (a *app) newHelpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   string(alias.Help),
		Short: "Show available commands",
		RunE: func(*cobra.Command, []string) error {
			a.printHelp()
			return nil
		},
	}
}

func (a *app) resolveDue(flagValue string, set bool) (string, error) {
	if set {
		return ParseDueDate(flagValue, timeNow())
	}
	if a.askDue != nil {
		return a.askDue()
	}
	return store.NoDueDate, nil
}

func (a *app) logMutation(cmd alias.Command, id int) {
	a.log.Debug().
		Str("command", string(cmd)).
		Int("id", id).
		Str("revision", a.store.Revision()).
		Msg("store updated")
}

// splitFlag removes --name <value> or --name=<value> from args. Anything after
// "--" is kept as plain words.
func splitFlag(args []string, name string) (words []string, value string, set bool, err error) {
	flag := "--" + name
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			return append(words, args[i+1:]...), value, set, nil
		case arg == flag:
			if i+1 >= len(args) {
				return nil, "", false, usagef("%s requires a value", flag)
			}
			value, set = args[i+1], true
			i++
		case strings.HasPrefix(arg, flag+"="):
			value, set = strings.TrimPrefix(arg, flag+"="), true
		default:
			words = append(words, arg)
		}
	}
	return words, value, set, nil
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0, usagef("Task id must be a positive number, got %q", s)
	}
	return id, nil
}

var commandUsage = map[alias.Command]string{
	alias.Help:           "help - show this list of commands",
	alias.Add:            "add <task> [--due DD/MM/YYYY] - add a new task to the list",
	alias.Update:         "update <task id> <new description> - replace the description of a task",
	alias.Delete:         "delete <task id> - delete a task from the list",
	alias.Start:          "start <task id> - mark a task as in progress",
	alias.Done:           "done <task id> - mark a task as done",
	alias.List:           "list [--status to-do|in-progress|done] - list every task, or those with one status",
	alias.ListDone:       "list-done - list tasks that are done",
	alias.ListNotDone:    "list-not-done - list tasks that are not done",
	alias.ListInProgress: "list-in-progress - list tasks in progress",
	alias.Exit:           "exit - leave the interactive prompt",
}

func (a *app) printHelp() {
	fmt.Fprintln(a.out, "Commands:")
	for _, cmd := range alias.Commands {
		fmt.Fprintf(a.out, "  %s\n", commandUsage[cmd])
		if aliases := a.aliases.Aliases(cmd); len(aliases) > 0 {
			fmt.Fprintf(a.out, "      aliases: %s\n", strings.Join(quoteMultiWord(aliases), ", "))
		}
	}
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "Global flags: --root <path>, --config <file>, --json, --quiet, --verbose")
	fmt.Fprintln(a.out, "Run without a command to start the interactive prompt.")
}

func quoteMultiWord(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		if strings.Contains(s, " ") {
			s = strconv.Quote(s)
		}
		out[i] = s
	}
	return out
}

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/amirbrooks/tasktrack/internal/alias"
	"github.com/amirbrooks/tasktrack/internal/store"
)

const promptText = "command> "

// runPrompt reads one command per line until exit or end of input. Command
// failures are reported and the loop carries on.
func (a *app) runPrompt(in io.Reader) int {
	sc := bufio.NewScanner(in)
	a.askDue = func() (string, error) { return a.promptDue(sc) }
	defer func() { a.askDue = nil }()

	if !a.gf.Quiet {
		fmt.Fprintln(a.out, "Task Tracker. Type help for commands, exit to quit.")
	}
	for {
		fmt.Fprint(a.out, promptText)
		if !sc.Scan() {
			fmt.Fprintln(a.out)
			break
		}
		tokens := strings.Fields(sc.Text())
		if len(tokens) == 0 {
			continue
		}
		if cmd, _ := a.aliases.Normalize(tokens); cmd == alias.Exit {
			break
		}
		if err := a.execute(tokens); err != nil {
			a.report(err)
		}
	}
	if err := sc.Err(); err != nil {
		a.log.Error().Err(err).Msg("read prompt input")
		return ExitInternal
	}
	return ExitOK
}

// promptDue asks until it gets a valid due date or a blank line. End of input
// means no due date.
func (a *app) promptDue(sc *bufio.Scanner) (string, error) {
	for {
		fmt.Fprint(a.out, "Due date (DD/MM/YYYY, blank for none): ")
		if !sc.Scan() {
			fmt.Fprintln(a.out)
			return store.NoDueDate, sc.Err()
		}
		due, err := ParseDueDate(sc.Text(), timeNow())
		if err == nil {
			return due, nil
		}
		if !errors.Is(err, store.ErrInvalid) {
			return "", err
		}
		fmt.Fprintln(a.out, "Invalid due date: use DD/MM/YYYY for a day after today.")
	}
}

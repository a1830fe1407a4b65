package alias

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	ErrConflict = errors.New("alias conflict")
	ErrInvalid  = errors.New("invalid alias")
)

// Command is a canonical command name. The zero value means no command matched.
type Command string

const (
	None           Command = ""
	Help           Command = "help"
	Add            Command = "add"
	Update         Command = "update"
	Delete         Command = "delete"
	Start          Command = "start"
	Done           Command = "done"
	List           Command = "list"
	ListDone       Command = "list-done"
	ListNotDone    Command = "list-not-done"
	ListInProgress Command = "list-in-progress"
	Exit           Command = "exit"
)

// Commands lists the canonical commands in help order.
var Commands = []Command{
	Help, Add, Update, Delete, Start, Done,
	List, ListDone, ListNotDone, ListInProgress, Exit,
}

// Known reports whether c is one of Commands.
func (c Command) Known() bool {
	for _, k := range Commands {
		if c == k {
			return true
		}
	}
	return false
}

// DefaultAliases returns a fresh copy of the built-in alias configuration.
// The canonical name is implied and does not need to be listed.
func DefaultAliases() map[Command][]string {
	return map[Command][]string{
		Help:           {"h", "?"},
		Add:            {"a", "new"},
		Update:         {"u", "edit"},
		Delete:         {"del", "rm", "remove"},
		Start:          {"s", "begin", "mark in progress", "mark-in-progress"},
		Done:           {"d", "finish", "complete", "mark done", "mark-done"},
		List:           {"ls", "l", "list all"},
		ListDone:       {"ld", "list done", "ls done"},
		ListNotDone:    {"lnd", "list not done", "ls not done", "list todo"},
		ListInProgress: {"lip", "list in progress", "list in-progress", "ls in progress"},
		Exit:           {"quit", "q"},
	}
}

// Entry pairs a lower-cased alias token sequence with its canonical command.
type Entry struct {
	tokens  []string
	command Command
}

func (e Entry) String() string { return strings.Join(e.tokens, " ") }

// Table is an immutable alias lookup ordered by descending token count, so a
// longer alias is always tried before a shorter one sharing its prefix.
type Table struct {
	entries []Entry
}

// NewTable builds a table from a canonical-command -> aliases mapping. Every
// command also matches its own name. Keys outside Commands are rejected.
func NewTable(config map[Command][]string) (*Table, error) {
	cmds := make([]Command, 0, len(config))
	for cmd := range config {
		if !cmd.Known() {
			return nil, fmt.Errorf("%w: unknown command %q", ErrInvalid, cmd)
		}
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i] < cmds[j] })

	owner := map[string]Command{}
	var entries []Entry
	for _, cmd := range cmds {
		for _, raw := range append([]string{string(cmd)}, config[cmd]...) {
			tokens := tokenize(raw)
			if len(tokens) == 0 {
				return nil, fmt.Errorf("%w: empty alias for %q", ErrInvalid, cmd)
			}
			key := strings.Join(tokens, " ")
			if prev, ok := owner[key]; ok {
				if prev != cmd {
					return nil, fmt.Errorf("%w: %q maps to both %q and %q", ErrConflict, key, prev, cmd)
				}
				continue
			}
			owner[key] = cmd
			entries = append(entries, Entry{tokens: tokens, command: cmd})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return len(entries[i].tokens) > len(entries[j].tokens)
	})
	return &Table{entries: entries}, nil
}

// Merge returns the built-in aliases plus extra, keyed by canonical command.
func Merge(extra map[string][]string) map[Command][]string {
	out := DefaultAliases()
	for cmd, aliases := range extra {
		key := Command(strings.ToLower(strings.TrimSpace(cmd)))
		out[key] = append(out[key], aliases...)
	}
	return out
}

var defaultTable = sync.OnceValue(func() *Table {
	t, err := NewTable(DefaultAliases())
	if err != nil {
		panic(err)
	}
	return t
})

// Default returns the table built from DefaultAliases.
func Default() *Table { return defaultTable() }

// Normalize resolves the leading tokens of input to a canonical command and
// returns the tokens left over. When nothing matches, the first token is
// treated as the unrecognized command and dropped from the remainder.
func (t *Table) Normalize(input []string) (Command, []string) {
	if len(input) == 0 {
		return None, []string{}
	}
	lowered := make([]string, len(input))
	for i, tok := range input {
		lowered[i] = strings.ToLower(tok)
	}
	for _, e := range t.entries {
		if hasPrefix(lowered, e.tokens) {
			return e.command, append([]string{}, input[len(e.tokens):]...)
		}
	}
	return None, append([]string{}, input[1:]...)
}

// Aliases returns the aliases of cmd in match order, excluding the canonical name.
func (t *Table) Aliases(cmd Command) []string {
	var out []string
	for _, e := range t.entries {
		if e.command != cmd {
			continue
		}
		if s := e.String(); s != string(cmd) {
			out = append(out, s)
		}
	}
	return out
}

// Entries returns the table in match order.
func (t *Table) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

func hasPrefix(input, prefix []string) bool {
	if len(prefix) > len(input) {
		return false
	}
	for i := range prefix {
		if input[i] != prefix[i] {
			return false
		}
	}
	return true
}

func tokenize(s string) []string {
	return strings.Fields(strings.ToLower(s))
}

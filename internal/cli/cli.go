package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/amirbrooks/tasktrack/internal/alias"
	"github.com/amirbrooks/tasktrack/internal/config"
	"github.com/amirbrooks/tasktrack/internal/store"
)

// Exit codes
const (
	ExitOK       = 0
	ExitUsage    = 2
	ExitNotFound = 3
	ExitInternal = 10
)

type GlobalFlags struct {
	Root    string
	Config  string
	JSON    bool
	Quiet   bool
	Verbose bool
}

type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, a ...any) error {
	return usageError{msg: fmt.Sprintf(format, a...)}
}

type unknownCommandError struct{ name string }

func (e unknownCommandError) Error() string { return "unknown command: " + e.name }

type app struct {
	gf      GlobalFlags
	store   *store.Store
	aliases *alias.Table
	log     zerolog.Logger
	out     io.Writer
	errOut  io.Writer

	// askDue is set by the interactive prompt so add can ask for a due date.
	askDue func() (string, error)
}

func Run(args []string) int {
	return RunWith(args, os.Stdin, os.Stdout, os.Stderr)
}

// RunWith runs one argv invocation, or the interactive prompt when no command
// is given, and returns the process exit code.
func RunWith(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	gf, rest, err := extractGlobalFlags(args)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return ExitUsage
	}

	a, err := newApp(gf, stdout, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "tasktrack:", err)
		return exitCode(err)
	}

	if len(rest) == 0 {
		return a.runPrompt(stdin)
	}
	if err := a.execute(rest); err != nil {
		a.report(err)
		return exitCode(err)
	}
	return ExitOK
}

func newApp(gf GlobalFlags, stdout, stderr io.Writer) (*app, error) {
	cfgPath := gf.Config
	if cfgPath == "" {
		cfgPath = filepath.Join(gf.Root, config.FileName)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, usagef("config: %v", err)
	}
	logger := newLogger(stderr, gf.Verbose, cfg.LogLevel)

	table := alias.Default()
	if len(cfg.Aliases) > 0 {
		if table, err = alias.NewTable(alias.Merge(cfg.Aliases)); err != nil {
			return nil, usagef("config aliases: %v", err)
		}
	}

	st, err := store.Open(cfg.StorePath(gf.Root))
	if err != nil {
		return nil, err
	}
	logger.Debug().
		Str("root", gf.Root).
		Str("config", cfgPath).
		Str("store", st.Path()).
		Int("aliases", len(table.Entries())).
		Msg("loaded config")

	return &app{
		gf:      gf,
		store:   st,
		aliases: table,
		log:     logger,
		out:     stdout,
		errOut:  stderr,
	}, nil
}

// execute normalizes tokens and runs the matching command. tokens must not be empty.
func (a *app) execute(tokens []string) error {
	cmd, rest := a.aliases.Normalize(tokens)
	if cmd == alias.None {
		a.log.Warn().Str("input", tokens[0]).Strs("rest", rest).Msg("unrecognized command")
		return unknownCommandError{name: tokens[0]}
	}
	a.log.Debug().Str("command", string(cmd)).Strs("args", rest).Msg("dispatch")

	root := a.newRootCmd()
	root.SetArgs(append([]string{string(cmd)}, rest...))
	return root.Execute()
}

func (a *app) report(err error) {
	var unknown unknownCommandError
	var usage usageError
	switch {
	case errors.As(err, &unknown):
		fmt.Fprintf(a.errOut, "Unknown command: %s (type help for a list of commands)\n", unknown.name)
	case errors.As(err, &usage):
		fmt.Fprintln(a.errOut, usage.msg)
	case errors.Is(err, store.ErrStorage):
		a.log.Error().Err(err).Str("store", a.store.Path()).Msg("storage failure")
		fmt.Fprintln(a.errOut, "tasktrack:", err)
	default:
		fmt.Fprintln(a.errOut, "tasktrack:", err)
	}
}

func exitCode(err error) int {
	var unknown unknownCommandError
	var usage usageError
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &unknown), errors.As(err, &usage), errors.Is(err, store.ErrInvalid):
		return ExitUsage
	case errors.Is(err, store.ErrNotFound):
		return ExitNotFound
	default:
		return ExitInternal
	}
}

func extractGlobalFlags(args []string) (GlobalFlags, []string, error) {
	// Allow flags anywhere by scanning and stripping known globals.
	gf := GlobalFlags{Root: config.DefaultRoot()}

	out := make([]string, 0, len(args))
	skip := 0

	for i := 0; i < len(args); i++ {
		if skip > 0 {
			skip--
			continue
		}
		a := args[i]
		switch {
		case a == "--root" || a == "--config":
			if i+1 >= len(args) {
				return gf, nil, fmt.Errorf("%s requires a value", a)
			}
			if a == "--root" {
				gf.Root = args[i+1]
			} else {
				gf.Config = args[i+1]
			}
			skip = 1
		case strings.HasPrefix(a, "--root="):
			gf.Root = strings.TrimPrefix(a, "--root=")
		case strings.HasPrefix(a, "--config="):
			gf.Config = strings.TrimPrefix(a, "--config=")
		case a == "--json":
			gf.JSON = true
		case a == "--quiet":
			gf.Quiet = true
		case a == "--verbose":
			gf.Verbose = true
		default:
			out = append(out, a)
		}
	}

	if strings.TrimSpace(gf.Root) == "" {
		return gf, nil, errors.New("--root must not be empty")
	}
	gf.Root = config.ExpandHome(gf.Root)
	return gf, out, nil
}

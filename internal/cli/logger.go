package cli

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// newLogger writes human-readable logs to w. The default level is warn;
// verbose forces debug, otherwise a valid configured level wins.
func newLogger(w io.Writer, verbose bool, level string) zerolog.Logger {
	lvl := zerolog.WarnLevel
	if level = strings.TrimSpace(level); level != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(level)); err == nil {
			lvl = parsed
		}
	}
	if verbose {
		lvl = zerolog.DebugLevel
	}

	consoleWriter := zerolog.NewConsoleWriter()
	consoleWriter.Out = w
	consoleWriter.TimeFormat = time.DateTime
	consoleWriter.NoColor = true

	return zerolog.New(consoleWriter).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}

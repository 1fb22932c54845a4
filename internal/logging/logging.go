package logging

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options controls how the global zerolog logger is configured.
type Options struct {
	Level   string // debug, info, warn, error
	Format  string // console, json
	NoColor bool
}

// InitDefault sets up a console logger at info level.
// Used before flags/config are parsed so early failures are still readable.
func InitDefault() {
	Init(nil)
}

// Init configures the global logger. A nil opts falls back to defaults.
func Init(opts *Options) {
	if opts == nil {
		opts = &Options{Level: "info", Format: "console"}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if opts.Format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.Kitchen,
		NoColor:    opts.NoColor,
	})
}

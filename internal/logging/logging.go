// Package logging sets up the global zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Level string `toml:"level" default:"info"`
	// File, when set, also writes JSON lines to a rotated file. Rotated copies
	// get a timestamp suffix and File always links to the current one.
	File     string        `toml:"file"`
	Rotation time.Duration `toml:"rotation" default:"24h"`
	MaxAge   time.Duration `toml:"max_age" default:"168h"`
}

// Init replaces the global logger. The returned closer releases the log file,
// if any.
func Init(opts Options) (io.Closer, error) {
	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", opts.Level, err)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	if opts.File == "" {
		log.Logger = zerolog.New(console).With().Timestamp().Caller().Logger()
		return nopCloser{}, nil
	}

	rotated, err := rotatelogs.New(
		opts.File+".%Y%m%d%H%M",
		rotatelogs.WithLinkName(opts.File),
		rotatelogs.WithRotationTime(opts.Rotation),
		rotatelogs.WithMaxAge(opts.MaxAge),
	)
	if err != nil {
		return nil, fmt.Errorf("log file %s: %w", opts.File, err)
	}
	log.Logger = zerolog.New(zerolog.MultiLevelWriter(console, rotated)).With().Timestamp().Caller().Logger()
	return rotated, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

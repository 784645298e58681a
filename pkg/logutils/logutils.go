// Package logutils sets up the zerolog logger used across the application.
package logutils

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// New returns a console logger writing human-readable output to w.
//
// The level parameter can be one of: debug, info, warn, error, fatal.
func New(level string, w io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, err
	}

	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}

	l := zerolog.New(out).
		With().
		Timestamp().
		Logger().
		Level(lvl)

	return l, nil
}

// Package logging wraps zerolog with the contextual fields (realm, mode,
// trading_day, ticker) every component in this repo tags its lines with.
package logging

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	baseOnce sync.Once
	base     zerolog.Logger
)

// Base returns the process-wide root logger, configured once. The first
// caller's debug flag wins; later calls get that same logger back whatever
// flag they pass (sync.Once, like the rest of this package's
// construct-once discipline).
func Base(debug bool) zerolog.Logger {
	baseOnce.Do(func() {
		zerolog.TimeFieldFormat = time.RFC3339
		level := zerolog.InfoLevel
		if debug {
			level = zerolog.DebugLevel
		}
		base = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
			Level(level).With().Timestamp().Logger()
	})
	return base
}

// ForSession returns a logger tagged with realm and mode for one
// orchestrator session.
func ForSession(realm, mode, tradingDay string) zerolog.Logger {
	return Base(false).With().
		Str("realm", realm).
		Str("mode", mode).
		Str("trading_day", tradingDay).
		Logger()
}

// ForTicker narrows a session logger to one ticker's work, the unit of
// failure isolation in §7.
func ForTicker(l zerolog.Logger, ticker string) zerolog.Logger {
	return l.With().Str("ticker", ticker).Logger()
}

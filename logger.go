package sitemap

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	defaultLogger     zerolog.Logger
	defaultLoggerOnce sync.Once
)

// defaultZerologLogger returns the package's fallback logger, built lazily
// so importers who never touch logging never pay for a console writer.
func defaultZerologLogger() *zerolog.Logger {
	defaultLoggerOnce.Do(func() {
		defaultLogger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			With().
			Timestamp().
			Str("component", "sitemap").
			Logger()
	})
	return &defaultLogger
}

package sparkify

import (
	"fmt"
	"io"
	"log"
	"time"

	"github.com/rs/zerolog"
)

// Statter is the interface that stats collectors must implement to get stats
// out of a run.
type Statter interface {
	Count(name string, value int64, rate float64, tags ...string)
	Gauge(name string, value float64, rate float64, tags ...string)
	Histogram(name string, value float64, rate float64, tags ...string)
	Set(name string, value string, rate float64, tags ...string)
	Timing(name string, value time.Duration, rate float64, tags ...string)
}

// NopStatter does nothing.
type NopStatter struct{}

// Count does nothing.
func (NopStatter) Count(name string, value int64, rate float64, tags ...string) {}

// Gauge does nothing.
func (NopStatter) Gauge(name string, value float64, rate float64, tags ...string) {}

// Histogram does nothing.
func (NopStatter) Histogram(name string, value float64, rate float64, tags ...string) {}

// Set does nothing.
func (NopStatter) Set(name string, value string, rate float64, tags ...string) {}

// Timing does nothing.
func (NopStatter) Timing(name string, value time.Duration, rate float64, tags ...string) {}

// Logger is the interface that loggers must implement to get logs out of a
// run.
type Logger interface {
	Printf(format string, v ...interface{})
	Debugf(format string, v ...interface{})
}

// NopLogger logs nothing.
type NopLogger struct{}

// Printf does nothing.
func (NopLogger) Printf(format string, v ...interface{}) {}

// Debugf does nothing.
func (NopLogger) Debugf(format string, v ...interface{}) {}

// StdLogger only prints on Printf.
type StdLogger struct {
	*log.Logger
}

// Printf implements Logger interface.
func (s StdLogger) Printf(format string, v ...interface{}) {
	s.Logger.Printf(format, v...)
}

// Debugf implements Logger interface, but prints nothing.
func (StdLogger) Debugf(format string, v ...interface{}) {}

// VerboseLogger prints on both Printf and Debugf.
type VerboseLogger struct {
	*log.Logger
}

// Printf implements Logger interface.
func (s VerboseLogger) Printf(format string, v ...interface{}) {
	s.Logger.Printf(format, v...)
}

// Debugf implements Logger interface.
func (s VerboseLogger) Debugf(format string, v ...interface{}) {
	s.Logger.Printf(format, v...)
}

// ZeroLogger writes structured logs through zerolog. Printf logs at info
// level and Debugf at debug level.
type ZeroLogger struct {
	zerolog.Logger
}

// NewZeroLogger gets a ZeroLogger writing JSON lines to out. If console is
// set, it writes human readable lines instead.
func NewZeroLogger(out io.Writer, verbose, console bool) ZeroLogger {
	if console {
		out = zerolog.ConsoleWriter{Out: out, NoColor: true, TimeFormat: time.RFC3339}
	}
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return ZeroLogger{zerolog.New(out).Level(level).With().Timestamp().Logger()}
}

// Printf implements Logger interface.
func (z ZeroLogger) Printf(format string, v ...interface{}) {
	z.Logger.Info().Msg(fmt.Sprintf(format, v...))
}

// Debugf implements Logger interface.
func (z ZeroLogger) Debugf(format string, v ...interface{}) {
	z.Logger.Debug().Msgf(format, v...)
}

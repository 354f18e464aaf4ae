package steward

import (
	"fmt"
	"log"
	"os"
)

// SLogger is the steward logging interface. It's shared with the configuration gateway so
// that everything ends up in the same log stream
type SLogger interface {
	Printf(format string, v ...interface{})

	Debugf(format string, v ...interface{})
}

type sLogger struct {
	logger *log.Logger
	debug  bool
}

// NewSLogger creates a new steward logger writing to log. Debug statements are only written
// when debug is true
func NewSLogger(log *log.Logger, debug bool) (l *sLogger) {
	sl := new(sLogger)
	sl.debug = debug
	sl.logger = log
	return sl
}

// newDefaultLogger returns the logger used when none is provided with OptionLog
func newDefaultLogger(name string) *log.Logger {
	return log.New(os.Stdout, fmt.Sprintf("%s: ", name), log.Lshortfile|log.LstdFlags)
}

// Debugf logs a debug line after checking if the configuration is in debug mode
func (sl *sLogger) Debugf(format string, v ...interface{}) {
	if sl.debug {
		sl.logger.Output(2, fmt.Sprintf(format, v...))
	}
}

// Printf logs a line by delegating the call to Output
func (sl *sLogger) Printf(format string, v ...interface{}) {
	sl.logger.Output(2, fmt.Sprintf(format, v...))
}

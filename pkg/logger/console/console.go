package console

import (
	"os"

	"github.com/charmbracelet/log"
)

// ConsoleLogger is a logger.Sink writing styled output to stderr via
// charmbracelet/log.
type ConsoleLogger struct {
	l *log.Logger
}

// ConsoleLoggerParams configures a ConsoleLogger.
type ConsoleLoggerParams struct {
	Debug bool
}

// NewConsoleLogger builds a console sink. Debug drops the level floor
// from INFO to DEBUG.
func NewConsoleLogger(params ConsoleLoggerParams) *ConsoleLogger {
	level := log.InfoLevel
	if params.Debug {
		level = log.DebugLevel
	}
	return &ConsoleLogger{
		l: log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Level:           level,
		}),
	}
}

func (c *ConsoleLogger) Debug(message string, keyvals ...any) { c.l.Debug(message, keyvals...) }
func (c *ConsoleLogger) Info(message string, keyvals ...any)  { c.l.Info(message, keyvals...) }
func (c *ConsoleLogger) Warn(message string, keyvals ...any)  { c.l.Warn(message, keyvals...) }
func (c *ConsoleLogger) Error(message string, keyvals ...any) { c.l.Error(message, keyvals...) }

// Fatal logs at FATAL level and exits the process.
func (c *ConsoleLogger) Fatal(message string, keyvals ...any) { c.l.Fatal(message, keyvals...) }

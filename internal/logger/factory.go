package logger

import "github.com/charmbracelet/log"

// NewWithConfig creates a logger with explicit options.
func NewWithConfig(prefix string, level log.Level, caller bool, timestamp bool, formatter log.Formatter) *log.Logger {
	return log.NewWithOptions(Output, log.Options{
		Prefix:          prefix,
		Level:           level,
		ReportCaller:    caller,
		ReportTimestamp: timestamp,
		Formatter:       formatter,
	})
}

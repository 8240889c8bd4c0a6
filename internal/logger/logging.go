// Package logger builds charmbracelet/log loggers for the binaries. Every
// logger writes to stderr because stdout carries the IPC stream.
package logger

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Output is where loggers write.
var Output io.Writer = os.Stderr

var formatter = log.TextFormatter

// Setup points the package-level charm logger at Output and sets its level.
// Debug mode adds timestamps and the caller. jsonOutput switches every
// logger to one JSON object per line, for hosts that collect stderr.
func Setup(debug, jsonOutput bool) {
	formatter = log.TextFormatter
	if jsonOutput {
		formatter = log.JSONFormatter
	}
	log.SetOutput(Output)
	log.SetFormatter(formatter)
	if debug {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
		log.SetReportCaller(true)
		return
	}
	log.SetLevel(log.WarnLevel)
	log.SetReportTimestamp(false)
	log.SetReportCaller(false)
}

// New creates a prefixed logger at the global log level.
func New(prefix string) *log.Logger {
	return NewWithConfig(prefix, log.GetLevel(), false, log.GetLevel() <= log.DebugLevel, formatter)
}

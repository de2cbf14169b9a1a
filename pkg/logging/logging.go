package logging

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
)

// New creates the root logger. Unknown levels fall back to info.
func New(name, level string, jsonFormat bool, output io.Writer) hclog.Logger {
	if output == nil {
		output = os.Stderr
	}

	logLevel := hclog.LevelFromString(level)
	if logLevel == hclog.NoLevel {
		logLevel = hclog.Info
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      logLevel,
		Output:     output,
		JSONFormat: jsonFormat,
	})
}

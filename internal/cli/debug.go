package cli

import (
	"fmt"
	"os"
)

type DebugLogger struct {
	enabled bool
}

// NewDebugLogger enables output for log level debug or VOXFS_DEBUG
func NewDebugLogger(level string) *DebugLogger {
	enabled := level == "debug" ||
		os.Getenv("VOXFS_DEBUG") == "1" ||
		os.Getenv("VOXFS_DEBUG") == "true" ||
		os.Getenv("VOXFS_DEBUG") == "yes"
	return &DebugLogger{enabled: enabled}
}

func (d *DebugLogger) IsEnabled() bool {
	return d.enabled
}

func (d *DebugLogger) Printf(format string, args ...interface{}) {
	if !d.enabled {
		return
	}
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(os.Stderr, "[DEBUG] %s\n", msg)
}

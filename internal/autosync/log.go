package autosync

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Log appends timestamped leveled lines to the sync log file. Write
// failures are swallowed; the log must never disturb the caller.
type Log struct {
	path string
}

func NewLog(dir string) *Log {
	return &Log{path: filepath.Join(dir, "sync.log")}
}

func (l *Log) Info(format string, args ...any)  { l.write("INFO", format, args...) }
func (l *Log) Warn(format string, args ...any)  { l.write("WARN", format, args...) }
func (l *Log) Error(format string, args ...any) { l.write("ERROR", format, args...) }

func (l *Log) write(level, format string, args ...any) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] %s: %s\n", time.Now().UTC().Format(time.RFC3339), level, fmt.Sprintf(format, args...))
	_, _ = f.WriteString(line)
}

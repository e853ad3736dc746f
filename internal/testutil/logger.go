package testutil

import (
	"fmt"
	"sync"

	"github.com/darivadeneira/evento-web/core"
)

// Logger records log lines in memory.
type Logger struct {
	mu    sync.Mutex
	Lines []string
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	line := level + ": " + msg
	for _, arg := range args {
		line += fmt.Sprintf(" %v", arg)
	}
	l.Lines = append(l.Lines, line)
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("DEBUG", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("INFO", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log("WARN", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log("ERROR", msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) { l.log("FATAL", msg, args) }

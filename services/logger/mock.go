package logsvc

import (
	"fmt"
	"sync"

	"github.com/fmlibermann/website/core"
)

// Entry is a recorded log line.
type Entry struct {
	Level string
	Msg   string
	Args  []interface{}
}

func (e Entry) String() string {
	return fmt.Sprintf("%s: %s %v", e.Level, e.Msg, e.Args)
}

// LoggerMock records log lines instead of writing them.
type LoggerMock struct {
	mu      sync.Mutex
	entries []Entry
}

var _ core.Logger = (*LoggerMock)(nil)

func NewLoggerMock() *LoggerMock {
	return &LoggerMock{}
}

func (l *LoggerMock) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Entry{Level: level, Msg: msg, Args: args})
}

func (l *LoggerMock) Debug(msg string, args ...interface{}) { l.log("debug", msg, args) }
func (l *LoggerMock) Info(msg string, args ...interface{})  { l.log("info", msg, args) }
func (l *LoggerMock) Warn(msg string, args ...interface{})  { l.log("warn", msg, args) }
func (l *LoggerMock) Error(msg string, args ...interface{}) { l.log("error", msg, args) }
func (l *LoggerMock) Fatal(msg string, args ...interface{}) { l.log("fatal", msg, args) }

// Entries returns the recorded lines of level, or all of them when level is empty.
func (l *LoggerMock) Entries(level string) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var entries []Entry
	for _, e := range l.entries {
		if level == "" || e.Level == level {
			entries = append(entries, e)
		}
	}
	return entries
}

func (l *LoggerMock) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

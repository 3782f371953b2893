// Package logging provides a small leveled logger for the reconstruction
// pipeline and its command-line driver.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

// Level orders message severities.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
)

var levelTags = [...]string{"DEBUG", "INFO", "WARN"}

func (l Level) String() string {
	if l >= 0 && int(l) < len(levelTags) {
		return levelTags[l]
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// ParseLevel maps a level name to a Level. "error" is accepted and mutes
// everything below warnings. Unknown names map to LevelInfo with ok=false.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, true
	case "info", "":
		return LevelInfo, true
	case "warn", "warning", "error":
		return LevelWarn, true
	default:
		return LevelInfo, false
	}
}

// Logger writes messages at or above its level.
type Logger struct {
	min atomic.Int32
	out *log.Logger
}

// New returns a logger writing to w.
func New(w io.Writer, level Level) *Logger {
	l := &Logger{out: log.New(w, "", log.LstdFlags|log.LUTC)}
	l.min.Store(int32(level))
	return l
}

// SetLevelFromString sets the minimum level by name.
func (l *Logger) SetLevelFromString(s string) {
	level, _ := ParseLevel(s)
	l.min.Store(int32(level))
}

func (l *Logger) printf(level Level, format string, args ...any) {
	if int32(level) < l.min.Load() {
		return
	}
	l.out.Printf("[%s] %s", level, fmt.Sprintf(format, args...))
}

func (l *Logger) Debug(format string, args ...any) { l.printf(LevelDebug, format, args...) }
func (l *Logger) Info(format string, args ...any)  { l.printf(LevelInfo, format, args...) }
func (l *Logger) Warn(format string, args ...any)  { l.printf(LevelWarn, format, args...) }

var std = New(os.Stderr, LevelWarn)

// SetLevelFromString sets the level of the package logger.
func SetLevelFromString(s string) { std.SetLevelFromString(s) }

func Debug(format string, args ...any) { std.Debug(format, args...) }
func Info(format string, args ...any)  { std.Info(format, args...) }
func Warn(format string, args ...any)  { std.Warn(format, args...) }

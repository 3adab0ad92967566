// Package logger provides leveled logging with support for debug, info, warn, and error levels.
// It wraps the standard log package; the "text" format prefixes each line with
// its level and call site, the "json" format writes one JSON object per line.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents a logging level
type Level int

const (
	// DebugLevel logs are typically voluminous, and are usually disabled in production.
	DebugLevel Level = iota
	// InfoLevel is the default logging priority.
	InfoLevel
	// WarnLevel logs are more important than Info, but don't need individual human review.
	WarnLevel
	// ErrorLevel logs are high-priority. If the service is running smoothly, it shouldn't generate any error-level logs.
	ErrorLevel
)

var levelNames = map[Level]string{
	DebugLevel: "DEBUG",
	InfoLevel:  "INFO",
	WarnLevel:  "WARN",
	ErrorLevel: "ERROR",
}

// Logger provides leveled logging
type Logger struct {
	level  Level
	json   bool
	mu     sync.Mutex
	out    io.Writer
	logger *log.Logger
}

var (
	// Global logger instance
	defaultLogger *Logger
)

// ParseLevel maps a level name to a Level. Unknown names fall back to InfoLevel.
func ParseLevel(level string) Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Init initializes the default logger with the specified level and format, writing to stderr
func Init(level string, format string) {
	InitWithWriter(level, format, os.Stderr)
}

// InitWithWriter is Init with an explicit destination.
func InitWithWriter(level string, format string, w io.Writer) {
	isJSON := strings.ToLower(format) == "json"

	flags := log.LstdFlags | log.Lmicroseconds
	if !isJSON {
		flags |= log.Lshortfile
	} else {
		flags = 0
	}

	defaultLogger = &Logger{
		level:  ParseLevel(level),
		json:   isJSON,
		out:    w,
		logger: log.New(w, "", flags),
	}
}

func output(l Level, format string, args ...interface{}) {
	if defaultLogger == nil || defaultLogger.level > l {
		return
	}
	defaultLogger.write(levelNames[l], fmt.Sprintf(format, args...))
}

func (l *Logger) write(level, msg string) {
	if !l.json {
		_ = l.logger.Output(4, fmt.Sprintf("[%s] %s", level, msg))
		return
	}

	line, err := json.Marshal(struct {
		Time  string `json:"time"`
		Level string `json:"level"`
		Msg   string `json:"msg"`
	}{time.Now().UTC().Format(time.RFC3339Nano), strings.ToLower(level), msg})
	if err != nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.out.Write(append(line, '\n'))
}

// Debug logs a message at DebugLevel
func Debug(format string, args ...interface{}) {
	output(DebugLevel, format, args...)
}

// Info logs a message at InfoLevel
func Info(format string, args ...interface{}) {
	output(InfoLevel, format, args...)
}

// Warn logs a message at WarnLevel
func Warn(format string, args ...interface{}) {
	output(WarnLevel, format, args...)
}

// Error logs a message at ErrorLevel
func Error(format string, args ...interface{}) {
	output(ErrorLevel, format, args...)
}

// Fatal logs a message at ErrorLevel and exits
func Fatal(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if defaultLogger == nil {
		log.Fatal("[FATAL] " + msg)
	}
	defaultLogger.write("FATAL", msg)
	os.Exit(1)
}

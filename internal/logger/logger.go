// Package logger writes diagnostic output to stderr. Stdout is reserved
// for the JSON-RPC wire on the stdio transport, so nothing in this
// package ever touches it.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	instance *Logger
	once     sync.Once
)

// Logger writes timestamped lines to stderr and, optionally, a log file.
type Logger struct {
	infoLogger  *log.Logger
	errorLogger *log.Logger
	logFile     *os.File
	mu          sync.Mutex
}

// Init initializes the global logger. logDir may be empty, in which case
// only stderr is written.
func Init(logDir string) error {
	var initErr error
	once.Do(func() {
		instance, initErr = newLogger(logDir)
	})
	return initErr
}

func newLogger(logDir string) (*Logger, error) {
	var errWriter io.Writer = os.Stderr
	var infoWriter io.Writer = os.Stderr
	var logFile *os.File

	if logDir != "" {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		name := fmt.Sprintf("sessionmcp-%s.log", time.Now().Format("2006-01-02"))
		path := filepath.Join(logDir, name)

		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logFile = f
		infoWriter = io.MultiWriter(os.Stderr, f)
		errWriter = io.MultiWriter(os.Stderr, f)
	}

	return &Logger{
		infoLogger:  log.New(infoWriter, "", log.LstdFlags),
		errorLogger: log.New(errWriter, "ERROR: ", log.LstdFlags),
		logFile:     logFile,
	}, nil
}

// Close closes the underlying log file, if any.
func Close() error {
	if instance != nil && instance.logFile != nil {
		return instance.logFile.Close()
	}
	return nil
}

// Info logs an informational message.
func Info(format string, v ...interface{}) {
	ensure()
	instance.mu.Lock()
	defer instance.mu.Unlock()
	instance.infoLogger.Printf(format, v...)
}

// Error logs an error message.
func Error(format string, v ...interface{}) {
	ensure()
	instance.mu.Lock()
	defer instance.mu.Unlock()
	instance.errorLogger.Printf(format, v...)
}

// Debug logs a debug message. There is no separate verbosity gate;
// callers decide what is worth a line.
func Debug(format string, v ...interface{}) {
	ensure()
	instance.mu.Lock()
	defer instance.mu.Unlock()
	instance.infoLogger.Printf("DEBUG: "+format, v...)
}

// Fatal logs and exits.
func Fatal(v ...interface{}) {
	ensure()
	instance.mu.Lock()
	instance.errorLogger.Fatal(v...)
	instance.mu.Unlock()
}

// ensure lazily initializes a stderr-only logger if Init was never called,
// so library code never nil-panics when used from tests.
func ensure() {
	if instance == nil {
		once.Do(func() {
			instance, _ = newLogger("")
		})
	}
}

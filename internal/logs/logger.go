package logs

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	Logger  *logrus.Logger
	logFile *os.File
	mu      sync.Mutex
)

// The terminal belongs to the TUI, so nothing is written until Initialize
// points the logger at a file.
func init() {
	Logger = newLogger(io.Discard)
}

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// Initialize reinitializes the logger to write debug.log inside logDir.
func Initialize(logDir string) error {
	mu.Lock()
	defer mu.Unlock()

	if logDir == "" {
		logDir = "."
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return err
	}

	logPath := filepath.Join(logDir, "debug.log")
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		Logger.WithError(err).Warnf("failed to open log file at %s", logPath)
		return err
	}

	if logFile != nil {
		logFile.Close()
	}

	logFile = f
	level := Logger.GetLevel()
	Logger.SetOutput(f)
	Logger.SetLevel(level)

	Logger.WithField("path", logPath).Debug("logger initialized")
	return nil
}

// SetLevel parses a logrus level name; unknown names leave the level as is.
func SetLevel(name string) error {
	if name == "" {
		return nil
	}
	level, err := logrus.ParseLevel(name)
	if err != nil {
		return err
	}
	Logger.SetLevel(level)
	return nil
}

// Close closes the log file.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		err := logFile.Close()
		logFile = nil
		Logger.SetOutput(io.Discard)
		return err
	}
	return nil
}

package logging

import (
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
)

func Component(name string) *logrus.Entry {
	return logrus.WithField("component", name)
}

// SetupLogging configures the standard logrus logger. Output always goes to
// stderr; when logPath is set it is also written to a rotated log file.
func SetupLogging(verbose bool, logPath string) {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}

	if logPath == "" {
		logrus.SetOutput(os.Stderr)
		return
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		logrus.SetOutput(os.Stderr)
		logrus.Warnf("Failed to create log directory for %s: %v", logPath, err)
		return
	}

	fileWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}
	logrus.SetOutput(io.MultiWriter(os.Stderr, fileWriter))
}

func GetDefaultLogDir() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "secret-helper", "logs")
	}
	if os.Getuid() == 0 {
		return "/var/log/secret-helper"
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local/state/secret-helper/logs")
}

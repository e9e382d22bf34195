// Package logger configures the process-wide logrus logger used across the
// data core. Components obtain scoped entries via WithComponent so every line
// carries the package that emitted it.
package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is the shared logrus instance.
var Logger *logrus.Logger

func init() {
	Logger = logrus.New()
	Logger.SetOutput(os.Stdout)
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	Logger.SetLevel(logrus.InfoLevel)

	// Override from env, e.g., LOG_LEVEL=debug
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		if parsed, err := logrus.ParseLevel(strings.ToLower(level)); err == nil {
			Logger.SetLevel(parsed)
		}
	}
}

// WithComponent adds a component field to the logger.
func WithComponent(component string) *logrus.Entry {
	return Logger.WithField("component", component)
}

// SetLevel adjusts the shared logger level at runtime.
func SetLevel(level string) error {
	parsed, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		return err
	}
	Logger.SetLevel(parsed)
	return nil
}

package core

import (
	"os"

	"github.com/sirupsen/logrus"
)

// NewDefaultLogger creates the text logger used by the command line tools
func NewDefaultLogger(verbose bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

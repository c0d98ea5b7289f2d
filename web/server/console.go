package server

import (
	"time"

	"github.com/sirupsen/logrus"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "debug", "info", "warning", "error"
}

// ConsoleHook forwards log entries of one bake to the browser console
type ConsoleHook struct {
	bakeID      string
	consoleChan chan<- ConsoleMessage
}

// NewConsoleHook creates a hook that sends entries to consoleChan
func NewConsoleHook(bakeID string, consoleChan chan<- ConsoleMessage) *ConsoleHook {
	return &ConsoleHook{
		bakeID:      bakeID,
		consoleChan: consoleChan,
	}
}

// Levels implements logrus.Hook
func (h *ConsoleHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements logrus.Hook. It never blocks: when the channel is full
// the message is dropped.
func (h *ConsoleHook) Fire(entry *logrus.Entry) error {
	if h.consoleChan == nil {
		return nil
	}
	select {
	case h.consoleChan <- ConsoleMessage{
		Message:   entry.Message,
		Timestamp: entry.Time,
		Level:     entry.Level.String(),
	}:
	default:
	}
	return nil
}

// newConsoleLogger returns a logger for one bake that writes to the server
// log and to consoleChan
func newConsoleLogger(base logrus.FieldLogger, bakeID string, consoleChan chan<- ConsoleMessage) logrus.FieldLogger {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)
	if l, ok := base.(*logrus.Logger); ok {
		logger.SetOutput(l.Out)
		logger.SetFormatter(l.Formatter)
		logger.SetLevel(l.GetLevel())
	} else if e, ok := base.(*logrus.Entry); ok {
		logger.SetOutput(e.Logger.Out)
		logger.SetFormatter(e.Logger.Formatter)
		logger.SetLevel(e.Logger.GetLevel())
	}
	logger.AddHook(NewConsoleHook(bakeID, consoleChan))
	return logger.WithField("bake", bakeID)
}

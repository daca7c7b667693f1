package cropimage

import (
	"log/slog"
	"time"
)

// Notifier surfaces short user messages and long-running work. Sessions
// call it from their loop and worker goroutines, so implementations must be
// safe for concurrent use and must not call back into the session.
type Notifier interface {
	Notify(msg string)
	Busy(msg string) (done func())
}

type logNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) Notifier {
	if log == nil {
		log = slog.Default()
	}
	return &logNotifier{log: log}
}

func (n *logNotifier) Notify(msg string) {
	n.log.Info(msg)
}

func (n *logNotifier) Busy(msg string) func() {
	start := time.Now()
	n.log.Debug(msg)
	return func() {
		n.log.Debug(msg+" listo", "duration", time.Since(start))
	}
}

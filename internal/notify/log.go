package notify

import "go.uber.org/zap"

// Log is the default Notifier: it writes every message through the
// application logger rather than any external transport.
type Log struct {
	Logger *zap.Logger
}

func (l Log) Send(text string) {
	logger := l.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("notify", zap.String("message", text))
}

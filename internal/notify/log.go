package notify

import (
	"github.com/rs/zerolog"

	"github.com/sapphire-tools/liquidator/internal/logger"
)

// LogNotifier writes notifications to the structured log only. Used when no
// webhook is configured.
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier builds a log-only notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{log: logger.GetForComponent("notify")}
}

func (n *LogNotifier) Info(msg string) {
	n.log.Info().Msg(msg)
}

func (n *LogNotifier) Critical(msg string) {
	n.log.Error().Msg(msg)
}

func (n *LogNotifier) Close() {}

package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// AlertSounder plays an audible alarm on the host device. Best-effort: callers
// fire it in a goroutine and never wait on it.
type AlertSounder interface {
	Play(ctx context.Context)
}

// LogSounder stands in for real audio output on headless deployments.
type LogSounder struct {
	log zerolog.Logger
}

func NewLogSounder(log zerolog.Logger) *LogSounder { return &LogSounder{log: log} }

func (s *LogSounder) Play(ctx context.Context) {
	s.log.Info().Msg("alert sound (simulated)")
}

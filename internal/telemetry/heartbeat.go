package telemetry

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Heartbeat logs a periodic liveness line for the demo binary's
// background components. It carries no information about the content of
// any receipt, grant, or anchor — that's the health-ledger telemetry
// names as a deliberately out-of-scope collaborator.
func Heartbeat(ctx context.Context, log zerolog.Logger, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	log.Info().Msg("heartbeat: started")
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			log.Info().Msg("heartbeat: ok")
		}
	}
}

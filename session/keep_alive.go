package session

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// KeepAlive periodically refreshes the access token so it does not expire
// while the app is idle. It runs until ctx is cancelled. A refresh that
// fails transiently is retried on the next tick; a terminal refresh failure
// logs the session out, after which further ticks fail fast on the missing
// refresh token.
func KeepAlive(ctx context.Context, sess *Session, interval time.Duration) error {
	refresh := func() {
		if _, ok := sess.RefreshAccessToken(ctx); ok {
			log.Info().Msg("access token refreshed")
		}
	}

	// Run immediately on startup
	refresh()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("stopping session keep-alive")
			return ctx.Err()
		case <-ticker.C:
			refresh()
		}
	}
}

// Package service contains background jobs that run next to the API
package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SessionPruner deletes sessions that expired before the given time
type SessionPruner interface {
	DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error)
}

// SessionCleanup periodically removes expired sessions until ctx is done.
// The returned channel is closed once the cleanup goroutine has exited.
func SessionCleanup(ctx context.Context, t time.Duration, sessions SessionPruner) <-chan struct{} {
	done := make(chan struct{})
	ticker := time.NewTicker(t)

	zap.L().Debug("Session cleanup attached", zap.Duration("tick_every", t))

	go func() {
		defer close(done)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := sessions.DeleteExpiredSessions(ctx, time.Now())
				if err != nil {
					zap.L().Error("Failed to cleanup expired sessions", zap.Error(err))
					continue
				}

				if n > 0 {
					zap.L().Debug("Cleaned up expired sessions", zap.Int64("count", n))
				}
			}
		}
	}()

	return done
}

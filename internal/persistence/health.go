package persistence

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Pinger is satisfied by Postgres and Redis.
type Pinger interface {
	Ping(ctx context.Context) error
}

// WatchHealth probes p every interval. After maxFailures consecutive failed
// probes the returned channel receives the last error and the watcher stops;
// the pool is then considered broken and the process must shut down.
// The channel is closed without a value when ctx ends first.
func WatchHealth(ctx context.Context, p Pinger, interval time.Duration, maxFailures int, logger *zap.Logger) <-chan error {
	fatal := make(chan error, 1)
	if interval <= 0 {
		close(fatal)
		return fatal
	}
	if maxFailures <= 0 {
		maxFailures = 1
	}

	go func() {
		defer close(fatal)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		failures := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			pingCtx, cancel := context.WithTimeout(ctx, interval)
			err := p.Ping(pingCtx)
			cancel()
			if err == nil {
				if failures > 0 {
					logger.Info("postgres connectivity restored", zap.Int("failed_probes", failures))
				}
				failures = 0
				continue
			}
			if ctx.Err() != nil {
				return
			}

			failures++
			logger.Warn("postgres health probe failed", zap.Int("consecutive", failures), zap.Error(err))
			if failures >= maxFailures {
				fatal <- fmt.Errorf("postgres unhealthy after %d probes: %w", failures, err)
				return
			}
		}
	}()
	return fatal
}

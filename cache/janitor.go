package cache

import (
	"context"
	"log/slog"
	"time"
)

// RunJanitor purges expired entries from store every interval until ctx is done.
func RunJanitor(ctx context.Context, store Store, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.PurgeExpired(ctx)
			if err != nil {
				if ctx.Err() == nil {
					slog.Warn("cache janitor purge failed", "err", err)
				}
				continue
			}
			if n > 0 {
				slog.Debug("cache janitor purged expired entries", "count", n)
			}
		}
	}
}

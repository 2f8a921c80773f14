package services

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper is anything that can drop its own expired entries.
type Sweeper interface {
	Sweep() int
}

// CacheJanitor periodically sweeps an in-memory cache.
type CacheJanitor struct {
	cache    Sweeper
	interval time.Duration
	log      *slog.Logger
}

func NewCacheJanitor(cache Sweeper, interval time.Duration, log *slog.Logger) *CacheJanitor {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &CacheJanitor{cache: cache, interval: interval, log: log}
}

// Start runs the sweep loop in a goroutine until ctx is cancelled. The
// returned channel is closed once the loop has exited.
func (j *CacheJanitor) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	ticker := time.NewTicker(j.interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				j.RunOnce()
			}
		}
	}()
	return done
}

func (j *CacheJanitor) RunOnce() int {
	removed := j.cache.Sweep()
	if removed > 0 {
		j.log.Debug("swept expired cache entries", "removed", removed)
	}
	return removed
}

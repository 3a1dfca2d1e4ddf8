package cache

import (
	"context"
	"time"

	"aruskas/internal/log"
)

// Cleaner is implemented by stores that can drop expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Janitor periodically sweeps registered stores until its context ends.
type Janitor struct {
	stores []Cleaner
	logger *log.Logger
}

func NewJanitor(logger *log.Logger, stores ...Cleaner) *Janitor {
	if logger == nil {
		logger = log.Discard()
	}
	return &Janitor{stores: stores, logger: logger.WithComponent(log.ComponentCache)}
}

// Sweep cleans every store once and returns the number of dropped entries.
func (j *Janitor) Sweep() int {
	total := 0
	for _, s := range j.stores {
		total += s.CleanExpired()
	}
	return total
}

// Run sweeps every interval and returns when ctx is cancelled.
func (j *Janitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := j.Sweep(); n > 0 {
				j.logger.Debug("expired cache entries removed", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}

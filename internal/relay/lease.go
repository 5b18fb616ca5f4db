package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultLeaseTTL = 10 * time.Second

var (
	renewLease = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)

	releaseLease = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)
)

type leaseClient interface {
	redis.Scripter
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// Lease elects the instance that owns the live session. At most one holder
// exists per prefix; a holder that stops renewing loses it after the TTL.
type Lease struct {
	logger *slog.Logger
	client leaseClient
	key    string
	holder string
	ttl    time.Duration
	held   atomic.Bool
}

func NewLease(logger *slog.Logger, client leaseClient, prefix, holder string, ttl time.Duration) *Lease {
	if ttl <= 0 {
		ttl = defaultLeaseTTL
	}
	return &Lease{
		logger: logger.WithGroup("lease"),
		client: client,
		key:    prefix + ":owner",
		holder: holder,
		ttl:    ttl,
	}
}

// Held reports whether this instance held the lease at the last refresh.
func (l *Lease) Held() bool {
	return l.held.Load()
}

// Refresh takes the lease when it is free and extends it when this instance
// already holds it.
func (l *Lease) Refresh(ctx context.Context) (bool, error) {
	acquired, err := l.client.SetNX(ctx, l.key, l.holder, l.ttl).Result()
	if err != nil {
		l.held.Store(false)
		return false, fmt.Errorf("could not acquire lease %s: %w", l.key, err)
	}
	if acquired {
		l.held.Store(true)
		return true, nil
	}

	renewed, err := renewLease.Run(ctx, l.client, []string{l.key}, l.holder, l.ttl.Milliseconds()).Int()
	if err != nil {
		l.held.Store(false)
		return false, fmt.Errorf("could not renew lease %s: %w", l.key, err)
	}
	l.held.Store(renewed == 1)
	return renewed == 1, nil
}

// Release gives the lease up if this instance holds it.
func (l *Lease) Release(ctx context.Context) error {
	l.held.Store(false)
	if err := releaseLease.Run(ctx, l.client, []string{l.key}, l.holder).Err(); err != nil {
		return fmt.Errorf("could not release lease %s: %w", l.key, err)
	}
	return nil
}

// Run refreshes the lease until ctx is cancelled, then releases it.
func (l *Lease) Run(ctx context.Context) {
	ticker := time.NewTicker(l.ttl / 3)
	defer ticker.Stop()

	for {
		wasHeld := l.Held()
		held, err := l.Refresh(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			l.logger.Warn("Lease refresh failed", "error", err)
		case held && !wasHeld:
			l.logger.Info("Session ownership acquired", "holder", l.holder)
		case !held && wasHeld:
			l.logger.Warn("Session ownership lost", "holder", l.holder)
		}

		select {
		case <-ctx.Done():
			releaseCtx, cancel := context.WithTimeout(context.Background(), publishTimeout)
			if err := l.Release(releaseCtx); err != nil {
				l.logger.Warn("Lease release failed", "error", err)
			}
			cancel()
			return
		case <-ticker.C:
		}
	}
}

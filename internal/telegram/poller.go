package telegram

import (
	"context"
	"errors"
	"time"

	"github.com/ignite/vcfbot/internal/config"
	"github.com/ignite/vcfbot/internal/pkg/distlock"
	"github.com/ignite/vcfbot/internal/pkg/logger"
	"github.com/ignite/vcfbot/internal/service/session"
)

// PollLockKey names the leadership lock shared by all replicas.
const PollLockKey = "vcfbot:telegram-poller"

// Poller long-polls getUpdates. Only the replica holding the lock polls;
// the others stand by and take over when it lapses.
type Poller struct {
	client      *Client
	router      *Router
	lock        distlock.DistLock
	pollTimeout time.Duration
	lockTTL     time.Duration
	retryWait   time.Duration

	offset int64
}

// NewPoller creates a poller feeding router.
func NewPoller(client *Client, router *Router, lock distlock.DistLock, cfg config.TelegramConfig) *Poller {
	return &Poller{
		client:      client,
		router:      router,
		lock:        lock,
		pollTimeout: cfg.PollTimeout(),
		lockTTL:     cfg.PollLockTTL(),
		retryWait:   3 * time.Second,
	}
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	// getUpdates is refused while a webhook is registered.
	if err := p.client.DeleteWebhook(ctx); err != nil {
		logger.Warn("deleteWebhook failed", "error", err)
	}

	standby := false
	for ctx.Err() == nil {
		acquired, err := p.lock.Acquire(ctx)
		if err != nil {
			logger.Warn("poller lock unavailable", "error", err)
			sleep(ctx, p.retryWait)
			continue
		}
		if !acquired {
			if !standby {
				logger.Info("another replica is polling, standing by", "holder", p.holder(ctx))
				standby = true
			}
			sleep(ctx, p.standbyWait())
			continue
		}

		standby = false
		logger.Info("poller leadership acquired", "offset", p.offset)
		p.lead(ctx)

		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := p.lock.Release(releaseCtx); err != nil {
			logger.Warn("poller lock release failed", "error", err)
		}
		cancel()
	}
	return nil
}

// holder names the current leader when the lock backend can tell.
func (p *Poller) holder(ctx context.Context) string {
	h, ok := p.lock.(interface {
		Holder(context.Context) (string, error)
	})
	if !ok {
		return "unknown"
	}
	name, err := h.Holder(ctx)
	if err != nil || name == "" {
		return "unknown"
	}
	return name
}

func (p *Poller) standbyWait() time.Duration {
	if w := p.lockTTL / 3; w > p.retryWait {
		return w
	}
	return p.retryWait
}

// lead polls while the lock is held. It returns when ctx ends, the lock is
// lost, or the registry shuts down.
func (p *Poller) lead(ctx context.Context) {
	for ctx.Err() == nil {
		updates, err := p.client.GetUpdates(ctx, p.offset, p.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("getUpdates failed", "error", err)
			sleep(ctx, p.retryWait)
		}

		for _, u := range updates {
			if u.UpdateID >= p.offset {
				p.offset = u.UpdateID + 1
			}
			if err := p.router.Handle(ctx, u); err != nil {
				if errors.Is(err, session.ErrRegistryClosed) {
					return
				}
				logger.Warn("update dropped", "update_id", u.UpdateID, "error", err)
			}
		}

		if err := p.lock.Extend(ctx, p.lockTTL); err != nil {
			if ctx.Err() == nil {
				logger.Warn("poller leadership lost", "error", err)
			}
			return
		}
	}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

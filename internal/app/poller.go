package app

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultSyncInterval = 10 * time.Second
	maxBackoff          = 30 * time.Second
)

// Reconciler refreshes a local cart from the gateway.
type Reconciler interface {
	Reconcile(ctx context.Context) error
}

// StartPoller launches a background goroutine that reconciles the cart at a
// fixed cadence, backing off while the gateway keeps failing. It returns
// immediately.
func StartPoller(ctx context.Context, r Reconciler, interval time.Duration, log logrus.FieldLogger) {
	if interval <= 0 {
		interval = defaultSyncInterval
	}
	go func() {
		failures := 0
		for {
			wait := calculateBackoff(failures, interval)
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}

			if err := r.Reconcile(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				failures++
				log.WithError(err).WithField("failures", failures).Warn("cart reconcile failed")
				continue
			}
			if failures > 0 {
				log.WithField("after_failures", failures).Info("cart reconcile recovered")
			}
			failures = 0
		}
	}()
}

// calculateBackoff doubles base once per consecutive failure, capped at
// maxBackoff. A base already above the cap is returned unchanged.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 || base >= maxBackoff {
		return base
	}
	backoff := base
	for i := 0; i < failures; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}

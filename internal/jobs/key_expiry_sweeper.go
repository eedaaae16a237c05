// Package jobs holds the background loops that run alongside the HTTP server.
//
// key_expiry_sweeper.go implements the KeyExpirySweeper, which periodically
// converges stored API key statuses with their expiry timestamps. Expiry is
// always enforced at read time from ExpiresAt, so the platform is correct even
// if the sweeper never runs; the sweep only keeps the stored column honest for
// listings and external reporting. A key that is revoked is never touched:
// revocation wins over expiry.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/service-marketplace/service-marketplace/internal/db/models"
	"github.com/service-marketplace/service-marketplace/internal/store"
	"github.com/service-marketplace/service-marketplace/internal/telemetry"
)

// KeyExpirySweeper periodically marks overdue active keys as expired.
type KeyExpirySweeper struct {
	store    store.APIKeyStore
	interval time.Duration
	now      func() time.Time
	stopChan chan struct{}
}

// NewKeyExpirySweeper creates a new KeyExpirySweeper.
// interval controls how often the sweep runs (default 1h).
func NewKeyExpirySweeper(st store.APIKeyStore, interval time.Duration) *KeyExpirySweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &KeyExpirySweeper{
		store:    st,
		interval: interval,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
}

// WithClock overrides the sweeper's clock. Tests only.
func (s *KeyExpirySweeper) WithClock(now func() time.Time) *KeyExpirySweeper {
	s.now = now
	return s
}

// Start begins the background sweep loop.
// It runs an initial sweep immediately, then repeats on the configured
// interval. The loop exits when ctx is cancelled or Stop() is called.
func (s *KeyExpirySweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("key expiry sweeper started", "interval", s.interval)

	s.runSweep(ctx)

	for {
		select {
		case <-ticker.C:
			s.runSweep(ctx)
		case <-s.stopChan:
			slog.Info("key expiry sweeper stopped")
			return
		case <-ctx.Done():
			slog.Info("key expiry sweeper context cancelled")
			return
		}
	}
}

// Stop signals the background loop to exit.
func (s *KeyExpirySweeper) Stop() {
	close(s.stopChan)
}

// runSweep flips every stored-active key whose expiry has passed to expired.
// Returns the number of keys converged; errors are logged and the sweep moves
// on to the next key rather than aborting the pass.
func (s *KeyExpirySweeper) runSweep(ctx context.Context) int {
	keys, err := s.store.ListAPIKeys(ctx)
	if err != nil {
		slog.Error("key expiry sweeper: failed to list keys", "error", err)
		return 0
	}

	now := s.now()
	swept := 0
	for _, k := range keys {
		if k.Status != models.APIKeyActive {
			continue
		}
		if k.ExpiresAt.IsZero() || !now.After(k.ExpiresAt) {
			continue
		}

		k.Status = models.APIKeyExpired
		if err := s.store.PutAPIKey(ctx, k); err != nil {
			slog.Error("key expiry sweeper: failed to mark key expired", "key_id", k.ID, "error", err)
			continue
		}
		telemetry.APIKeysExpiredSweepTotal.Inc()
		swept++
	}

	if swept > 0 {
		slog.Info("key expiry sweeper: converged overdue keys", "count", swept)
	}
	return swept
}

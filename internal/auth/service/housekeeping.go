package service

import (
	"context"
	"time"

	"github.com/opspanel/authd/internal/auth/store"
	"github.com/opspanel/authd/pkg/slogx"
)

// Housekeeping periodically sweeps expired refresh credentials. Expired
// rows are already unusable (lookups check expiry), so the sweep is purely
// to keep the table from growing.
type Housekeeping struct {
	Store    store.Store
	Interval time.Duration
}

// Run sweeps on the configured interval until ctx is cancelled. One sweep
// runs immediately at startup.
func (h *Housekeeping) Run(ctx context.Context) {
	interval := h.Interval
	if interval <= 0 {
		interval = time.Hour
	}

	h.sweep(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.sweep(ctx)
		}
	}
}

func (h *Housekeeping) sweep(ctx context.Context) {
	log := slogx.FromContext(ctx)

	removed, err := h.Store.RefreshCredentials().DeleteExpired(ctx, time.Now())
	if err != nil {
		log.Error("housekeeping: sweep expired refresh credentials", "err", err)
		return
	}
	if removed > 0 {
		log.Info("housekeeping: removed expired refresh credentials", "count", removed)
	}
}

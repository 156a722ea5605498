package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// FluWarmer periodically refreshes the cached FluView feed of a few regions
type FluWarmer struct {
	flu     *FluService
	regions []string
	logger  *zap.SugaredLogger
}

// NewFluWarmer creates a new background cache warmer
func NewFluWarmer(flu *FluService, regions []string, logger *zap.SugaredLogger) *FluWarmer {
	return &FluWarmer{flu: flu, regions: regions, logger: logger}
}

// Start refreshes once, then every interval until ctx is done
func (w *FluWarmer) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("FluView warmer stopped")
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *FluWarmer) refresh(ctx context.Context) {
	for _, region := range w.regions {
		start := time.Now()
		if err := w.flu.Refresh(ctx, region); err != nil {
			w.logger.Warnw("FluView refresh failed", "region", region, "error", err)
			continue
		}
		w.logger.Debugw("FluView cache refreshed", "region", region, "took", time.Since(start))
	}
}

package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nikolayk812/stockcheckout/internal/port"
)

type SweeperConfig struct {
	Interval time.Duration
	TTL      time.Duration
}

// CartSweeper deletes carts that were not updated within the retention period.
type CartSweeper struct {
	carts   port.CartRepository
	cfg     SweeperConfig
	logger  *slog.Logger
	metrics *Metrics
	now     func() time.Time
}

func NewCartSweeper(carts port.CartRepository, cfg SweeperConfig, logger *slog.Logger, metrics *Metrics) *CartSweeper {
	return &CartSweeper{
		carts:   carts,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

func (s *CartSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
				s.logger.ErrorContext(ctx, "cart sweep", slog.Any("error", err))
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *CartSweeper) SweepOnce(ctx context.Context) (int64, error) {
	before := s.now().Add(-s.cfg.TTL)

	n, err := s.carts.DeleteExpired(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("carts.DeleteExpired: %w", err)
	}

	if n > 0 {
		s.metrics.swept.Add(float64(n))
		s.logger.InfoContext(ctx, "expired carts deleted", slog.Int64("count", n), slog.Time("before", before))
	}

	return n, nil
}

package payments

import (
	"context"
	"sync"
	"time"

	"pigent-app/internal/domain/billing"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type SweepOptions struct {
	OlderThan   time.Duration
	Limit       int
	Concurrency int
}

// SweepReport counts transactions by their status after the sweep.
// Unchanged ones are still pending.
type SweepReport struct {
	Checked   int
	Succeeded int
	Failed    int
	Unchanged int
	Errors    int
}

// Sweep reconciles pending transactions older than OlderThan against Paystack.
// It recovers payments whose webhook never arrived. A failure on one
// reference is logged and counted; the sweep continues with the rest.
func (s *Service) Sweep(ctx context.Context, opts SweepOptions) (*SweepReport, error) {
	if !s.gateway.Configured() {
		return nil, ErrGatewayDisabled
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}

	stale, err := s.ledger.ListStalePending(ctx, time.Now().Add(-opts.OlderThan), opts.Limit)
	if err != nil {
		return nil, err
	}

	report := &SweepReport{Checked: len(stale)}
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for _, t := range stale {
		ref := t.Reference
		g.Go(func() error {
			if gCtx.Err() != nil {
				return gCtx.Err()
			}
			_, err := s.reconcileShared(gCtx, ref)
			var after *billing.Transaction
			if err == nil {
				after, err = s.ledger.Get(gCtx, ref)
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Errors++
				s.logger.Warn("sweep: reconcile failed", zap.String("reference", ref), zap.Error(err))
				return nil
			}
			switch after.Status {
			case billing.StatusSuccess:
				report.Succeeded++
			case billing.StatusFailed:
				report.Failed++
			default:
				report.Unchanged++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	s.logger.Info("sweep finished",
		zap.Int("checked", report.Checked),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Int("unchanged", report.Unchanged),
		zap.Int("errors", report.Errors))
	return report, nil
}

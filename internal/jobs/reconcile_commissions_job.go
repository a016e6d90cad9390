package jobs

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/jutorials/backend/internal/ledger"
)

// reconcileGrace is how old a commission record must be before the sweep
// treats its missing credit as a crash artifact rather than an in-flight
// write.
const reconcileGrace = 5 * time.Minute

// ReconcileCommissionsJob repairs commissions whose record was written but
// whose balance credit never landed. The engine writes the commission record
// first and credits second, so a crash between the two leaves credited_at
// NULL; this sweep finishes the job.
type ReconcileCommissionsJob struct {
	store ledger.Store
	log   *zap.Logger
}

// NewReconcileCommissionsJob creates a new reconciliation job
func NewReconcileCommissionsJob(store ledger.Store, log *zap.Logger) *ReconcileCommissionsJob {
	return &ReconcileCommissionsJob{store: store, log: log}
}

// Run sweeps uncredited commissions older than the grace window and applies
// the missing credits. Each commission is handled independently so one
// failure does not block the rest.
func (j *ReconcileCommissionsJob) Run(ctx context.Context) error {
	commissions, err := j.store.ListUncreditedCommissions(ctx, time.Now().Add(-reconcileGrace))
	if err != nil {
		return err
	}
	if len(commissions) == 0 {
		return nil
	}

	j.log.Info("reconciling uncredited commissions", zap.Int("count", len(commissions)))

	for _, c := range commissions {
		if err := j.store.ApplyCommission(ctx, c.ReferrerID, c.Amount); err != nil {
			if errors.Is(err, ledger.ErrNotFound) {
				j.log.Error("uncredited commission references missing account",
					zap.String("commission_id", c.ID),
					zap.Int64("referrer_id", c.ReferrerID))
				continue
			}
			j.log.Error("failed to apply commission credit",
				zap.String("commission_id", c.ID),
				zap.Error(err))
			continue
		}

		if err := j.store.MarkCommissionCredited(ctx, c.ID, time.Now()); err != nil {
			// The credit landed but the marker didn't; the next sweep
			// would double-credit, so this needs eyes on it.
			j.log.Error("credited commission but failed to mark it",
				zap.String("commission_id", c.ID),
				zap.Error(err))
			continue
		}

		j.log.Info("reconciled commission",
			zap.String("commission_id", c.ID),
			zap.Int64("referrer_id", c.ReferrerID),
			zap.Int64("amount", c.Amount))
	}

	return nil
}

// file: internals/features/attendance/ledger/service/reconciler.go
package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"centerku_backend/internals/features/attendance/centers/resolver"
)

// EligibilityProvider: siapa boleh check-in di mana (students service).
type EligibilityProvider interface {
	Eligibility(ctx context.Context, studentID uuid.UUID) (resolver.Eligibility, error)
}

// Reconciler menyapu record resolution_deferred dan meresolusi ulang
// evidence tersimpannya begitu directory tersedia lagi.
type Reconciler struct {
	Ledger   *Ledger
	Students EligibilityProvider
	Batch    int
	Log      *zap.Logger
}

type SweepResult struct {
	Scanned  int
	Resolved int
	Deferred int
	Failed   int
}

func (r *Reconciler) RunOnce(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	logger := r.Log
	if logger == nil {
		logger = zap.NewNop()
	}

	recs, err := r.Ledger.ListDeferred(ctx, r.Batch)
	if err != nil {
		return res, err
	}
	res.Scanned = len(recs)

	for _, rec := range recs {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		elig, err := r.Students.Eligibility(ctx, rec.StudentID)
		if err != nil {
			res.Failed++
			reconciledTotal.WithLabelValues("failed").Inc()
			logger.Warn("reconcile: eligibility lookup failed",
				zap.String("record_id", rec.ID.String()),
				zap.String("student_id", rec.StudentID.String()),
				zap.Error(err),
			)
			continue
		}

		out, err := r.Ledger.Reconcile(ctx, rec.ID, elig)
		switch {
		case err != nil:
			res.Failed++
			reconciledTotal.WithLabelValues("failed").Inc()
			logger.Warn("reconcile: record failed",
				zap.String("record_id", rec.ID.String()),
				zap.Error(err),
			)
		case out.Kind == OutcomeDeferred:
			res.Deferred++
			reconciledTotal.WithLabelValues("deferred").Inc()
		default:
			res.Resolved++
			reconciledTotal.WithLabelValues("resolved").Inc()
		}
	}
	return res, nil
}

// Start menjalankan sweep terjadwal. Sweep yang masih jalan tidak ditumpuk.
func (r *Reconciler) Start(spec string, timeout time.Duration) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		res, err := r.RunOnce(ctx)
		if err != nil {
			log.Printf("[RECONCILE] sweep error: %v", err)
			return
		}
		if res.Scanned > 0 {
			log.Printf("[RECONCILE] scanned=%d resolved=%d deferred=%d failed=%d",
				res.Scanned, res.Resolved, res.Deferred, res.Failed)
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}

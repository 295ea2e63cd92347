package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/MiguelCoelho27/UALFlix/internal/metrics"
	"github.com/MiguelCoelho27/UALFlix/internal/model"
	"github.com/MiguelCoelho27/UALFlix/internal/store"
)

// DefaultSampleSize is the number of Primary records inspected per audit.
const DefaultSampleSize = 10

// DefaultAuditOpTimeout bounds each store call made during an audit.
const DefaultAuditOpTimeout = 5 * time.Second

// Auditor compares the Primary and Secondary stores and produces a
// divergence report. It is a diagnostic tool only: it never reconciles
// what it finds. The sample covers the first N records by insertion
// order, deliberately not an exhaustive or randomized scan.
type Auditor struct {
	primary    store.VideoStore
	secondary  store.VideoStore
	sampleSize int
	opTimeout  time.Duration
	metrics    *metrics.Metrics
	logger     *zap.Logger

	mu   sync.RWMutex
	last *model.ConsistencyReport
}

// NewAuditor creates a consistency auditor over the two stores. Every
// store call during an audit is bounded by opTimeout so a hung store
// cannot stall the periodic loop.
func NewAuditor(primary, secondary store.VideoStore, sampleSize int, opTimeout time.Duration, m *metrics.Metrics, logger *zap.Logger) *Auditor {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	if opTimeout <= 0 {
		opTimeout = DefaultAuditOpTimeout
	}
	return &Auditor{
		primary:    primary,
		secondary:  secondary,
		sampleSize: sampleSize,
		opTimeout:  opTimeout,
		metrics:    m,
		logger:     logger,
	}
}

// Check runs one audit and retains the report for Status queries. An
// error means the audit itself could not execute, not that the stores
// diverge.
func (a *Auditor) Check(ctx context.Context) (*model.ConsistencyReport, error) {
	var primaryCount int64
	if err := a.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		primaryCount, err = a.primary.Count(ctx)
		return err
	}); err != nil {
		a.metrics.RecordConsistencyCheck("error")
		return nil, fmt.Errorf("consistency check failed counting primary: %w", err)
	}

	var secondaryCount int64
	if err := a.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		secondaryCount, err = a.secondary.Count(ctx)
		return err
	}); err != nil {
		a.metrics.RecordConsistencyCheck("error")
		return nil, fmt.Errorf("consistency check failed counting secondary: %w", err)
	}

	var sample []*model.Video
	if err := a.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		sample, err = a.primary.SampleOldest(ctx, a.sampleSize)
		return err
	}); err != nil {
		a.metrics.RecordConsistencyCheck("error")
		return nil, fmt.Errorf("consistency check failed sampling primary: %w", err)
	}

	discrepancies := make([]model.Discrepancy, 0)
	for _, video := range sample {
		var replica *model.Video
		err := a.withTimeout(ctx, func(ctx context.Context) error {
			var err error
			replica, err = a.secondary.Get(ctx, video.ID)
			return err
		})
		if errors.Is(err, store.ErrNotFound) {
			discrepancies = append(discrepancies, model.Discrepancy{
				VideoID: video.ID,
				Issue:   model.MissingOnSecondary,
				Detail:  "record exists on primary but not on secondary",
			})
			continue
		}
		if err != nil {
			a.metrics.RecordConsistencyCheck("error")
			return nil, fmt.Errorf("consistency check failed reading secondary: %w", err)
		}
		if replica.Views != video.Views {
			discrepancies = append(discrepancies, model.Discrepancy{
				VideoID: video.ID,
				Issue:   model.ViewCountMismatch,
				Detail:  fmt.Sprintf("primary=%d secondary=%d", video.Views, replica.Views),
			})
		}
	}

	report := &model.ConsistencyReport{
		PrimaryCount:   primaryCount,
		SecondaryCount: secondaryCount,
		CountMatch:     primaryCount == secondaryCount,
		Discrepancies:  discrepancies,
		Consistent:     primaryCount == secondaryCount && len(discrepancies) == 0,
		CheckedAt:      time.Now().UTC(),
	}

	a.mu.Lock()
	a.last = report
	a.mu.Unlock()

	if report.Consistent {
		a.metrics.RecordConsistencyCheck("consistent")
	} else {
		a.metrics.RecordConsistencyCheck("divergent")
	}

	a.logger.Info("consistency check completed",
		zap.Int64("primary_count", primaryCount),
		zap.Int64("secondary_count", secondaryCount),
		zap.Int("discrepancies", len(discrepancies)),
		zap.Bool("consistent", report.Consistent))

	return report, nil
}

func (a *Auditor) withTimeout(ctx context.Context, fn func(context.Context) error) error {
	opCtx, cancel := context.WithTimeout(ctx, a.opTimeout)
	defer cancel()
	return fn(opCtx)
}

// Last returns the most recent report, or nil if no audit has run yet.
func (a *Auditor) Last() *model.ConsistencyReport {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last
}

// Run audits periodically until ctx is cancelled. Audit failures are
// logged and the loop continues.
func (a *Auditor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	a.logger.Info("periodic consistency auditing started",
		zap.Duration("interval", interval),
		zap.Int("sample_size", a.sampleSize))

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("periodic consistency auditing stopped")
			return
		case <-ticker.C:
			if _, err := a.Check(ctx); err != nil {
				a.logger.Error("periodic consistency check failed", zap.Error(err))
			}
		}
	}
}

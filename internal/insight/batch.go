package insight

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/vitrine-group/insight-cli/internal/model"
)

// BatchOptions tunes a batch run. Zero values mean: concurrency 1, no rate
// limit, no progress bar.
type BatchOptions struct {
	Concurrency int
	// RPS caps customer profile builds per second across all workers.
	RPS float64
	// Limit, when positive, processes only the first Limit customers.
	Limit    int
	Progress bool
}

// BatchReport summarizes one batch run. Profiles holds the built profiles
// sorted by customer code; Skipped counts customers excluded for having no
// qualifying sales, Failed those whose build errored.
type BatchReport struct {
	RunID      string
	AsOf       time.Time
	ConfigHash string
	Started    time.Time
	Elapsed    time.Duration

	Total    int
	Built    int
	Skipped  int
	Failed   int
	Profiles []*model.CustomerProfile
}

// RunBatch classifies every active customer. Individual customer failures are
// logged and counted, never fatal; the run only errors when the customer list
// itself cannot be fetched or the context is cancelled.
func (b *Builder) RunBatch(ctx context.Context, asOf time.Time, opts BatchOptions) (*BatchReport, error) {
	codes, err := b.repo.ActiveCustomers(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "insight: list active customers")
	}
	if opts.Limit > 0 && opts.Limit < len(codes) {
		codes = codes[:opts.Limit]
	}

	report := &BatchReport{
		RunID:      uuid.NewString(),
		AsOf:       asOf,
		ConfigHash: b.ConfigHash(),
		Started:    time.Now(),
		Total:      len(codes),
	}

	log := zap.L().With(zap.String("run_id", report.RunID))
	log.Info("insight: batch started",
		zap.Int("customers", len(codes)),
		zap.Time("as_of", asOf),
		zap.Int("concurrency", concurrencyOf(opts)),
	)

	var limiter *rate.Limiter
	if opts.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RPS), 1)
	}

	var bar *progressbar.ProgressBar
	if opts.Progress {
		bar = progressbar.Default(int64(len(codes)), "classifying")
	}

	var (
		mu       sync.Mutex
		profiles []*model.CustomerProfile

		skipped atomic.Int64
		failed  atomic.Int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrencyOf(opts))

	for _, code := range codes {
		g.Go(func() error {
			defer func() {
				if bar != nil {
					_ = bar.Add(1)
				}
			}()

			if limiter != nil {
				if err := limiter.Wait(gctx); err != nil {
					return err // context cancelled
				}
			}

			profile, err := b.BuildProfile(gctx, code, asOf)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failed.Add(1)
				log.Warn("insight: customer build failed",
					zap.String("customer", code),
					zap.Error(err))
				return nil // don't fail the group
			}
			if profile == nil {
				skipped.Add(1)
				return nil
			}

			mu.Lock()
			profiles = append(profiles, profile)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "insight: batch aborted")
	}

	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Code < profiles[j].Code })

	report.Profiles = profiles
	report.Built = len(profiles)
	report.Skipped = int(skipped.Load())
	report.Failed = int(failed.Load())
	report.Elapsed = time.Since(report.Started)

	log.Info("insight: batch finished",
		zap.Int("built", report.Built),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}

func concurrencyOf(opts BatchOptions) int {
	if opts.Concurrency < 1 {
		return 1
	}
	return opts.Concurrency
}

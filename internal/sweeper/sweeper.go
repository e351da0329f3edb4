// Package sweeper expires online orders whose checkout was abandoned.
package sweeper

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"
	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron"
	"github.com/rs/zerolog"
)

// Expirer expires pending orders created before cutoff.
type Expirer interface {
	ExpireStale(ctx context.Context, cutoff time.Time) (int, error)
}

// Options configures a Sweeper.
type Options struct {
	// Interval between passes.
	Interval time.Duration
	// TTL is how long an online order may wait for payment.
	TTL time.Duration
	// Timeout bounds a single pass. Defaults to Interval.
	Timeout time.Duration
	Clock   clockwork.Clock
}

// Sweeper runs Expirer on a cron schedule.
type Sweeper struct {
	expirer Expirer
	opts    Options
	cron    *cron.Cron
	running atomic.Bool
	logger  zerolog.Logger
}

// New creates a sweeper. It does not start until Start is called.
func New(expirer Expirer, opts Options, logger zerolog.Logger) (*Sweeper, error) {
	if expirer == nil {
		return nil, errors.New("expirer is required")
	}
	if opts.Interval <= 0 {
		return nil, errors.Errorf("invalid sweep interval %s", opts.Interval)
	}
	if opts.TTL <= 0 {
		return nil, errors.Errorf("invalid pending order TTL %s", opts.TTL)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = opts.Interval
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	return &Sweeper{
		expirer: expirer,
		opts:    opts,
		logger:  logger.With().Str("component", "sweeper").Logger(),
	}, nil
}

// RunOnce performs a single expiry pass.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	cutoff := s.opts.Clock.Now().Add(-s.opts.TTL)
	n, err := s.expirer.ExpireStale(ctx, cutoff)
	if err != nil {
		return n, errors.Wrap(err, "expire stale orders")
	}
	return n, nil
}

// Start schedules passes every Interval until ctx is done or Stop is called.
func (s *Sweeper) Start(ctx context.Context) error {
	c := cron.New()
	if err := c.AddFunc("@every "+s.opts.Interval.String(), func() { s.tick(ctx) }); err != nil {
		return errors.Wrap(err, "schedule sweep")
	}
	s.cron = c
	c.Start()

	s.logger.Info().
		Dur("interval", s.opts.Interval).
		Dur("ttl", s.opts.TTL).
		Msg("order expiry sweeper started")
	return nil
}

// Stop halts future passes. A pass in progress runs to completion.
func (s *Sweeper) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// tick runs one pass unless the previous one is still going.
func (s *Sweeper) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn().Msg("previous sweep still running, skipping")
		return
	}
	defer s.running.Store(false)

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	n, err := s.RunOnce(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("sweep failed")
		return
	}
	s.logger.Debug().Int("expired", n).Msg("sweep finished")
}

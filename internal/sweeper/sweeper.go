// Package sweeper auto-completes items that were left running. It sits
// outside the timer core and only calls the service like any client would.
package sweeper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Completer is the slice of the schedule service the sweeper drives.
type Completer interface {
	CompleteStale(ctx context.Context, cutoff time.Time) (int, error)
}

type Config struct {
	// StaleAfter disables the sweeper when zero or negative.
	StaleAfter time.Duration
	// Schedule is a cron expression or descriptor such as "@every 5m".
	Schedule string
	Location *time.Location
}

type Sweeper struct {
	cfg    Config
	target Completer
	now    func() time.Time
	logger zerolog.Logger
	parser cron.Parser

	mu sync.Mutex
	c  *cron.Cron
}

func New(cfg Config, target Completer, logger zerolog.Logger) *Sweeper {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Sweeper{
		cfg:    cfg,
		target: target,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
		parser: cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

func (s *Sweeper) Enabled() bool { return s.cfg.StaleAfter > 0 }

// RunOnce completes every item started more than StaleAfter ago.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	if !s.Enabled() {
		return 0, nil
	}
	cutoff := s.now().Add(-s.cfg.StaleAfter)
	n, err := s.target.CompleteStale(ctx, cutoff)
	if err != nil {
		return n, fmt.Errorf("sweep stale items: %w", err)
	}
	if n > 0 {
		s.logger.Info().Int("completed", n).Time("cutoff", cutoff).Msg("auto-completed stale items")
	}
	return n, nil
}

// Start registers the sweep on its cron schedule. It is a no-op when the
// sweeper is disabled or already running.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.Enabled() || s.c != nil {
		return nil
	}

	schedule, err := s.parser.Parse(s.cfg.Schedule)
	if err != nil {
		return fmt.Errorf("parse sweep schedule %q: %w", s.cfg.Schedule, err)
	}

	c := cron.New(cron.WithParser(s.parser), cron.WithLocation(s.cfg.Location))
	c.Schedule(schedule, cron.FuncJob(func() {
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Error().Err(err).Msg("sweep failed")
		}
	}))
	c.Start()
	s.c = c

	s.logger.Info().
		Str("schedule", s.cfg.Schedule).
		Dur("stale_after", s.cfg.StaleAfter).
		Msg("sweeper started")
	return nil
}

// Stop waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c == nil {
		return
	}
	<-s.c.Stop().Done()
	s.c = nil
}

// Package coaching produces short motivational tips for a progress snapshot.
package coaching

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"dayplan/internal/analytics"
)

// TipsSource generates tips for a snapshot, typically by calling a remote
// text generator.
type TipsSource interface {
	GenerateTips(ctx context.Context, snapshot analytics.Snapshot) ([]string, error)
}

type TipsSourceFunc func(ctx context.Context, snapshot analytics.Snapshot) ([]string, error)

func (f TipsSourceFunc) GenerateTips(ctx context.Context, snapshot analytics.Snapshot) ([]string, error) {
	return f(ctx, snapshot)
}

var genericTips = []string{
	"Focus on one micro-goal at a time.",
	"Take your breaks; they keep the next session sharp.",
	"If a goal feels stuck, split it into a smaller step.",
	"Celebrate each completed item, however small.",
}

// GenericTips returns the fixed fallback set.
func GenericTips() []string {
	return append([]string(nil), genericTips...)
}

// Advisor never fails: any problem with the source falls back to
// GenericTips.
type Advisor struct {
	source  TipsSource
	limiter *rate.Limiter
	timeout time.Duration
	logger  zerolog.Logger
}

type Option func(*Advisor)

// WithRateLimit bounds calls into the source. Calls over the limit get the
// generic tips.
func WithRateLimit(perMinute int) Option {
	return func(a *Advisor) {
		if perMinute <= 0 {
			a.limiter = nil
			return
		}
		a.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
	}
}

func WithTimeout(d time.Duration) Option {
	return func(a *Advisor) { a.timeout = d }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(a *Advisor) { a.logger = logger }
}

// NewAdvisor accepts a nil source.
func NewAdvisor(source TipsSource, opts ...Option) *Advisor {
	a := &Advisor{
		source:  source,
		timeout: 10 * time.Second,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Advisor) Tips(ctx context.Context, snapshot analytics.Snapshot) []string {
	if a.source == nil {
		return GenericTips()
	}
	if a.limiter != nil && !a.limiter.Allow() {
		a.logger.Debug().Msg("tips source rate limited, using generic tips")
		return GenericTips()
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	tips, err := a.source.GenerateTips(ctx, snapshot)
	if err != nil {
		a.logger.Warn().Err(err).Msg("tips source failed, using generic tips")
		return GenericTips()
	}
	cleaned := tips[:0:0]
	for _, tip := range tips {
		if tip != "" {
			cleaned = append(cleaned, tip)
		}
	}
	if len(cleaned) == 0 {
		return GenericTips()
	}
	return cleaned
}

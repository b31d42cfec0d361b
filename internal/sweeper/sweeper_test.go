package sweeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type recordingCompleter struct {
	mu      sync.Mutex
	cutoffs []time.Time
	result  int
	err     error
}

func (r *recordingCompleter) CompleteStale(_ context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cutoffs = append(r.cutoffs, cutoff)
	return r.result, r.err
}

func (r *recordingCompleter) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cutoffs)
}

func TestRunOnceUsesCutoff(t *testing.T) {
	target := &recordingCompleter{result: 2}
	s := New(Config{StaleAfter: 2 * time.Hour, Schedule: "@every 1m"}, target, zerolog.Nop())
	fixed := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	n, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, []time.Time{fixed.Add(-2 * time.Hour)}, target.cutoffs)
}

func TestDisabledSweeperDoesNothing(t *testing.T) {
	target := &recordingCompleter{}
	s := New(Config{Schedule: "not a schedule"}, target, zerolog.Nop())

	require.False(t, s.Enabled())
	n, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	require.Zero(t, n)
	require.NoError(t, s.Start(context.Background()))
	s.Stop()
	require.Zero(t, target.calls())
}

func TestRunOnceWrapsError(t *testing.T) {
	boom := errors.New("db closed")
	s := New(Config{StaleAfter: time.Minute}, &recordingCompleter{err: boom}, zerolog.Nop())
	_, err := s.RunOnce(context.Background())
	require.ErrorIs(t, err, boom)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := New(Config{StaleAfter: time.Minute, Schedule: "every now and then"}, &recordingCompleter{}, zerolog.Nop())
	require.Error(t, s.Start(context.Background()))
}

func TestStartRunsOnSchedule(t *testing.T) {
	target := &recordingCompleter{}
	s := New(Config{StaleAfter: time.Minute, Schedule: "@every 1s"}, target, zerolog.Nop())
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	require.Eventually(t, func() bool { return target.calls() > 0 }, 5*time.Second, 50*time.Millisecond)
}

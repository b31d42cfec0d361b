package coaching

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"dayplan/internal/analytics"
)

func TestTipsFallbacks(t *testing.T) {
	failing := TipsSourceFunc(func(context.Context, analytics.Snapshot) ([]string, error) {
		return nil, errors.New("upstream down")
	})
	empty := TipsSourceFunc(func(context.Context, analytics.Snapshot) ([]string, error) {
		return []string{"", ""}, nil
	})

	for name, advisor := range map[string]*Advisor{
		"nil source": NewAdvisor(nil),
		"error":      NewAdvisor(failing),
		"empty":      NewAdvisor(empty),
	} {
		require.Equal(t, GenericTips(), advisor.Tips(context.Background(), analytics.Snapshot{}), name)
	}
}

func TestTipsFromSource(t *testing.T) {
	src := TipsSourceFunc(func(_ context.Context, snap analytics.Snapshot) ([]string, error) {
		require.Equal(t, 2, snap.CompletedCount)
		return []string{"Nice pace.", ""}, nil
	})
	tips := NewAdvisor(src).Tips(context.Background(), analytics.Snapshot{CompletedCount: 2})
	require.Equal(t, []string{"Nice pace."}, tips)
}

func TestTipsRateLimited(t *testing.T) {
	calls := 0
	src := TipsSourceFunc(func(context.Context, analytics.Snapshot) ([]string, error) {
		calls++
		return []string{"custom"}, nil
	})
	advisor := NewAdvisor(src, WithRateLimit(1))

	require.Equal(t, []string{"custom"}, advisor.Tips(context.Background(), analytics.Snapshot{}))
	require.Equal(t, GenericTips(), advisor.Tips(context.Background(), analytics.Snapshot{}))
	require.Equal(t, 1, calls)
}

func TestGenericTipsIsACopy(t *testing.T) {
	tips := GenericTips()
	tips[0] = "changed"
	require.NotEqual(t, "changed", GenericTips()[0])
}

package scheduler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"dayplan/internal/clock"
	"dayplan/internal/model"
)

func at(raw string) *clock.TimeOfDay {
	t := clock.MustParse(raw)
	return &t
}

func items(minutes ...int) []model.WorkItem {
	out := make([]model.WorkItem, len(minutes))
	for i, m := range minutes {
		out[i] = model.WorkItem{Title: "goal", EstimatedMinutes: m, Order: 100 - i}
	}
	return out
}

type row struct {
	kind  model.ItemKind
	start string
	end   string
}

func rows(plan Plan) []row {
	out := make([]row, len(plan.Items))
	for i, item := range plan.Items {
		out[i] = row{kind: item.Kind}
		if item.StartTime != nil {
			out[i].start = item.StartTime.String()
			out[i].end = item.EndTime.String()
		}
	}
	return out
}

func TestBuildInsertsShortBreakAfterThreshold(t *testing.T) {
	plan, err := Build(items(15, 15, 15), at("09:00"), nil)
	require.NoError(t, err)

	require.Equal(t, []row{
		{model.KindWork, "09:00", "09:15"},
		{model.KindWork, "09:15", "09:30"},
		{model.KindBreak, "09:30", "09:35"},
		{model.KindWork, "09:35", "09:50"},
	}, rows(plan))
	require.Equal(t, model.BreakShort, plan.Items[2].BreakKind)
	require.Equal(t, 50, plan.TotalEstimatedMinutes)
	require.Equal(t, 45, plan.WorkMinutes())
	require.Equal(t, model.KindWork, plan.Items[len(plan.Items)-1].Kind)
}

func TestBuildFlagsOverflow(t *testing.T) {
	plan, err := Build(items(15, 15, 15), at("09:00"), at("09:40"))
	require.NoError(t, err)

	for i, item := range plan.Items[:3] {
		require.False(t, item.ExceedsWindow, "item %d", i)
	}
	require.True(t, plan.Items[3].ExceedsWindow)
}

func TestBuildRotatesLongBreaks(t *testing.T) {
	plan, err := Build(items(25, 25, 25, 25, 25, 25, 25, 25, 25, 25), at("06:00"), nil)
	require.NoError(t, err)

	var kinds []model.BreakKind
	for i, item := range plan.Items {
		if item.Kind != model.KindBreak {
			continue
		}
		require.Equal(t, model.KindWork, plan.Items[i-1].Kind, "breaks never touch")
		kinds = append(kinds, item.BreakKind)
		if item.BreakKind == model.BreakLong {
			require.Equal(t, 15, item.EstimatedMinutes)
		} else {
			require.Equal(t, 5, item.EstimatedMinutes)
		}
	}
	require.Equal(t, []model.BreakKind{
		model.BreakShort, model.BreakShort, model.BreakLong,
		model.BreakShort, model.BreakShort, model.BreakLong,
		model.BreakShort, model.BreakShort, model.BreakLong,
	}, kinds)
}

func TestBuildWithoutStartTime(t *testing.T) {
	plan, err := Build(items(40, 40, 40), nil, at("10:00"))
	require.NoError(t, err)
	require.Len(t, plan.Items, 3)
	for i, item := range plan.Items {
		require.Equal(t, model.KindWork, item.Kind)
		require.Nil(t, item.StartTime)
		require.Nil(t, item.EndTime)
		require.False(t, item.ExceedsWindow)
		require.Equal(t, i, item.Order)
	}
	require.Equal(t, 120, plan.TotalEstimatedMinutes)
}

func TestBuildEdgeCases(t *testing.T) {
	plan, err := Build(nil, at("09:00"), nil)
	require.NoError(t, err)
	require.Empty(t, plan.Items)
	require.Zero(t, plan.TotalEstimatedMinutes)

	plan, err = Build(items(90), at("09:00"), nil)
	require.NoError(t, err)
	require.Len(t, plan.Items, 1, "a single item never gets a trailing break")
}

func TestBuildRenumbersOrder(t *testing.T) {
	plan, err := Build(items(30, 10), at("09:00"), nil)
	require.NoError(t, err)
	for i, item := range plan.Items {
		require.Equal(t, i, item.Order)
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	input := items(10, 20, 5, 30, 25, 15)
	first, err := Build(input, at("08:00"), at("10:00"))
	require.NoError(t, err)
	second, err := Build(input, at("08:00"), at("10:00"))
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestBuildRejectsMidnightCrossing(t *testing.T) {
	_, err := Build(items(30, 30), at("23:00"), nil)
	require.Error(t, err)
	require.ErrorIs(t, err, model.ErrDayOverflow)
	require.True(t, model.IsValidation(err))
}

func TestCustomPolicy(t *testing.T) {
	policy := Policy{WorkThreshold: 50, ShortBreakMinutes: 10, LongBreakMinutes: 30, LongBreakEvery: 2}
	plan, err := policy.Build(items(25, 25, 25, 25, 25), at("09:00"), nil)
	require.NoError(t, err)

	require.Equal(t, []row{
		{model.KindWork, "09:00", "09:25"},
		{model.KindWork, "09:25", "09:50"},
		{model.KindBreak, "09:50", "10:00"},
		{model.KindWork, "10:00", "10:25"},
		{model.KindWork, "10:25", "10:50"},
		{model.KindBreak, "10:50", "11:20"},
		{model.KindWork, "11:20", "11:45"},
	}, rows(plan))
}

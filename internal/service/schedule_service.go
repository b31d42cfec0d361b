package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"dayplan/internal/clock"
	"dayplan/internal/coaching"
	apperrors "dayplan/internal/errors"
	"dayplan/internal/goalsource"
	"dayplan/internal/model"
	"dayplan/internal/observability"
	"dayplan/internal/repository"
	"dayplan/internal/scheduler"
)

// Repository is the persistence the service needs. A transition is only
// considered committed once CommitTransition returns nil.
type Repository interface {
	CreateSchedule(ctx context.Context, schedule *model.Schedule) error
	ReplaceItems(ctx context.Context, schedule *model.Schedule) error
	GetSchedule(ctx context.Context, id string) (*model.Schedule, error)
	ListSchedules(ctx context.Context, confirmedOnly bool) ([]model.Schedule, error)
	DeleteSchedule(ctx context.Context, id string) error
	ScheduleIDForItem(ctx context.Context, itemID string) (string, error)
	LoadTimers(ctx context.Context, scheduleID string) ([]model.TimerState, []model.ExecutionEvent, error)
	CommitTransition(ctx context.Context, scheduleID string, changed []model.TimerState, event *model.ExecutionEvent, now time.Time) error
	StaleActiveItems(ctx context.Context, cutoff time.Time) ([]repository.StaleItem, error)
}

type ScheduleService struct {
	repo     Repository
	goals    goalsource.Source
	advisor  *coaching.Advisor
	policy   scheduler.Policy
	location *time.Location
	now      func() time.Time
	logger   zerolog.Logger
	locks    *scheduleLocks
}

type Option func(*ScheduleService)

func WithGoalSource(src goalsource.Source) Option {
	return func(s *ScheduleService) { s.goals = src }
}

func WithAdvisor(advisor *coaching.Advisor) Option {
	return func(s *ScheduleService) { s.advisor = advisor }
}

func WithPolicy(policy scheduler.Policy) Option {
	return func(s *ScheduleService) { s.policy = policy }
}

func WithLocation(loc *time.Location) Option {
	return func(s *ScheduleService) { s.location = loc }
}

func WithClock(now func() time.Time) Option {
	return func(s *ScheduleService) { s.now = now }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *ScheduleService) { s.logger = logger }
}

func NewScheduleService(repo Repository, opts ...Option) *ScheduleService {
	s := &ScheduleService{
		repo:     repo,
		goals:    goalsource.LineSource{},
		advisor:  coaching.NewAdvisor(nil),
		policy:   scheduler.DefaultPolicy,
		location: time.Local,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   zerolog.Nop(),
		locks:    newScheduleLocks(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ItemView joins a plan row with its live timer. Breaks carry no timer.
type ItemView struct {
	model.ScheduledItem
	Timer *model.TimerState `json:"timer,omitempty"`
}

type ScheduleView struct {
	ID                    string           `json:"id"`
	UserInput             string           `json:"userInput"`
	StartTime             *clock.TimeOfDay `json:"startTime,omitempty"`
	EndTime               *clock.TimeOfDay `json:"endTime,omitempty"`
	Confirmed             bool             `json:"confirmed"`
	TotalEstimatedMinutes int              `json:"totalEstimatedMinutes"`
	TotalWorkMinutes      int              `json:"totalWorkMinutes"`
	Items                 []ItemView       `json:"items"`
	CreatedAt             time.Time        `json:"createdAt"`
	UpdatedAt             time.Time        `json:"updatedAt"`
}

type BreakdownInput struct {
	Text      string
	StartTime string
	EndTime   string
}

type ScheduleInput struct {
	UserInput string
	Items     []model.WorkItem
	StartTime string
	EndTime   string
}

// Breakdown asks the goal source for work items and stores an unconfirmed
// schedule. An empty or unreadable source result yields an empty schedule.
func (s *ScheduleService) Breakdown(ctx context.Context, input BreakdownInput) (*ScheduleView, *apperrors.APIError) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, apperrors.BadRequest("invalid_text", "text is required")
	}
	start, end, apiErr := parseWindow(input.StartTime, input.EndTime)
	if apiErr != nil {
		return nil, apiErr
	}

	goals, err := goalsource.Fetch(ctx, s.goals, text)
	if err != nil {
		observability.RecordGoalSourceFailure()
		s.logger.Error().Err(err).Msg("goal source failed")
		return nil, apperrors.FromDomain(err, "failed to break down tasks")
	}
	items, err := goalsource.ToWorkItems(goals)
	if err != nil {
		return nil, apperrors.FromDomain(err, "failed to read goals")
	}

	return s.create(ctx, "breakdown", text, items, start, end, false)
}

// Schedule plans caller-supplied items and stores them as confirmed.
func (s *ScheduleService) Schedule(ctx context.Context, input ScheduleInput) (*ScheduleView, *apperrors.APIError) {
	start, end, apiErr := parseWindow(input.StartTime, input.EndTime)
	if apiErr != nil {
		return nil, apiErr
	}
	if err := model.ValidateWorkItems(input.Items); err != nil {
		return nil, apperrors.FromDomain(err, "invalid items")
	}
	return s.create(ctx, "manual", strings.TrimSpace(input.UserInput), input.Items, start, end, true)
}

// Confirm replaces the items of a schedule with an edited list, re-plans them
// against the stored window and marks the schedule confirmed.
func (s *ScheduleService) Confirm(ctx context.Context, scheduleID string, items []model.WorkItem) (*ScheduleView, *apperrors.APIError) {
	if err := model.ValidateWorkItems(items); err != nil {
		return nil, apperrors.FromDomain(err, "invalid items")
	}

	unlock := s.locks.lock(scheduleID)
	defer unlock()

	schedule, err := s.repo.GetSchedule(ctx, scheduleID)
	if err != nil {
		return nil, scheduleErr(err, "failed to get schedule")
	}

	plan, err := s.policy.Build(items, schedule.StartTime, schedule.EndTime)
	if err != nil {
		return nil, apperrors.FromDomain(err, "failed to plan schedule")
	}
	assignIDs(plan.Items)

	schedule.Items = plan.Items
	schedule.TotalEstimatedMinutes = plan.TotalEstimatedMinutes
	schedule.Confirmed = true
	schedule.UpdatedAt = s.now()

	if err := s.repo.ReplaceItems(ctx, schedule); err != nil {
		return nil, scheduleErr(err, "failed to confirm schedule")
	}
	observability.RecordSchedulePlanned("confirm", plan.TotalEstimatedMinutes)
	s.logger.Info().Str("schedule_id", scheduleID).Int("items", len(plan.Items)).Msg("schedule confirmed")

	return toScheduleView(schedule, nil), nil
}

func (s *ScheduleService) Get(ctx context.Context, scheduleID string) (*ScheduleView, *apperrors.APIError) {
	schedule, err := s.repo.GetSchedule(ctx, scheduleID)
	if err != nil {
		return nil, scheduleErr(err, "failed to get schedule")
	}
	states, _, err := s.repo.LoadTimers(ctx, scheduleID)
	if err != nil {
		return nil, apperrors.Internal("failed to load timers")
	}
	return toScheduleView(schedule, states), nil
}

func (s *ScheduleService) List(ctx context.Context, confirmedOnly bool) ([]ScheduleView, *apperrors.APIError) {
	schedules, err := s.repo.ListSchedules(ctx, confirmedOnly)
	if err != nil {
		return nil, apperrors.Internal("failed to list schedules")
	}
	views := make([]ScheduleView, 0, len(schedules))
	for i := range schedules {
		views = append(views, *toScheduleView(&schedules[i], nil))
	}
	return views, nil
}

func (s *ScheduleService) Delete(ctx context.Context, scheduleID string) *apperrors.APIError {
	unlock := s.locks.lock(scheduleID)
	defer unlock()

	if err := s.repo.DeleteSchedule(ctx, scheduleID); err != nil {
		return scheduleErr(err, "failed to delete schedule")
	}
	s.logger.Info().Str("schedule_id", scheduleID).Msg("schedule deleted")
	return nil
}

func (s *ScheduleService) create(
	ctx context.Context,
	origin, userInput string,
	items []model.WorkItem,
	start, end *clock.TimeOfDay,
	confirmed bool,
) (*ScheduleView, *apperrors.APIError) {
	plan, err := s.policy.Build(items, start, end)
	if err != nil {
		return nil, apperrors.FromDomain(err, "failed to plan schedule")
	}
	assignIDs(plan.Items)

	now := s.now()
	schedule := model.Schedule{
		ID:                    uuid.NewString(),
		UserInput:             userInput,
		StartTime:             start,
		EndTime:               end,
		Confirmed:             confirmed,
		TotalEstimatedMinutes: plan.TotalEstimatedMinutes,
		Items:                 plan.Items,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := s.repo.CreateSchedule(ctx, &schedule); err != nil {
		s.logger.Error().Err(err).Msg("create schedule")
		return nil, apperrors.Internal("failed to create schedule")
	}

	observability.RecordSchedulePlanned(origin, plan.TotalEstimatedMinutes)
	s.logger.Info().
		Str("schedule_id", schedule.ID).
		Str("origin", origin).
		Int("items", len(plan.Items)).
		Int("total_minutes", plan.TotalEstimatedMinutes).
		Msg("schedule planned")

	return toScheduleView(&schedule, nil), nil
}

func parseWindow(rawStart, rawEnd string) (*clock.TimeOfDay, *clock.TimeOfDay, *apperrors.APIError) {
	start, err := clock.ParseOptional(rawStart)
	if err != nil {
		return nil, nil, apperrors.BadRequest("invalid_start_time", "startTime must be HH:MM")
	}
	end, err := clock.ParseOptional(rawEnd)
	if err != nil {
		return nil, nil, apperrors.BadRequest("invalid_end_time", "endTime must be HH:MM")
	}
	return start, end, nil
}

func assignIDs(items []model.ScheduledItem) {
	for i := range items {
		items[i].ID = uuid.NewString()
	}
}

func scheduleErr(err error, fallback string) *apperrors.APIError {
	if err == repository.ErrNotFound {
		return apperrors.NotFound("schedule_not_found", "schedule not found")
	}
	return apperrors.FromDomain(err, fallback)
}

func toScheduleView(schedule *model.Schedule, states []model.TimerState) *ScheduleView {
	byItem := make(map[string]model.TimerState, len(states))
	for _, st := range states {
		byItem[st.ItemID] = st
	}

	view := &ScheduleView{
		ID:                    schedule.ID,
		UserInput:             schedule.UserInput,
		StartTime:             schedule.StartTime,
		EndTime:               schedule.EndTime,
		Confirmed:             schedule.Confirmed,
		TotalEstimatedMinutes: schedule.TotalEstimatedMinutes,
		Items:                 make([]ItemView, 0, len(schedule.Items)),
		CreatedAt:             schedule.CreatedAt,
		UpdatedAt:             schedule.UpdatedAt,
	}
	for _, item := range schedule.Items {
		iv := ItemView{ScheduledItem: item}
		if item.IsWork() {
			view.TotalWorkMinutes += item.EstimatedMinutes
			st, ok := byItem[item.ID]
			if !ok {
				st = model.TimerState{ItemID: item.ID}
			}
			iv.Timer = &st
		}
		view.Items = append(view.Items, iv)
	}
	return view
}

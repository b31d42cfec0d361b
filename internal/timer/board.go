// Package timer implements the per-item execution timer as a schedule-level
// aggregate. A Board owns every TimerState of one schedule so that the
// "at most one active item" rule is enforced in a single place.
package timer

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"dayplan/internal/model"
)

// Transition is the full effect of one successful operation. Changed holds
// the target state first, followed by any item that was deactivated.
type Transition struct {
	Event   model.ExecutionEvent
	Changed []model.TimerState
}

type Board struct {
	mu     sync.Mutex
	states map[string]*model.TimerState
	events map[string][]model.ExecutionEvent
	seq    int64
	newID  func() string
}

type Option func(*Board)

// WithIDGenerator replaces uuid event ids, mostly for tests.
func WithIDGenerator(fn func() string) Option {
	return func(b *Board) { b.newID = fn }
}

// NewBoard rebuilds a board from persisted rows. Work items without a stored
// state start out as NotStarted.
func NewBoard(itemIDs []string, states []model.TimerState, events []model.ExecutionEvent, opts ...Option) *Board {
	b := &Board{
		states: make(map[string]*model.TimerState, len(itemIDs)),
		events: make(map[string][]model.ExecutionEvent, len(itemIDs)),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	for _, id := range itemIDs {
		b.states[id] = &model.TimerState{ItemID: id}
	}
	for _, st := range states {
		copied := st
		b.states[st.ItemID] = &copied
	}

	sorted := append([]model.ExecutionEvent(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Seq < sorted[j].Seq })
	for _, ev := range sorted {
		b.events[ev.ItemID] = append(b.events[ev.ItemID], ev)
		if ev.Seq > b.seq {
			b.seq = ev.Seq
		}
	}
	return b
}

func (b *Board) Start(itemID string, now time.Time) (Transition, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	st, err := b.lookup(itemID)
	if err != nil {
		return Transition{}, err
	}
	if st.Completed {
		return Transition{}, invalid(itemID, model.ActionStart, "item is completed")
	}

	changed := b.deactivateOthers(itemID)
	st.IsActive = true
	st.IsPaused = false
	if st.ActualStartTime == nil {
		started := now
		st.ActualStartTime = &started
	}
	return b.commit(st, model.ActionStart, now, changed), nil
}

func (b *Board) Pause(itemID string, now time.Time) (Transition, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	st, err := b.lookup(itemID)
	if err != nil {
		return Transition{}, err
	}
	if !st.IsActive || st.IsPaused || st.Completed {
		return Transition{}, invalid(itemID, model.ActionPause, "item is not running")
	}

	st.IsPaused = true
	return b.commit(st, model.ActionPause, now, nil), nil
}

func (b *Board) Resume(itemID string, now time.Time) (Transition, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	st, err := b.lookup(itemID)
	if err != nil {
		return Transition{}, err
	}
	if !st.IsPaused || st.Completed {
		return Transition{}, invalid(itemID, model.ActionResume, "item is not paused")
	}

	changed := b.deactivateOthers(itemID)
	st.IsActive = true
	st.IsPaused = false
	return b.commit(st, model.ActionResume, now, changed), nil
}

// Complete ends the item. Time spent becomes the wall-clock span from the
// first start, paused intervals included.
func (b *Board) Complete(itemID string, now time.Time) (Transition, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	st, err := b.lookup(itemID)
	if err != nil {
		return Transition{}, err
	}
	if st.Completed {
		return Transition{}, invalid(itemID, model.ActionComplete, "item is already completed")
	}

	ended := now
	st.Completed = true
	st.IsActive = false
	st.IsPaused = false
	st.ActualEndTime = &ended
	if st.ActualStartTime != nil {
		elapsed := int(ended.Sub(*st.ActualStartTime) / time.Second)
		if elapsed < 0 {
			elapsed = 0
		}
		st.TimeSpentSeconds = elapsed
	}
	return b.commit(st, model.ActionComplete, now, nil), nil
}

// ReportElapsed overwrites time spent from a client-side ticking clock. No
// event is logged.
func (b *Board) ReportElapsed(itemID string, seconds int) (model.TimerState, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	st, err := b.lookup(itemID)
	if err != nil {
		return model.TimerState{}, err
	}
	if seconds < 0 {
		return model.TimerState{}, model.Invalid("seconds", "elapsed seconds must not be negative")
	}
	if st.Completed {
		return model.TimerState{}, fmt.Errorf("%w: item %s is completed", model.ErrInvalidTransition, itemID)
	}
	st.TimeSpentSeconds = seconds
	return *st, nil
}

func (b *Board) State(itemID string) (model.TimerState, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.states[itemID]
	if !ok {
		return model.TimerState{}, false
	}
	return *st, true
}

// Events returns a copy of the item's log in append order.
func (b *Board) Events(itemID string) []model.ExecutionEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.ExecutionEvent(nil), b.events[itemID]...)
}

// Active returns the id of the item currently holding activity.
func (b *Board) Active() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, st := range b.states {
		if st.IsActive {
			return id, true
		}
	}
	return "", false
}

// States returns a snapshot of every timer keyed by item id.
func (b *Board) States() map[string]model.TimerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]model.TimerState, len(b.states))
	for id, st := range b.states {
		out[id] = *st
	}
	return out
}

func (b *Board) lookup(itemID string) (*model.TimerState, error) {
	st, ok := b.states[itemID]
	if !ok {
		return nil, fmt.Errorf("%w: item %s", model.ErrNotFound, itemID)
	}
	return st, nil
}

// deactivateOthers must run only after every precondition has passed.
func (b *Board) deactivateOthers(itemID string) []model.TimerState {
	var changed []model.TimerState
	for id, st := range b.states {
		if id == itemID || !st.IsActive {
			continue
		}
		st.IsActive = false
		changed = append(changed, *st)
	}
	sort.Slice(changed, func(i, j int) bool { return changed[i].ItemID < changed[j].ItemID })
	return changed
}

func (b *Board) commit(st *model.TimerState, action model.Action, now time.Time, others []model.TimerState) Transition {
	b.seq++
	ev := model.ExecutionEvent{
		ID:               b.newID(),
		ItemID:           st.ItemID,
		Action:           action,
		Timestamp:        now,
		TimeSpentAtEvent: st.TimeSpentSeconds,
		Seq:              b.seq,
	}
	b.events[st.ItemID] = append(b.events[st.ItemID], ev)
	return Transition{
		Event:   ev,
		Changed: append([]model.TimerState{*st}, others...),
	}
}

func invalid(itemID string, action model.Action, reason string) error {
	return fmt.Errorf("%w: cannot %s item %s: %s", model.ErrInvalidTransition, action, itemID, reason)
}

// Package goalsource turns a free-text description of the day into work
// items. Text generation itself happens elsewhere; this package only defines
// the capability and decodes what such a generator returns.
package goalsource

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"dayplan/internal/model"
)

// RawGoal is one entry as produced by a source. A nil EstimatedMinutes means
// the source did not provide a duration.
type RawGoal struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	EstimatedMinutes *int   `json:"estimated_minutes,omitempty"`
	Order            *int   `json:"order,omitempty"`
}

type Source interface {
	Breakdown(ctx context.Context, text string) ([]RawGoal, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, text string) ([]RawGoal, error)

func (f SourceFunc) Breakdown(ctx context.Context, text string) ([]RawGoal, error) {
	return f(ctx, text)
}

// Fetch calls src and classifies failures as upstream unavailability.
func Fetch(ctx context.Context, src Source, text string) ([]RawGoal, error) {
	goals, err := src.Breakdown(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: goal source: %v", model.ErrUpstreamUnavailable, err)
	}
	return goals, nil
}

// ToWorkItems applies the default duration where one is missing and
// validates the result. Explicit non-positive durations are rejected, not
// clamped.
func ToWorkItems(goals []RawGoal) ([]model.WorkItem, error) {
	items := make([]model.WorkItem, 0, len(goals))
	for i, g := range goals {
		minutes := model.DefaultEstimatedMinutes
		if g.EstimatedMinutes != nil {
			minutes = *g.EstimatedMinutes
		}
		order := i
		if g.Order != nil {
			order = *g.Order
		}
		items = append(items, model.WorkItem{
			Title:            strings.TrimSpace(g.Title),
			Description:      strings.TrimSpace(g.Description),
			EstimatedMinutes: minutes,
			Order:            order,
		})
	}
	if err := model.ValidateWorkItems(items); err != nil {
		return nil, err
	}
	return items, nil
}

// GeneratedSource wraps a text generator and decodes its output with
// ParseGenerated.
type GeneratedSource struct {
	Generate func(ctx context.Context, prompt string) (string, error)
}

func (s GeneratedSource) Breakdown(ctx context.Context, text string) ([]RawGoal, error) {
	raw, err := s.Generate(ctx, Prompt(text))
	if err != nil {
		return nil, err
	}
	return ParseGenerated(raw), nil
}

// Prompt builds the instruction sent to a text generator.
func Prompt(text string) string {
	var b strings.Builder
	b.WriteString("Break down these tasks into small, focused micro-goals:\n\n")
	b.WriteString(text)
	b.WriteString("\n\nRules:\n")
	b.WriteString("- Keep each micro-goal to 10-20 minutes\n")
	b.WriteString("- Split large tasks into smaller steps\n")
	b.WriteString("- Order logically, dependencies first\n")
	b.WriteString("- Add a brief description\n")
	b.WriteString("Breaks are added automatically after 25+ minutes of work.\n\n")
	b.WriteString(`Return only a JSON array: [{"title": "...", "description": "...", "estimated_minutes": 15, "order": 0}]`)
	return b.String()
}

// ParseGenerated decodes generator output. It tolerates markdown fences, a
// truncated trailing array and wrapper objects. Anything it cannot make sense
// of yields an empty list.
func ParseGenerated(raw string) []RawGoal {
	content := strings.TrimSpace(raw)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	if !strings.HasSuffix(content, "]") && !strings.HasSuffix(content, "}") {
		if strings.HasPrefix(content, "[") {
			if last := strings.LastIndex(content, "}"); last != -1 {
				content = content[:last+1] + "]"
			}
		}
	}

	var list []RawGoal
	if err := json.Unmarshal([]byte(content), &list); err == nil {
		return list
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &wrapper); err != nil {
		return nil
	}
	for _, key := range []string{"micro_goals", "tasks"} {
		if inner, ok := wrapper[key]; ok {
			if err := json.Unmarshal(inner, &list); err == nil {
				return list
			}
		}
	}
	for _, inner := range wrapper {
		if err := json.Unmarshal(inner, &list); err == nil {
			return list
		}
	}
	return nil
}

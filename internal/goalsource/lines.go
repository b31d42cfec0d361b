package goalsource

import (
	"bufio"
	"context"
	"regexp"
	"strconv"
	"strings"
)

var durationSuffix = regexp.MustCompile(`(?i)\s*(?:[-–(,]\s*)?(\d{1,3})\s*(?:m|min|mins|minutes)\)?\s*$`)

// LineSource is an offline source: one goal per non-empty line, with an
// optional trailing duration such as "(15 min)" or "- 20m". Bullets and
// numbering are stripped.
type LineSource struct{}

func (LineSource) Breakdown(_ context.Context, text string) ([]RawGoal, error) {
	return ParseLines(text), nil
}

func ParseLines(text string) []RawGoal {
	var goals []RawGoal
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		line = strings.TrimLeft(line, "-*•\t ")
		line = stripNumbering(line)
		if line == "" {
			continue
		}

		goal := RawGoal{Title: line}
		if m := durationSuffix.FindStringSubmatchIndex(line); m != nil {
			minutes, err := strconv.Atoi(line[m[2]:m[3]])
			if err == nil {
				goal.Title = strings.TrimSpace(line[:m[0]])
				goal.EstimatedMinutes = &minutes
			}
		}
		if goal.Title == "" {
			continue
		}
		order := len(goals)
		goal.Order = &order
		goals = append(goals, goal)
	}
	return goals
}

func stripNumbering(line string) string {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i < len(line) && (line[i] == '.' || line[i] == ')') {
		return strings.TrimSpace(line[i+1:])
	}
	return line
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli"

	"dayplan/internal/clock"
	"dayplan/internal/config"
	"dayplan/internal/goalsource"
	"dayplan/internal/scheduler"
)

var (
	planStart  string
	planEnd    string
	planFile   string
	planJSON   bool
	planConfig bool

	planFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "start, s",
			Usage:       "start of the day as HH:MM (default: no times)",
			Destination: &planStart,
		},
		cli.StringFlag{
			Name:        "end, e",
			Usage:       "end of the working window as HH:MM",
			Destination: &planEnd,
		},
		cli.StringFlag{
			Name:        "file, f",
			Usage:       "read goals from a file, - for stdin",
			Destination: &planFile,
		},
		cli.BoolFlag{
			Name:        "json",
			Usage:       "print the plan as JSON",
			Destination: &planJSON,
		},
		cli.BoolFlag{
			Name:        "use-config",
			Usage:       "take the break policy from DAYPLAN_CONFIG and BREAK_* variables",
			Destination: &planConfig,
		},
	}
)

func planAction(ctx *cli.Context) error {
	text, err := readGoals(planFile, ctx.Args(), os.Stdin)
	if err != nil {
		return err
	}

	policy := scheduler.DefaultPolicy
	if planConfig {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		policy = cfg.Breaks
	}

	plan, err := buildPlan(text, planStart, planEnd, policy)
	if err != nil {
		return err
	}
	if planJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	}
	return renderPlan(os.Stdout, plan)
}

func readGoals(file string, args []string, stdin io.Reader) (string, error) {
	switch {
	case file == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read goals: %w", err)
		}
		return string(data), nil
	case len(args) > 0:
		return strings.Join(args, "\n"), nil
	default:
		return "", fmt.Errorf("no goals given: pass lines as arguments or use --file")
	}
}

func buildPlan(text, rawStart, rawEnd string, policy scheduler.Policy) (scheduler.Plan, error) {
	start, err := clock.ParseOptional(rawStart)
	if err != nil {
		return scheduler.Plan{}, fmt.Errorf("start: %w", err)
	}
	end, err := clock.ParseOptional(rawEnd)
	if err != nil {
		return scheduler.Plan{}, fmt.Errorf("end: %w", err)
	}

	goals, err := goalsource.Fetch(context.Background(), goalsource.LineSource{}, text)
	if err != nil {
		return scheduler.Plan{}, err
	}
	items, err := goalsource.ToWorkItems(goals)
	if err != nil {
		return scheduler.Plan{}, err
	}
	return policy.Build(items, start, end)
}

func renderPlan(w io.Writer, plan scheduler.Plan) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTIME\tMIN\tITEM")
	for _, item := range plan.Items {
		slot := "-"
		if item.StartTime != nil && item.EndTime != nil {
			slot = item.StartTime.String() + "-" + item.EndTime.String()
		}
		title := item.Title
		if !item.IsWork() {
			title = "~ " + title
		}
		if item.ExceedsWindow {
			title += " (past end)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", item.Order+1, slot, item.EstimatedMinutes, title)
	}
	fmt.Fprintf(tw, "\t\t%d\ttotal, %d of work\n", plan.TotalEstimatedMinutes, plan.WorkMinutes())
	return tw.Flush()
}

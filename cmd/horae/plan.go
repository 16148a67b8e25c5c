package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/horae/internal/contract"
)

type planFlags struct {
	user      string
	weekStart string
	capacity  float64
	slots     []string
	useAI     bool
	project   string
}

func newPlanCmd() *cobra.Command {
	flags := planFlags{}
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Run a weekly plan and print the outcome",
		Long: `Runs the full weekly planning pipeline against the local database
and prints the selection, the packed days and the integration summary.

Slots repeat per weekday, formatted START-END[:KIND], e.g.
  horae plan --slot 09:00-12:00:FOCUSED_WORK --slot 13:00-15:00:LIGHT_WORK`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(flags)
		},
	}
	cmd.Flags().StringVar(&flags.user, "user", "default", "user to plan for")
	cmd.Flags().StringVar(&flags.weekStart, "week", nextMonday(), "week start date (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&flags.capacity, "capacity", 20, "total capacity hours for the week")
	cmd.Flags().StringArrayVar(&flags.slots, "slot", []string{"09:00-12:00:FOCUSED_WORK", "13:00-16:00:LIGHT_WORK"}, "daily time slot, START-END[:KIND]")
	cmd.Flags().BoolVar(&flags.useAI, "ai", false, "score priorities with the oracle")
	cmd.Flags().StringVar(&flags.project, "project", "", "restrict planning to one project id")
	return cmd
}

func runPlan(flags planFlags) error {
	svc, err := buildServices()
	if err != nil {
		return err
	}
	defer svc.Close()

	slots, err := parseSlots(flags.slots)
	if err != nil {
		return err
	}

	req := contract.WeeklyPlanRequest{
		WeekStartDate:     flags.weekStart,
		Constraints:       contract.PlanConstraints{TotalCapacityHours: flags.capacity},
		ProjectFilter:     flags.project,
		DailyTimeSlots:    slots,
		UseAIPriority:     flags.useAI,
		FallbackOnFailure: true,
	}

	resp, err := svc.pipeline.PlanWeekly(context.Background(), flags.user, req)
	if err != nil {
		return err
	}
	printPlan(resp)
	return nil
}

func printPlan(resp *contract.WeeklyPlanResponse) {
	fmt.Printf("status: %s\n", resp.Status)

	if sel := resp.WeeklySelection; sel != nil {
		fmt.Printf("\nselected %d tasks (+%d recurring), %.1fh\n",
			len(sel.SelectedTaskIDs), len(sel.SelectedRecurringIDs), sel.SelectedHours)
	}

	fmt.Println("\ndays:")
	for _, day := range resp.DailyOptimizations {
		fmt.Printf("  %s  %-20s %.1fh in %d slots\n",
			day.Date, day.Status, day.TotalHours, len(day.Assignments))
		for _, a := range day.Assignments {
			fmt.Printf("      %s-%s  %s\n", a.SlotStart, a.SlotEnd, a.TaskTitle)
		}
	}

	fmt.Printf("\nutilization %.0f%%, consistency %.2f\n",
		resp.CapacityUtilization*100, resp.ConsistencyScore)
	for _, insight := range resp.OptimizationInsights {
		fmt.Printf("  - %s\n", insight)
	}
}

// parseSlots converts START-END[:KIND] strings into slot inputs.
func parseSlots(raw []string) ([]contract.TimeSlotInput, error) {
	slots := make([]contract.TimeSlotInput, 0, len(raw))
	for _, r := range raw {
		start, rest, ok := strings.Cut(r, "-")
		if !ok {
			return nil, fmt.Errorf("bad slot %q, want START-END[:KIND]", r)
		}
		end, kind := rest, ""
		// The end time carries one colon of its own; anything after a
		// second colon is the kind.
		if parts := strings.SplitN(rest, ":", 3); len(parts) == 3 {
			end = parts[0] + ":" + parts[1]
			kind = parts[2]
		}
		slots = append(slots, contract.TimeSlotInput{
			Start: start,
			End:   end,
			Kind:  kind,
		})
	}
	return slots, nil
}

func nextMonday() string {
	now := time.Now()
	offset := (int(time.Monday) - int(now.Weekday()) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	return now.AddDate(0, 0, offset).Format("2006-01-02")
}

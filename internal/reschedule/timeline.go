// Package reschedule rebuilds the remainder of a day after a checkout and
// turns the delta into a user-decidable suggestion.
package reschedule

import (
	"fmt"

	"github.com/alexanderramin/horae/internal/domain"
)

// normalTimeline applies the checkout outcome to the planned slot of the
// ended task: COMPLETE drops it, CONTINUE keeps it annotated with the
// reported remaining hours. Every other slot passes through untouched.
func normalTimeline(plan domain.DayPlan, taskID string, decision domain.CheckoutDecision, remaining *float64) domain.DayPlan {
	out := domain.DayPlan{Date: plan.Date}
	for _, a := range plan.Assignments {
		if a.TaskID == taskID {
			switch decision {
			case domain.DecisionComplete:
				continue
			case domain.DecisionContinue:
				a.RemainingHours = remaining
			}
		}
		out.Assignments = append(out.Assignments, a)
	}
	return out
}

// manualTimeline folds an unplanned work session into the day: slots the
// session ran over are pushed to after it, and the knock-on delay ripples
// through later slots via a single cursor. Slots with unparseable times pass
// through unchanged.
func manualTimeline(plan domain.DayPlan, executionStart, executionEnd int) domain.DayPlan {
	out := domain.DayPlan{Date: plan.Date}
	nextAvailable := executionEnd

	for _, a := range plan.Assignments {
		start, okStart := parseClock(a.Start)
		end, okEnd := parseClock(a.End)
		if !okStart || !okEnd || end < start {
			out.Assignments = append(out.Assignments, a)
			continue
		}
		duration := end - start

		switch {
		case end <= executionStart:
			// Finished before the session began.
			out.Assignments = append(out.Assignments, a)

		case start >= executionEnd:
			if nextAvailable > start {
				shifted := shiftAssignment(a, nextAvailable, duration)
				nextAvailable += duration
				out.Assignments = append(out.Assignments, shifted)
			} else {
				out.Assignments = append(out.Assignments, a)
				if end > nextAvailable {
					nextAvailable = end
				}
			}

		default:
			// Overlaps the execution window: restart after it.
			newStart := executionEnd
			if nextAvailable > newStart {
				newStart = nextAvailable
			}
			shifted := shiftAssignment(a, newStart, duration)
			nextAvailable = newStart + duration
			out.Assignments = append(out.Assignments, shifted)
		}
	}
	return out
}

func shiftAssignment(a domain.PlanAssignment, start, duration int) domain.PlanAssignment {
	a.Start = formatClock(start)
	a.End = formatClock(start + duration)
	return a
}

// parseClock validates "HH:MM" (0-23, 0-59) into minutes since midnight.
func parseClock(s string) (int, bool) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, false
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// formatClock clamps to the day: a cascade pushed past midnight renders as
// 23:59 rather than wrapping to the next morning.
func formatClock(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	if minutes > 23*60+59 {
		minutes = 23*60 + 59
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

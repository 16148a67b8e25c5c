package reschedule

import "github.com/alexanderramin/horae/internal/domain"

// Fixed, user-facing change reasons.
const (
	reasonRemoved   = "Time exceeded - deferred to later"
	reasonPushed    = "Pushed back due to earlier task overrun"
	reasonReordered = "Moved earlier in schedule"
	reasonAdded     = "Added to fill available time"
)

// Diff computes the typed delta between an original and a proposed day plan.
// Position is compared by each task's index in the assignment list; a slot
// kept at its index but moved to a later clock time still counts as pushed.
func Diff(original, proposed domain.DayPlan) domain.ScheduleDiff {
	origIdx := indexByTask(original)
	propIdx := indexByTask(proposed)
	origStart := startByTask(original)

	var diff domain.ScheduleDiff

	for _, a := range original.Assignments {
		if _, ok := propIdx[a.TaskID]; ok {
			continue
		}
		oi := origIdx[a.TaskID]
		diff.Removed = append(diff.Removed, domain.DiffItem{
			TaskID:            a.TaskID,
			TaskTitle:         a.TaskTitle,
			ChangeType:        domain.ChangeRemoved,
			OriginalSlotIndex: &oi,
			Reason:            reasonRemoved,
		})
	}

	for _, a := range proposed.Assignments {
		ni := propIdx[a.TaskID]
		oi, existed := origIdx[a.TaskID]
		switch {
		case !existed:
			diff.Added = append(diff.Added, domain.DiffItem{
				TaskID:       a.TaskID,
				TaskTitle:    a.TaskTitle,
				ChangeType:   domain.ChangeAdded,
				NewSlotIndex: &ni,
				Reason:       reasonAdded,
			})
		case ni > oi || (ni == oi && laterStart(origStart[a.TaskID], a.Start)):
			diff.Pushed = append(diff.Pushed, domain.DiffItem{
				TaskID:            a.TaskID,
				TaskTitle:         a.TaskTitle,
				ChangeType:        domain.ChangePushed,
				OriginalSlotIndex: &oi,
				NewSlotIndex:      &ni,
				Reason:            reasonPushed,
			})
		case ni < oi:
			diff.Reordered = append(diff.Reordered, domain.DiffItem{
				TaskID:            a.TaskID,
				TaskTitle:         a.TaskTitle,
				ChangeType:        domain.ChangeReordered,
				OriginalSlotIndex: &oi,
				NewSlotIndex:      &ni,
				Reason:            reasonReordered,
			})
		}
	}

	diff.TotalChanges = len(diff.Pushed) + len(diff.Added) + len(diff.Removed) + len(diff.Reordered)
	diff.HasSignificantChanges = diff.TotalChanges > 0
	return diff
}

func indexByTask(plan domain.DayPlan) map[string]int {
	m := make(map[string]int, len(plan.Assignments))
	for i, a := range plan.Assignments {
		m[a.TaskID] = i
	}
	return m
}

func startByTask(plan domain.DayPlan) map[string]string {
	m := make(map[string]string, len(plan.Assignments))
	for _, a := range plan.Assignments {
		m[a.TaskID] = a.Start
	}
	return m
}

func laterStart(original, proposed string) bool {
	o, okO := parseClock(original)
	p, okP := parseClock(proposed)
	return okO && okP && p > o
}

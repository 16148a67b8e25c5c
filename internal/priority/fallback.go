package priority

import "github.com/alexanderramin/horae/internal/scheduler"

// DeterministicPriorities scores every task in the request without any
// external help. The formula starts from the user-set priority, adds
// deadline urgency measured from the week start, rewards allocated
// projects, nudges small tasks up and large ones down, and clamps to
// [0, 10].
func DeterministicPriorities(req Request) map[string]float64 {
	scores := make(map[string]float64, len(req.Tasks))
	for _, t := range req.Tasks {
		scores[t.ID] = deterministicScore(t, req)
	}
	return scores
}

func deterministicScore(t TaskContext, req Request) float64 {
	score := 10 - 2*float64(t.Priority-1)

	if t.DueAt != nil {
		days := t.DueAt.Sub(req.WeekStart).Hours() / 24
		switch {
		case days <= 3:
			score += 3
		case days <= 7:
			score += 2
		case days <= 14:
			score += 1
		}
	}

	if alloc, ok := findAllocation(req.Allocations, t.ProjectID); ok {
		score += 2 * alloc.PriorityWeight
	}

	if t.RemainingHours <= 2 {
		score += 1
	} else if t.RemainingHours >= 8 {
		score -= 0.5
	}

	return clampScore(score)
}

func findAllocation(allocs []scheduler.ProjectAllocation, projectID string) (scheduler.ProjectAllocation, bool) {
	for _, a := range allocs {
		if a.ProjectID == projectID {
			return a, true
		}
	}
	return scheduler.ProjectAllocation{}, false
}

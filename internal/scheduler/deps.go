package scheduler

import (
	"sort"

	"github.com/alexanderramin/horae/internal/domain"
)

// DependencyResolver answers prerequisite satisfiability under the relaxed
// rule: a prerequisite counts as satisfied when it is completed or when it
// is co-scheduled in the same horizon. Temporal ordering among co-scheduled
// pairs is the daily packer's job, not this one's.
//
// Completion is batch-resolved: callers collect all predecessor ids, issue
// one read per kind, and hand the boolean maps in here. No per-task queries.
type DependencyResolver struct {
	taskEdges      map[string][]domain.Dependency // successor task id -> edges
	goalEdges      map[string][]domain.Dependency // successor goal id -> edges
	completedTasks map[string]bool
	completedGoals map[string]bool
}

// NewDependencyResolver builds a resolver from the batch-read edge lists and
// completion maps.
func NewDependencyResolver(
	taskEdges, goalEdges []domain.Dependency,
	completedTasks, completedGoals map[string]bool,
) *DependencyResolver {
	r := &DependencyResolver{
		taskEdges:      make(map[string][]domain.Dependency),
		goalEdges:      make(map[string][]domain.Dependency),
		completedTasks: completedTasks,
		completedGoals: completedGoals,
	}
	for _, e := range taskEdges {
		r.taskEdges[e.SuccessorID] = append(r.taskEdges[e.SuccessorID], e)
	}
	for _, e := range goalEdges {
		r.goalEdges[e.SuccessorID] = append(r.goalEdges[e.SuccessorID], e)
	}
	return r
}

// CandidateSet is the schedulable set S a satisfiability question is asked
// against.
type CandidateSet struct {
	taskIDs map[string]bool
	// goal id -> at least one candidate task belongs to it
	goalsWithTasks map[string]bool
}

// NewCandidateSet indexes the candidate tasks for membership answers.
func NewCandidateSet(tasks []Task) CandidateSet {
	s := CandidateSet{
		taskIDs:        make(map[string]bool, len(tasks)),
		goalsWithTasks: make(map[string]bool),
	}
	for _, t := range tasks {
		s.taskIDs[t.ID] = true
		if t.GoalID != "" {
			s.goalsWithTasks[t.GoalID] = true
		}
	}
	return s
}

func (s CandidateSet) containsTask(id string) bool     { return s.taskIDs[id] }
func (s CandidateSet) goalHasCandidate(id string) bool { return s.goalsWithTasks[id] }

// Satisfied reports whether every prerequisite of the task is completed or
// co-schedulable within the candidate set. Recurring tasks bypass
// dependency checks entirely.
func (r *DependencyResolver) Satisfied(t Task, set CandidateSet) bool {
	if t.IsRecurring {
		return true
	}
	for _, e := range r.taskEdges[t.ID] {
		if !r.predecessorSatisfied(e, set) {
			return false
		}
	}
	for _, e := range r.goalEdges[t.GoalID] {
		if !r.predecessorSatisfied(e, set) {
			return false
		}
	}
	return true
}

func (r *DependencyResolver) predecessorSatisfied(e domain.Dependency, set CandidateSet) bool {
	switch e.PredecessorKind {
	case domain.DepTask:
		return r.completedTasks[e.PredecessorID] || set.containsTask(e.PredecessorID)
	case domain.DepGoal:
		return r.completedGoals[e.PredecessorID] || set.goalHasCandidate(e.PredecessorID)
	}
	return false
}

// OrderedPairs returns every (successor, predecessor) index pair among the
// given tasks that the daily packer must keep in order: the successor may
// not land in an earlier slot than the predecessor. Goal-level edges expand
// to every cross pair of their member tasks. Pairs come out sorted for
// deterministic model construction.
func (r *DependencyResolver) OrderedPairs(tasks []Task) [][2]int {
	taskIdx := make(map[string]int, len(tasks))
	goalIdx := make(map[string][]int)
	for i, t := range tasks {
		taskIdx[t.ID] = i
		if !t.IsRecurring && t.GoalID != "" {
			goalIdx[t.GoalID] = append(goalIdx[t.GoalID], i)
		}
	}

	seen := make(map[[2]int]bool)
	var pairs [][2]int
	add := func(succ, pred int) {
		if succ == pred {
			return
		}
		p := [2]int{succ, pred}
		if !seen[p] {
			seen[p] = true
			pairs = append(pairs, p)
		}
	}

	for i, t := range tasks {
		if t.IsRecurring {
			continue
		}
		for _, e := range r.taskEdges[t.ID] {
			switch e.PredecessorKind {
			case domain.DepTask:
				if p, ok := taskIdx[e.PredecessorID]; ok {
					add(i, p)
				}
			case domain.DepGoal:
				for _, p := range goalIdx[e.PredecessorID] {
					add(i, p)
				}
			}
		}
		for _, e := range r.goalEdges[t.GoalID] {
			switch e.PredecessorKind {
			case domain.DepTask:
				if p, ok := taskIdx[e.PredecessorID]; ok {
					add(i, p)
				}
			case domain.DepGoal:
				for _, p := range goalIdx[e.PredecessorID] {
					add(i, p)
				}
			}
		}
	}

	sort.Slice(pairs, func(a, b int) bool {
		if pairs[a][0] != pairs[b][0] {
			return pairs[a][0] < pairs[b][0]
		}
		return pairs[a][1] < pairs[b][1]
	})
	return pairs
}

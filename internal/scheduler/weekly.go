package scheduler

import (
	"math"
	"sort"
	"time"
)

// DefaultWeeklyTimeout bounds one weekly selection solve.
const DefaultWeeklyTimeout = 30 * time.Second

// allocationEpsilon: targets at or below this are hard zeros.
const allocationEpsilon = 0.001

// WeeklyRequest is the weekly selector's input. Priorities is the complete
// score map from the priority oracle (fallback included), keyed by task and
// recurring-task id.
type WeeklyRequest struct {
	Tasks         []Task
	Recurring     []Task
	CapacityHours float64
	Allocations   []ProjectAllocation
	Priorities    map[string]float64
	Timeout       time.Duration
}

// SelectWeek picks the subset of tasks and recurring tasks that maximizes
// priority value under the weekly capacity and per-project allocation bands.
//
// The model is integer-scaled (hours x10, priority x100, project bonus
// x1000) and solved exactly: a subset-sum sweep per project group yields the
// achievable hour sums inside that project's band, then a grouped knapsack
// combines one option per group under total capacity. Completing the sweep
// proves OPTIMAL; an empty band or an impossible combination is INFEASIBLE;
// running past the deadline is UNKNOWN.
func SelectWeek(req WeeklyRequest) WeeklySelection {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultWeeklyTimeout
	}
	deadline := time.Now().Add(timeout)

	empty := WeeklySelection{
		HoursByProject: map[string]float64{},
		Status:         StatusOptimal,
	}
	if len(req.Tasks) == 0 && len(req.Recurring) == 0 {
		return empty
	}

	capScaled := scaleHours(req.CapacityHours)
	if capScaled <= 0 {
		return empty
	}

	groups := buildWeeklyGroups(req)
	for gi := range groups {
		if time.Now().After(deadline) {
			return WeeklySelection{HoursByProject: map[string]float64{}, Status: StatusUnknown}
		}
		if !buildGroupOptions(&groups[gi], capScaled) {
			return WeeklySelection{HoursByProject: map[string]float64{}, Status: StatusInfeasible}
		}
	}

	// Grouped knapsack across projects: every group contributes exactly one
	// of its achievable in-band sums.
	dp := make([]int, capScaled+1)
	for i := range dp {
		dp[i] = -1
	}
	dp[0] = 0
	choices := make([][]int, len(groups))
	for gi, g := range groups {
		if time.Now().After(deadline) {
			return WeeklySelection{HoursByProject: map[string]float64{}, Status: StatusUnknown}
		}
		next := make([]int, capScaled+1)
		chosen := make([]int, capScaled+1)
		for i := range next {
			next[i] = -1
			chosen[i] = -1
		}
		for c := 0; c <= capScaled; c++ {
			if dp[c] < 0 {
				continue
			}
			for oi, o := range g.options {
				nc := c + o.sum
				if nc > capScaled {
					continue
				}
				if dp[c]+o.value > next[nc] {
					next[nc] = dp[c] + o.value
					chosen[nc] = oi
				}
			}
		}
		dp = next
		choices[gi] = chosen
	}

	bestValue, bestCap := -1, -1
	for c := 0; c <= capScaled; c++ {
		if dp[c] > bestValue {
			bestValue = dp[c]
			bestCap = c
		}
	}
	if bestValue < 0 {
		return WeeklySelection{HoursByProject: map[string]float64{}, Status: StatusInfeasible}
	}

	sel := WeeklySelection{
		HoursByProject: map[string]float64{},
		Status:         StatusOptimal,
		Objective:      float64(bestValue),
	}
	c := bestCap
	for gi := len(groups) - 1; gi >= 0; gi-- {
		g := groups[gi]
		o := g.options[choices[gi][c]]
		for _, ii := range o.picks {
			item := g.items[ii]
			sel.SelectedHours += item.rawHours
			if g.recurring {
				sel.SelectedRecurringIDs = append(sel.SelectedRecurringIDs, item.id)
			} else {
				sel.SelectedTaskIDs = append(sel.SelectedTaskIDs, item.id)
				sel.HoursByProject[g.projectID] += item.rawHours
			}
		}
		c -= o.sum
	}
	sort.Strings(sel.SelectedTaskIDs)
	sort.Strings(sel.SelectedRecurringIDs)
	return sel
}

type weeklyItem struct {
	id       string
	hours    int // x10
	rawHours float64
	value    int
}

type groupOption struct {
	sum   int
	value int
	picks []int // indexes into group items
}

type weeklyGroup struct {
	projectID string
	recurring bool
	items     []weeklyItem
	bandLo    int
	bandHi    int
	hardZero  bool
	options   []groupOption
}

func buildWeeklyGroups(req WeeklyRequest) []weeklyGroup {
	byProject := make(map[string][]weeklyItem)
	for _, t := range req.Tasks {
		alloc, hasAlloc := findAllocation(req.Allocations, t.ProjectID)
		value := scaleValue(req.Priorities[t.ID], 100)
		if hasAlloc {
			value += scaleValue(alloc.PriorityWeight, 1000)
		}
		byProject[t.ProjectID] = append(byProject[t.ProjectID], weeklyItem{
			id:       t.ID,
			hours:    scaleHours(t.RemainingHours),
			rawHours: t.RemainingHours,
			value:    value,
		})
	}

	projectIDs := make([]string, 0, len(byProject))
	for id := range byProject {
		projectIDs = append(projectIDs, id)
	}
	sort.Strings(projectIDs)

	var groups []weeklyGroup
	for _, pid := range projectIDs {
		items := byProject[pid]
		sort.Slice(items, func(i, j int) bool { return items[i].id < items[j].id })

		g := weeklyGroup{projectID: pid, items: items}
		avail := 0
		for _, it := range items {
			avail += it.hours
		}

		if alloc, ok := findAllocation(req.Allocations, pid); ok {
			if alloc.TargetHours <= allocationEpsilon {
				g.hardZero = true
			} else {
				lo := scaleHours(0.95 * alloc.TargetHours)
				hi := scaleHours(1.05 * alloc.TargetHours)
				if avail < lo {
					// Feasibility first: a project with too little work
					// simply contributes everything it has.
					lo, hi = avail, avail
				} else if avail < hi {
					hi = avail
				}
				g.bandLo, g.bandHi = lo, hi
			}
		} else {
			g.bandLo, g.bandHi = 0, avail
		}
		groups = append(groups, g)
	}

	if len(req.Recurring) > 0 {
		// Recurring tasks are never project-constrained and carry no bonus.
		items := make([]weeklyItem, 0, len(req.Recurring))
		avail := 0
		for _, t := range req.Recurring {
			it := weeklyItem{
				id:       t.ID,
				hours:    scaleHours(t.RemainingHours),
				rawHours: t.RemainingHours,
				value:    scaleValue(req.Priorities[t.ID], 100),
			}
			avail += it.hours
			items = append(items, it)
		}
		sort.Slice(items, func(i, j int) bool { return items[i].id < items[j].id })
		groups = append(groups, weeklyGroup{recurring: true, items: items, bandLo: 0, bandHi: avail})
	}
	return groups
}

// buildGroupOptions runs the subset-sum sweep for one group and keeps every
// achievable hour sum inside the group's band with its best value and pick
// set. Returns false when the band admits no sum at all.
func buildGroupOptions(g *weeklyGroup, capScaled int) bool {
	if g.hardZero {
		g.options = []groupOption{{}}
		return true
	}
	capG := g.bandHi
	if capG > capScaled {
		capG = capScaled
	}
	if g.bandLo > capG {
		return false
	}

	n := len(g.items)
	dp := make([][]int, n+1)
	for i := range dp {
		dp[i] = make([]int, capG+1)
		for s := range dp[i] {
			dp[i][s] = -1
		}
	}
	dp[0][0] = 0
	for i, it := range g.items {
		for s := 0; s <= capG; s++ {
			v := dp[i][s]
			if v < 0 {
				continue
			}
			if v > dp[i+1][s] {
				dp[i+1][s] = v
			}
			ns := s + it.hours
			if ns <= capG && v+it.value > dp[i+1][ns] {
				dp[i+1][ns] = v + it.value
			}
		}
	}

	for s := g.bandLo; s <= capG; s++ {
		if dp[n][s] < 0 {
			continue
		}
		g.options = append(g.options, groupOption{
			sum:   s,
			value: dp[n][s],
			picks: reconstructPicks(dp, g.items, s),
		})
	}
	return len(g.options) > 0
}

func reconstructPicks(dp [][]int, items []weeklyItem, sum int) []int {
	var picks []int
	s := sum
	for i := len(items); i > 0; i-- {
		if dp[i-1][s] == dp[i][s] {
			continue
		}
		picks = append(picks, i-1)
		s -= items[i-1].hours
	}
	sort.Ints(picks)
	return picks
}

func findAllocation(allocs []ProjectAllocation, projectID string) (ProjectAllocation, bool) {
	for _, a := range allocs {
		if a.ProjectID == projectID {
			return a, true
		}
	}
	return ProjectAllocation{}, false
}

func scaleHours(h float64) int {
	return int(math.Round(h * 10))
}

func scaleValue(v float64, factor float64) int {
	return int(math.Round(v * factor))
}

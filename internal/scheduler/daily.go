package scheduler

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DefaultDailyTimeout bounds one day's packing solve.
const DefaultDailyTimeout = 5 * time.Second

// dailyNodeLimit caps the branch-and-bound search independent of the clock.
const dailyNodeLimit = 2_000_000

// DailyRequest is the daily packer's input. Tasks must already be the
// weekly-selected set; anything else never reaches this model.
type DailyRequest struct {
	Date     string // YYYY-MM-DD, anchors the deadline bonus
	Tasks    []Task
	Slots    []TimeSlot
	Fixed    []FixedAssignment
	Resolver *DependencyResolver
	Timeout  time.Duration
}

// PackDay assigns tasks to the day's slots, maximizing minutes weighted by
// priority, kind affinity and deadline proximity, under slot capacity,
// at-most-one-slot-per-task, slot project pinning and dependency ordering
// (equal slots allowed for co-scheduled prerequisite pairs). User pins are
// applied before the search and always survive into the result; pins also
// bound where a free dependency neighbor may land, and two pins that
// contradict their ordering make the day INFEASIBLE.
//
// The search is an exact branch and bound over slot membership in minute
// integers: durations inside a slot follow from membership by filling the
// capacity highest per-minute weight first, so a lower-weighted task yields
// minutes to a stronger slot-mate instead of crowding it out. Higher
// potential tasks branch first. Exhausting the tree proves OPTIMAL; hitting
// the deadline or the node limit returns the incumbent as FEASIBLE.
func PackDay(req DailyRequest) ScheduleResult {
	started := time.Now()
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultDailyTimeout
	}

	if len(req.Tasks) == 0 || len(req.Slots) == 0 {
		return ScheduleResult{Success: true, Status: StatusNoTasksOrSlots}
	}

	m, unscheduled := buildDailyModel(req)
	if m.orderConflict {
		return ScheduleResult{
			UnscheduledIDs: unscheduled,
			Status:         StatusInfeasible,
			SolveSeconds:   time.Since(started).Seconds(),
		}
	}
	if len(m.tasks) == 0 {
		return ScheduleResult{
			Success:        true,
			Assignments:    m.pinnedAssignments(),
			UnscheduledIDs: unscheduled,
			TotalHours:     m.pinnedHours(),
			Status:         StatusOptimal,
			SolveSeconds:   time.Since(started).Seconds(),
		}
	}

	s := newDailySearch(m, started.Add(timeout))
	s.run()
	if s.bestVal < 0 {
		s.bestVal = 0
	}

	status := StatusOptimal
	if s.aborted {
		status = StatusFeasible
	}
	assignments, placedHours, skipped := m.assemble(s.order, s.bestPlacement)
	unscheduled = append(unscheduled, skipped...)

	return ScheduleResult{
		Success:        true,
		Assignments:    assignments,
		UnscheduledIDs: unscheduled,
		TotalHours:     placedHours,
		Status:         status,
		SolveSeconds:   time.Since(started).Seconds(),
		Objective:      float64(s.bestVal),
	}
}

type dailyModel struct {
	tasks   []Task // free tasks only
	taskMin []int
	coef    [][]int // [task][slot] per-minute objective weight
	slots   []TimeSlot
	slotCap []int // remaining after pin reservation
	preds   [][]int
	succs   [][]int
	lo, hi  []int // per free task, slot bounds induced by pinned neighbors

	pinned        []pinnedAssignment
	orderConflict bool
}

type pinnedAssignment struct {
	task      Task
	slotIndex int
	minutes   int
}

func buildDailyModel(req DailyRequest) (*dailyModel, []string) {
	m := &dailyModel{slots: req.Slots}

	m.slotCap = make([]int, len(req.Slots))
	for j, s := range req.Slots {
		m.slotCap[j] = slotCapacityMinutes(s)
	}

	// Zero-remaining tasks have nothing left to place unless they recur.
	candidates := make([]Task, 0, len(req.Tasks))
	for _, t := range req.Tasks {
		if t.RemainingHours <= 0 && !t.IsRecurring {
			continue
		}
		candidates = append(candidates, t)
	}

	var unscheduled []string
	if req.Resolver != nil {
		set := NewCandidateSet(candidates)
		kept := candidates[:0]
		for _, t := range candidates {
			if req.Resolver.Satisfied(t, set) {
				kept = append(kept, t)
			} else {
				unscheduled = append(unscheduled, t.ID)
			}
		}
		candidates = kept
	}

	// Pins first: clamp to what the slot still holds, reserve it.
	pinnedIDs := make(map[string]bool)
	byID := make(map[string]Task, len(candidates))
	for _, t := range candidates {
		byID[t.ID] = t
	}
	for _, f := range req.Fixed {
		t, ok := byID[f.TaskID]
		if !ok || f.SlotIndex < 0 || f.SlotIndex >= len(req.Slots) || pinnedIDs[f.TaskID] {
			continue
		}
		dur := taskMinutes(t)
		if f.DurationHours != nil {
			dur = int(math.Round(*f.DurationHours * 60))
		}
		if dur > m.slotCap[f.SlotIndex] {
			dur = m.slotCap[f.SlotIndex]
		}
		if dur < 1 {
			continue
		}
		m.slotCap[f.SlotIndex] -= dur
		m.pinned = append(m.pinned, pinnedAssignment{task: t, slotIndex: f.SlotIndex, minutes: dur})
		pinnedIDs[t.ID] = true
	}

	dayStart := parseScheduleDate(req.Date)
	free := make([]Task, 0, len(candidates))
	for _, t := range candidates {
		if !pinnedIDs[t.ID] {
			free = append(free, t)
		}
	}
	m.tasks = free
	m.taskMin = make([]int, len(free))
	m.coef = make([][]int, len(free))
	for i, t := range free {
		m.taskMin[i] = taskMinutes(t)
		m.coef[i] = make([]int, len(req.Slots))
		for j, s := range req.Slots {
			m.coef[i][j] = minuteWeight(t, s, dayStart)
		}
	}

	m.preds = make([][]int, len(free))
	m.succs = make([][]int, len(free))
	m.lo = make([]int, len(free))
	m.hi = make([]int, len(free))
	for i := range m.hi {
		m.hi[i] = len(req.Slots) - 1
	}
	if req.Resolver != nil {
		// Ordering runs over every candidate, pins included: a pinned
		// neighbor bounds where its free counterpart may land, and two
		// pins out of order are unsatisfiable.
		freeIdx := make(map[string]int, len(free))
		for i, t := range free {
			freeIdx[t.ID] = i
		}
		pinSlot := make(map[string]int, len(m.pinned))
		for _, p := range m.pinned {
			pinSlot[p.task.ID] = p.slotIndex
		}
		for _, pair := range req.Resolver.OrderedPairs(candidates) {
			succID := candidates[pair[0]].ID
			predID := candidates[pair[1]].ID
			si, succFree := freeIdx[succID]
			pi, predFree := freeIdx[predID]
			switch {
			case succFree && predFree:
				m.preds[si] = append(m.preds[si], pi)
				m.succs[pi] = append(m.succs[pi], si)
			case succFree:
				if j := pinSlot[predID]; j > m.lo[si] {
					m.lo[si] = j
				}
			case predFree:
				if j := pinSlot[succID]; j < m.hi[pi] {
					m.hi[pi] = j
				}
			default:
				if pinSlot[succID] < pinSlot[predID] {
					m.orderConflict = true
				}
			}
		}
	}
	return m, unscheduled
}

// greedyFill distributes slot j's post-pin capacity among its member
// tasks, highest per-minute weight first (task ID breaks ties), each
// capped at its own remaining minutes. Returned minutes parallel members.
func (m *dailyModel) greedyFill(j int, members []int) []int {
	idx := make([]int, len(members))
	for k := range idx {
		idx[k] = k
	}
	sort.Slice(idx, func(a, b int) bool {
		ta, tb := members[idx[a]], members[idx[b]]
		if m.coef[ta][j] != m.coef[tb][j] {
			return m.coef[ta][j] > m.coef[tb][j]
		}
		return m.tasks[ta].ID < m.tasks[tb].ID
	})
	fill := make([]int, len(members))
	rem := m.slotCap[j]
	for _, k := range idx {
		d := m.taskMin[members[k]]
		if d > rem {
			d = rem
		}
		fill[k] = d
		rem -= d
	}
	return fill
}

func (m *dailyModel) slotValue(j int, members []int) int {
	total := 0
	for k, d := range m.greedyFill(j, members) {
		total += d * m.coef[members[k]][j]
	}
	return total
}

// minuteWeight is the objective contribution of one minute of task t in
// slot s.
func minuteWeight(t Task, s TimeSlot, dayStart time.Time) int {
	priorityWeight := 10 - t.Priority
	if priorityWeight < 1 {
		priorityWeight = 1
	}
	kindBonus := 1
	if t.Kind == s.Kind {
		kindBonus = 10
	}
	deadlineBonus := 1
	if t.DueAt != nil && !dayStart.IsZero() && !t.DueAt.Before(dayStart) {
		days := int(t.DueAt.Sub(dayStart).Hours() / 24)
		if b := 10 - days; b > 1 {
			deadlineBonus = b
		}
	}
	return priorityWeight * kindBonus * deadlineBonus
}

func slotCapacityMinutes(s TimeSlot) int {
	start, okS := parseClock(s.Start)
	end, okE := parseClock(s.End)
	if !okS || !okE || end <= start {
		return 0
	}
	capMin := end - start
	if s.CapacityHours != nil {
		if c := int(math.Round(*s.CapacityHours * 60)); c < capMin {
			capMin = c
		}
	}
	return capMin
}

func taskMinutes(t Task) int {
	return int(math.Ceil(t.RemainingHours*60 - 1e-9))
}

func parseScheduleDate(date string) time.Time {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}
	}
	return d
}

func parseClock(s string) (int, bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, false
	}
	h, errH := strconv.Atoi(parts[0])
	mm, errM := strconv.Atoi(parts[1])
	if errH != nil || errM != nil || h < 0 || h > 23 || mm < 0 || mm > 59 {
		return 0, false
	}
	return h*60 + mm, true
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

type dailySearch struct {
	m     *dailyModel
	order []int // free-task indexes, highest potential first

	deadline time.Time
	nodes    int
	aborted  bool

	slotMembers [][]int // free-task indexes per slot, branch order
	slotVal     []int   // greedy objective value per slot
	placedSlot  []int   // per free task, -1 unplaced
	cur         []int   // per order position, slot or -1

	bestVal       int
	bestPlacement []int

	suffixBound []int
}

func newDailySearch(m *dailyModel, deadline time.Time) *dailySearch {
	s := &dailySearch{m: m, deadline: deadline}

	n := len(m.tasks)
	s.order = make([]int, n)
	for i := range s.order {
		s.order[i] = i
	}
	sort.SliceStable(s.order, func(a, b int) bool {
		pa, pb := s.potential(s.order[a]), s.potential(s.order[b])
		if pa != pb {
			return pa > pb
		}
		return m.tasks[s.order[a]].ID < m.tasks[s.order[b]].ID
	})

	s.suffixBound = make([]int, n+1)
	for p := n - 1; p >= 0; p-- {
		s.suffixBound[p] = s.suffixBound[p+1] + s.potential(s.order[p])
	}

	s.slotMembers = make([][]int, len(m.slots))
	s.slotVal = make([]int, len(m.slots))
	s.placedSlot = make([]int, n)
	for i := range s.placedSlot {
		s.placedSlot[i] = -1
	}
	s.cur = make([]int, n)
	s.bestVal = -1
	s.bestPlacement = make([]int, n)
	for i := range s.bestPlacement {
		s.bestPlacement[i] = -1
	}
	return s
}

// potential over-estimates a task's best possible contribution.
func (s *dailySearch) potential(ti int) int {
	maxCap := 0
	for _, c := range s.m.slotCap {
		if c > maxCap {
			maxCap = c
		}
	}
	dur := s.m.taskMin[ti]
	if dur > maxCap {
		dur = maxCap
	}
	maxCoef := 0
	for _, c := range s.m.coef[ti] {
		if c > maxCoef {
			maxCoef = c
		}
	}
	return dur * maxCoef
}

func (s *dailySearch) run() {
	s.dfs(0, 0)
}

type slotChoice struct {
	slot int
	gain int
}

func (s *dailySearch) dfs(pos, val int) {
	if s.aborted {
		return
	}
	s.nodes++
	if s.nodes >= dailyNodeLimit || (s.nodes%1024 == 0 && time.Now().After(s.deadline)) {
		s.aborted = true
		return
	}

	if pos == len(s.order) {
		if val > s.bestVal {
			s.bestVal = val
			copy(s.bestPlacement, s.cur)
		}
		return
	}
	if val+s.suffixBound[pos] <= s.bestVal {
		return
	}

	ti := s.order[pos]
	t := s.m.tasks[ti]

	// Ordering bounds: pin-induced limits plus already-placed neighbors;
	// equal slots are fine.
	lo, hi := s.m.lo[ti], s.m.hi[ti]
	for _, p := range s.m.preds[ti] {
		if j := s.placedSlot[p]; j > lo {
			lo = j
		}
	}
	for _, succ := range s.m.succs[ti] {
		if j := s.placedSlot[succ]; j >= 0 && j < hi {
			hi = j
		}
	}

	var choices []slotChoice
	for j := lo; j <= hi && j >= 0; j++ {
		slot := s.m.slots[j]
		if slot.PinnedProjectID != "" && !t.IsRecurring && t.ProjectID != slot.PinnedProjectID {
			continue
		}
		// Joining a slot is worth the greedy refill delta, which may
		// displace minutes from a weaker slot-mate. Zero-gain joins are
		// dominated by skipping.
		gain := s.m.slotValue(j, append(s.slotMembers[j], ti)) - s.slotVal[j]
		if gain < 1 {
			continue
		}
		choices = append(choices, slotChoice{slot: j, gain: gain})
	}
	sort.Slice(choices, func(a, b int) bool {
		if choices[a].gain != choices[b].gain {
			return choices[a].gain > choices[b].gain
		}
		return choices[a].slot < choices[b].slot
	})

	for _, c := range choices {
		s.slotMembers[c.slot] = append(s.slotMembers[c.slot], ti)
		s.slotVal[c.slot] += c.gain
		s.placedSlot[ti] = c.slot
		s.cur[pos] = c.slot
		s.dfs(pos+1, val+c.gain)
		s.slotMembers[c.slot] = s.slotMembers[c.slot][:len(s.slotMembers[c.slot])-1]
		s.slotVal[c.slot] -= c.gain
		s.placedSlot[ti] = -1
		if s.aborted {
			return
		}
	}

	s.cur[pos] = -1
	s.dfs(pos+1, val)
}

// assemble rebuilds each slot's membership from the winning placement and
// re-runs the same greedy fill the search valued, so durations come out
// identical, then stacks start times inside each slot (pins first). Members
// the fill leaves at zero minutes drop to unscheduled.
func (m *dailyModel) assemble(order, placement []int) ([]Assignment, float64, []string) {
	type placed struct {
		task    Task
		slot    int
		minutes int
		fixed   bool
		seq     int
	}
	var all []placed
	for seq, p := range m.pinned {
		all = append(all, placed{task: p.task, slot: p.slotIndex, minutes: p.minutes, fixed: true, seq: seq})
	}

	slotMembers := make([][]int, len(m.slots))
	posOf := make(map[int]int, len(order))
	var skipped []string
	for pos, ti := range order {
		j := placement[pos]
		if j < 0 {
			skipped = append(skipped, m.tasks[ti].ID)
			continue
		}
		slotMembers[j] = append(slotMembers[j], ti)
		posOf[ti] = pos
	}
	for j, members := range slotMembers {
		fill := m.greedyFill(j, members)
		for k, ti := range members {
			if fill[k] < 1 {
				skipped = append(skipped, m.tasks[ti].ID)
				continue
			}
			all = append(all, placed{task: m.tasks[ti], slot: j, minutes: fill[k], seq: len(m.pinned) + posOf[ti]})
		}
	}
	sort.Strings(skipped)

	sort.Slice(all, func(a, b int) bool {
		if all[a].slot != all[b].slot {
			return all[a].slot < all[b].slot
		}
		if all[a].fixed != all[b].fixed {
			return all[a].fixed
		}
		return all[a].seq < all[b].seq
	})

	offsets := make(map[int]int)
	var assignments []Assignment
	totalMinutes := 0
	for _, p := range all {
		start, _ := parseClock(m.slots[p.slot].Start)
		assignments = append(assignments, Assignment{
			TaskID:        p.task.ID,
			SlotIndex:     p.slot,
			StartTime:     formatClock(start + offsets[p.slot]),
			DurationHours: float64(p.minutes) / 60,
			IsFixed:       p.fixed,
		})
		offsets[p.slot] += p.minutes
		totalMinutes += p.minutes
	}
	return assignments, float64(totalMinutes) / 60, skipped
}

func (m *dailyModel) pinnedAssignments() []Assignment {
	assignments, _, _ := m.assemble(nil, nil)
	return assignments
}

func (m *dailyModel) pinnedHours() float64 {
	total := 0
	for _, p := range m.pinned {
		total += p.minutes
	}
	return float64(total) / 60
}

package priority

import (
	"testing"
	"time"

	"github.com/alexanderramin/horae/internal/scheduler"
	"github.com/stretchr/testify/assert"
)

var weekStart = time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

func TestDeterministicScore_BaseFromUserPriority(t *testing.T) {
	req := Request{WeekStart: weekStart}

	// base = 10 - 2*(p-1); a 5h task gets no size bonus either way.
	cases := []struct {
		priority int
		want     float64
	}{
		{1, 10},
		{2, 8},
		{3, 6},
		{4, 4},
		{5, 2},
	}
	for _, c := range cases {
		got := deterministicScore(TaskContext{ID: "t", Priority: c.priority, RemainingHours: 5}, req)
		assert.Equal(t, c.want, got, "priority %d", c.priority)
	}
}

func TestDeterministicScore_DeadlineUrgency(t *testing.T) {
	req := Request{WeekStart: weekStart}
	base := TaskContext{Priority: 3, RemainingHours: 5}

	in2 := weekStart.AddDate(0, 0, 2)
	in5 := weekStart.AddDate(0, 0, 5)
	in10 := weekStart.AddDate(0, 0, 10)
	in30 := weekStart.AddDate(0, 0, 30)

	t2, t5, t10, t30 := base, base, base, base
	t2.DueAt, t5.DueAt, t10.DueAt, t30.DueAt = &in2, &in5, &in10, &in30

	assert.Equal(t, 9.0, deterministicScore(t2, req), "due within 3 days adds 3")
	assert.Equal(t, 8.0, deterministicScore(t5, req), "due within 7 days adds 2")
	assert.Equal(t, 7.0, deterministicScore(t10, req), "due within 14 days adds 1")
	assert.Equal(t, 6.0, deterministicScore(t30, req), "distant deadlines add nothing")
}

func TestDeterministicScore_AllocationWeight(t *testing.T) {
	req := Request{
		WeekStart: weekStart,
		Allocations: []scheduler.ProjectAllocation{
			{ProjectID: "p-1", PriorityWeight: 0.5},
		},
	}

	got := deterministicScore(TaskContext{Priority: 3, RemainingHours: 5, ProjectID: "p-1"}, req)

	assert.Equal(t, 7.0, got, "2 x priority_weight added")
}

func TestDeterministicScore_SizeBonus(t *testing.T) {
	req := Request{WeekStart: weekStart}

	small := deterministicScore(TaskContext{Priority: 3, RemainingHours: 1.5}, req)
	large := deterministicScore(TaskContext{Priority: 3, RemainingHours: 9}, req)

	assert.Equal(t, 7.0, small, "small tasks get +1")
	assert.Equal(t, 5.5, large, "large tasks get -0.5")
}

func TestDeterministicScore_Clamped(t *testing.T) {
	req := Request{
		WeekStart: weekStart,
		Allocations: []scheduler.ProjectAllocation{
			{ProjectID: "p-1", PriorityWeight: 5},
		},
	}
	due := weekStart.AddDate(0, 0, 1)

	high := deterministicScore(TaskContext{Priority: 1, RemainingHours: 1, ProjectID: "p-1", DueAt: &due}, req)

	assert.Equal(t, 10.0, high)
}

func TestDeterministicPriorities_CompleteMap(t *testing.T) {
	req := Request{
		WeekStart: weekStart,
		Tasks: []TaskContext{
			{ID: "t-1", Priority: 1, RemainingHours: 5},
			{ID: "t-2", Priority: 5, RemainingHours: 5},
		},
	}

	scores := DeterministicPriorities(req)

	assert.Len(t, scores, 2)
	assert.Contains(t, scores, "t-1")
	assert.Contains(t, scores, "t-2")
}

package scheduler

import (
	"testing"

	"github.com/alexanderramin/horae/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectWeek_EmptyInputIsValidSuccess(t *testing.T) {
	sel := SelectWeek(WeeklyRequest{CapacityHours: 40})

	assert.Equal(t, StatusOptimal, sel.Status)
	assert.Empty(t, sel.SelectedTaskIDs)
	assert.Empty(t, sel.SelectedRecurringIDs)
	assert.Zero(t, sel.SelectedHours)
}

func TestSelectWeek_CapacityNeverExceeded(t *testing.T) {
	sel := SelectWeek(WeeklyRequest{
		Tasks: []Task{
			{ID: "t-a", RemainingHours: 6, ProjectID: "p-1", Kind: domain.KindFocusedWork},
			{ID: "t-b", RemainingHours: 6, ProjectID: "p-1", Kind: domain.KindFocusedWork},
		},
		CapacityHours: 10,
		Priorities:    map[string]float64{"t-a": 8, "t-b": 9},
	})

	require.Equal(t, StatusOptimal, sel.Status)
	assert.Equal(t, []string{"t-b"}, sel.SelectedTaskIDs, "higher priority wins when both cannot fit")
	assert.InDelta(t, 6.0, sel.SelectedHours, 0.001)
}

func TestSelectWeek_BandClampsToAvailableHours(t *testing.T) {
	// Target 10h but only 8h of work exists: feasibility-first clamp to
	// [avail, avail] forces everything the project has.
	sel := SelectWeek(WeeklyRequest{
		Tasks: []Task{
			{ID: "t-a", RemainingHours: 4, ProjectID: "p-1", Kind: domain.KindFocusedWork},
			{ID: "t-b", RemainingHours: 4, ProjectID: "p-1", Kind: domain.KindFocusedWork},
		},
		CapacityHours: 40,
		Allocations: []ProjectAllocation{
			{ProjectID: "p-1", TargetHours: 10, PriorityWeight: 1},
		},
		Priorities: map[string]float64{"t-a": 1, "t-b": 1},
	})

	require.Equal(t, StatusOptimal, sel.Status)
	assert.ElementsMatch(t, []string{"t-a", "t-b"}, sel.SelectedTaskIDs)
	assert.InDelta(t, 8.0, sel.HoursByProject["p-1"], 0.001)
}

func TestSelectWeek_ZeroTargetExcludesProject(t *testing.T) {
	sel := SelectWeek(WeeklyRequest{
		Tasks: []Task{
			{ID: "t-a", RemainingHours: 2, ProjectID: "p-zero", Kind: domain.KindFocusedWork},
			{ID: "t-b", RemainingHours: 2, ProjectID: "p-live", Kind: domain.KindFocusedWork},
		},
		CapacityHours: 40,
		Allocations: []ProjectAllocation{
			{ProjectID: "p-zero", TargetHours: 0},
		},
		Priorities: map[string]float64{"t-a": 10, "t-b": 1},
	})

	require.Equal(t, StatusOptimal, sel.Status)
	assert.Equal(t, []string{"t-b"}, sel.SelectedTaskIDs)
	assert.NotContains(t, sel.HoursByProject, "p-zero")
}

func TestSelectWeek_DiscreteTasksCanMakeBandInfeasible(t *testing.T) {
	// Band is [9.5, 10.5] but achievable sums are 0, 4, 12 and 16 hours.
	sel := SelectWeek(WeeklyRequest{
		Tasks: []Task{
			{ID: "t-a", RemainingHours: 4, ProjectID: "p-1", Kind: domain.KindFocusedWork},
			{ID: "t-b", RemainingHours: 12, ProjectID: "p-1", Kind: domain.KindFocusedWork},
		},
		CapacityHours: 40,
		Allocations: []ProjectAllocation{
			{ProjectID: "p-1", TargetHours: 10},
		},
		Priorities: map[string]float64{"t-a": 5, "t-b": 5},
	})

	assert.Equal(t, StatusInfeasible, sel.Status)
	assert.Empty(t, sel.SelectedTaskIDs)
	assert.Zero(t, sel.SelectedHours)
}

func TestSelectWeek_RecurringBypassesProjectBands(t *testing.T) {
	sel := SelectWeek(WeeklyRequest{
		Tasks: []Task{
			{ID: "t-a", RemainingHours: 2, ProjectID: "p-1", Kind: domain.KindFocusedWork},
		},
		Recurring: []Task{
			{ID: "r-1", RemainingHours: 2, IsRecurring: true},
		},
		CapacityHours: 3,
		Priorities:    map[string]float64{"t-a": 4, "r-1": 5},
	})

	require.Equal(t, StatusOptimal, sel.Status)
	assert.Empty(t, sel.SelectedTaskIDs)
	assert.Equal(t, []string{"r-1"}, sel.SelectedRecurringIDs)
	assert.Empty(t, sel.HoursByProject, "recurring hours never count against a project")
}

func TestSelectWeek_ProjectBonusOutweighsRawPriority(t *testing.T) {
	sel := SelectWeek(WeeklyRequest{
		Tasks: []Task{
			{ID: "t-plain", RemainingHours: 5, ProjectID: "p-plain", Kind: domain.KindFocusedWork},
			{ID: "t-weighted", RemainingHours: 5, ProjectID: "p-weighted", Kind: domain.KindFocusedWork},
		},
		CapacityHours: 5,
		Allocations: []ProjectAllocation{
			{ProjectID: "p-weighted", TargetHours: 5, PriorityWeight: 1},
		},
		Priorities: map[string]float64{"t-plain": 10, "t-weighted": 2},
	})

	require.Equal(t, StatusOptimal, sel.Status)
	assert.Equal(t, []string{"t-weighted"}, sel.SelectedTaskIDs)
}

func TestSelectWeek_Deterministic(t *testing.T) {
	req := WeeklyRequest{
		Tasks: []Task{
			{ID: "t-a", RemainingHours: 3, ProjectID: "p-1", Kind: domain.KindFocusedWork},
			{ID: "t-b", RemainingHours: 3, ProjectID: "p-2", Kind: domain.KindLightWork},
			{ID: "t-c", RemainingHours: 4, ProjectID: "p-1", Kind: domain.KindStudy},
			{ID: "t-d", RemainingHours: 2, ProjectID: "p-2", Kind: domain.KindFocusedWork},
		},
		Recurring: []Task{
			{ID: "r-1", RemainingHours: 1, IsRecurring: true},
		},
		CapacityHours: 8,
		Priorities: map[string]float64{
			"t-a": 7, "t-b": 7, "t-c": 3, "t-d": 5, "r-1": 6,
		},
	}

	first := SelectWeek(req)
	for i := 0; i < 5; i++ {
		again := SelectWeek(req)
		assert.Equal(t, first.SelectedTaskIDs, again.SelectedTaskIDs)
		assert.Equal(t, first.SelectedRecurringIDs, again.SelectedRecurringIDs)
		assert.Equal(t, first.Objective, again.Objective)
	}
}

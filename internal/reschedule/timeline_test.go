package reschedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/horae/internal/domain"
)

func plan(assignments ...domain.PlanAssignment) domain.DayPlan {
	return domain.DayPlan{Date: "2026-08-24", Assignments: assignments}
}

func slot(taskID, start, end string) domain.PlanAssignment {
	return domain.PlanAssignment{TaskID: taskID, TaskTitle: "Task " + taskID, Start: start, End: end}
}

func TestNormalTimeline_CompleteDropsSlot(t *testing.T) {
	p := plan(slot("a", "09:00", "10:00"), slot("b", "10:00", "11:00"))

	out := normalTimeline(p, "a", domain.DecisionComplete, nil)

	require.Len(t, out.Assignments, 1)
	assert.Equal(t, "b", out.Assignments[0].TaskID)
}

func TestNormalTimeline_ContinueAnnotatesRemaining(t *testing.T) {
	p := plan(slot("a", "09:00", "10:00"))
	remaining := 1.5

	out := normalTimeline(p, "a", domain.DecisionContinue, &remaining)

	require.Len(t, out.Assignments, 1)
	require.NotNil(t, out.Assignments[0].RemainingHours)
	assert.Equal(t, 1.5, *out.Assignments[0].RemainingHours)
}

func TestNormalTimeline_SwitchKeepsSlotAsIs(t *testing.T) {
	p := plan(slot("a", "09:00", "10:00"))

	out := normalTimeline(p, "a", domain.DecisionSwitch, nil)

	assert.Equal(t, p.Assignments, out.Assignments)
}

func TestManualTimeline_SlotBeforeExecutionUntouched(t *testing.T) {
	p := plan(slot("a", "08:00", "09:00"), slot("b", "13:00", "14:00"))

	// Session ran 10:00-11:00.
	out := manualTimeline(p, 10*60, 11*60)

	assert.Equal(t, p.Assignments, out.Assignments)
}

func TestManualTimeline_OverlappingSlotMovedAfterExecution(t *testing.T) {
	p := plan(slot("a", "10:30", "11:30"))

	out := manualTimeline(p, 10*60, 11*60)

	require.Len(t, out.Assignments, 1)
	assert.Equal(t, "11:00", out.Assignments[0].Start)
	assert.Equal(t, "12:00", out.Assignments[0].End)
}

func TestManualTimeline_DelayRipplesThroughLaterSlots(t *testing.T) {
	p := plan(
		slot("a", "10:30", "11:30"), // overlaps, moves to 11:00-12:00
		slot("b", "11:30", "12:30"), // now collides with the cursor, shifts to 12:00
		slot("c", "14:00", "15:00"), // clear of the cursor, untouched
	)

	out := manualTimeline(p, 10*60, 11*60)

	require.Len(t, out.Assignments, 3)
	assert.Equal(t, "11:00", out.Assignments[0].Start)
	assert.Equal(t, "12:00", out.Assignments[1].Start)
	assert.Equal(t, "13:00", out.Assignments[1].End)
	assert.Equal(t, "14:00", out.Assignments[2].Start)
}

func TestManualTimeline_CascadePastMidnightClampsToDayEnd(t *testing.T) {
	p := plan(slot("a", "22:30", "23:30"))

	// Session ran 22:00-23:45: the slot restarts at 23:45 and its end clamps
	// at the last minute of the day instead of wrapping to the morning.
	out := manualTimeline(p, 22*60, 23*60+45)

	require.Len(t, out.Assignments, 1)
	assert.Equal(t, "23:45", out.Assignments[0].Start)
	assert.Equal(t, "23:59", out.Assignments[0].End)
}

func TestManualTimeline_UnparseableTimesPassThrough(t *testing.T) {
	p := plan(slot("a", "25:99", "oops"), slot("b", "10:30", "11:00"))

	out := manualTimeline(p, 10*60, 11*60)

	assert.Equal(t, "25:99", out.Assignments[0].Start)
	assert.Equal(t, "11:00", out.Assignments[1].Start, "valid slots still reschedule")
}

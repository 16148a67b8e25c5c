package reschedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff_RemovedTask(t *testing.T) {
	original := plan(slot("a", "09:00", "10:00"), slot("b", "10:00", "11:00"))
	proposed := plan(slot("b", "10:00", "11:00"))

	d := Diff(original, proposed)

	require.Len(t, d.Removed, 1)
	assert.Equal(t, "a", d.Removed[0].TaskID)
	assert.Equal(t, "Time exceeded - deferred to later", d.Removed[0].Reason)
	// b moved from index 1 to 0.
	require.Len(t, d.Reordered, 1)
	assert.Equal(t, "Moved earlier in schedule", d.Reordered[0].Reason)
	assert.Equal(t, 2, d.TotalChanges)
	assert.True(t, d.HasSignificantChanges)
}

func TestDiff_AddedTask(t *testing.T) {
	original := plan(slot("a", "09:00", "10:00"))
	proposed := plan(slot("a", "09:00", "10:00"), slot("b", "10:00", "11:00"))

	d := Diff(original, proposed)

	require.Len(t, d.Added, 1)
	assert.Equal(t, "b", d.Added[0].TaskID)
	assert.Equal(t, "Added to fill available time", d.Added[0].Reason)
}

func TestDiff_PushedByIndex(t *testing.T) {
	original := plan(slot("a", "09:00", "10:00"), slot("b", "10:00", "11:00"))
	proposed := plan(slot("b", "10:00", "11:00"), slot("a", "11:00", "12:00"))

	d := Diff(original, proposed)

	require.Len(t, d.Pushed, 1)
	assert.Equal(t, "a", d.Pushed[0].TaskID)
	assert.Equal(t, "Pushed back due to earlier task overrun", d.Pushed[0].Reason)
	require.Len(t, d.Reordered, 1)
	assert.Equal(t, "b", d.Reordered[0].TaskID)
}

func TestDiff_PushedByTimeShiftAtSameIndex(t *testing.T) {
	original := plan(slot("a", "10:30", "11:30"))
	proposed := plan(slot("a", "11:00", "12:00"))

	d := Diff(original, proposed)

	require.Len(t, d.Pushed, 1)
	assert.Equal(t, 1, d.TotalChanges)
}

func TestDiff_IdenticalPlansNotSignificant(t *testing.T) {
	p := plan(slot("a", "09:00", "10:00"), slot("b", "10:00", "11:00"))

	d := Diff(p, p)

	assert.Zero(t, d.TotalChanges)
	assert.False(t, d.HasSignificantChanges)
}

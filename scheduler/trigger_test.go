package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTrigger_Interval(t *testing.T) {
	trig, err := ParseTrigger(TriggerInterval, "90s")
	require.NoError(t, err)

	base := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	assert.Equal(t, base.Add(90*time.Second), trig.Next(base))
}

func TestParseTrigger_IntervalErrors(t *testing.T) {
	for _, spec := range []string{"abc", "-5s", "0s", ""} {
		_, err := ParseTrigger(TriggerInterval, spec)
		assert.Error(t, err, "spec %q", spec)
	}
}

func TestParseTrigger_DateOneShot(t *testing.T) {
	at := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	trig, err := ParseTrigger(TriggerDate, at.Format(time.RFC3339))
	require.NoError(t, err)

	before := at.Add(-time.Hour)
	assert.Equal(t, at, trig.Next(before).UTC())

	// Once the instant has passed the trigger never fires again.
	assert.True(t, trig.Next(at).IsZero())
	assert.True(t, trig.Next(at.Add(time.Minute)).IsZero())
}

func TestParseTrigger_DateError(t *testing.T) {
	_, err := ParseTrigger(TriggerDate, "tomorrow")
	assert.Error(t, err)
}

func TestParseTrigger_UnknownType(t *testing.T) {
	_, err := ParseTrigger("lunar", "* * * * *")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lunar")
}

func TestCron_Next(t *testing.T) {
	// 2026-03-14 is a Saturday.
	base := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	tests := []struct {
		spec string
		want time.Time
	}{
		{"*/5 * * * *", time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)},
		{"* * * * *", time.Date(2026, 3, 14, 9, 27, 0, 0, time.UTC)},
		{"0 3 * * *", time.Date(2026, 3, 15, 3, 0, 0, 0, time.UTC)},
		{"30 9 * * 1", time.Date(2026, 3, 16, 9, 30, 0, 0, time.UTC)},
		{"0,30 9-17 * * *", time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)},
		{"0 0 1 4 *", time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)},
		{"0 12 * * 7", time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		trig, err := ParseTrigger(TriggerCron, tt.spec)
		require.NoError(t, err, "spec %q", tt.spec)
		assert.Equal(t, tt.want, trig.Next(base), "spec %q", tt.spec)
	}
}

func TestCron_DayOfMonthOrDayOfWeek(t *testing.T) {
	// 2026-03-14 is a Saturday.
	base := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	// Both day fields restricted: the 13th OR a Friday, whichever is
	// sooner. Friday 2026-03-20 comes before April 13th.
	trig, err := ParseTrigger(TriggerCron, "0 0 13 * 5")
	require.NoError(t, err)
	first := trig.Next(base)
	assert.Equal(t, time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC), first)
	assert.Equal(t, time.Date(2026, 3, 27, 0, 0, 0, 0, time.UTC), trig.Next(first))

	// Only one day field restricted keeps the usual conjunction.
	trig, err = ParseTrigger(TriggerCron, "0 0 15 * *")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), trig.Next(base))

	trig, err = ParseTrigger(TriggerCron, "0 0 * * 3")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 18, 0, 0, 0, 0, time.UTC), trig.Next(base))
}

func TestCron_NextIsStrictlyAfter(t *testing.T) {
	trig, err := ParseTrigger(TriggerCron, "30 9 * * *")
	require.NoError(t, err)

	// Asking from the exact fire instant yields the following day.
	at := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, at.AddDate(0, 0, 1), trig.Next(at))
}

func TestCron_UnsatisfiableReturnsZero(t *testing.T) {
	trig, err := ParseTrigger(TriggerCron, "0 0 30 2 *")
	require.NoError(t, err)

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	assert.True(t, trig.Next(base).IsZero())
}

func TestCron_ParseErrors(t *testing.T) {
	specs := []string{
		"* * * *",        // four fields
		"* * * * * *",    // six fields
		"60 * * * *",     // minute out of range
		"* 24 * * *",     // hour out of range
		"* * 0 * *",      // day of month out of range
		"* * * 13 *",     // month out of range
		"* * * * 8",      // day of week out of range
		"*/0 * * * *",    // zero step
		"5-1 * * * *",    // inverted range
		"banana * * * *", // not a number
	}
	for _, spec := range specs {
		_, err := ParseTrigger(TriggerCron, spec)
		assert.Error(t, err, "spec %q", spec)
	}
}

package recurrence

import (
	"testing"
	"time"

	"github.com/MartinKaiser/FinCal/app/models"
	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextDueDate(t *testing.T) {
	tests := []struct {
		name  string
		cycle models.BillingCycle
		from  time.Time
		want  time.Time
	}{
		{name: "daily", cycle: models.CycleDaily, from: date(2024, time.March, 10), want: date(2024, time.March, 11)},
		{name: "weekly", cycle: models.CycleWeekly, from: date(2024, time.March, 10), want: date(2024, time.March, 17)},
		{name: "monthly plain", cycle: models.CycleMonthly, from: date(2024, time.January, 1), want: date(2024, time.February, 1)},
		{name: "monthly clamps to feb leap", cycle: models.CycleMonthly, from: date(2024, time.January, 31), want: date(2024, time.February, 29)},
		{name: "monthly clamps to feb non-leap", cycle: models.CycleMonthly, from: date(2025, time.January, 31), want: date(2025, time.February, 28)},
		{name: "monthly 30 to feb", cycle: models.CycleMonthly, from: date(2025, time.March, 30), want: date(2025, time.April, 30)},
		{name: "yearly", cycle: models.CycleYearly, from: date(2024, time.June, 15), want: date(2025, time.June, 15)},
		{name: "yearly feb 29 clamps", cycle: models.CycleYearly, from: date(2024, time.February, 29), want: date(2025, time.February, 28)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextDueDate(tt.cycle, tt.from))
		})
	}
}

func TestNextDueDateIsIdempotentForSameInput(t *testing.T) {
	from := date(2024, time.January, 31)
	first := NextDueDate(models.CycleMonthly, from)
	second := NextDueDate(models.CycleMonthly, from)
	assert.Equal(t, first, second)
}

func TestNextDueDateAnchoredReturnsToAnchorDay(t *testing.T) {
	// Jan 31 -> Feb 29 -> Mar 31 when anchored on day 31.
	feb := NextDueDateAnchored(models.CycleMonthly, date(2024, time.January, 31), 31)
	assert.Equal(t, date(2024, time.February, 29), feb)

	mar := NextDueDateAnchored(models.CycleMonthly, feb, 31)
	assert.Equal(t, date(2024, time.March, 31), mar)
}

func TestNextDueDateNormalizesToReferenceZone(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skip("tzdata unavailable")
	}

	// A due date expressed in a DST-shifting zone must not drift once
	// cycles are computed in the reference zone.
	from := time.Date(2024, time.March, 30, 23, 30, 0, 0, berlin)
	next := NextDueDate(models.CycleDaily, from)
	assert.Equal(t, time.UTC, next.Location())
	assert.Equal(t, from.In(time.UTC).Add(24*time.Hour).Day(), next.Day())
}

func TestDuePredicates(t *testing.T) {
	now := date(2024, time.May, 10)

	assert.True(t, DueOn(date(2024, time.May, 10), now))
	assert.True(t, DueOn(date(2024, time.May, 1), now))
	assert.False(t, DueOn(date(2024, time.May, 11), now))

	assert.True(t, OverdueOn(date(2024, time.May, 9), now))
	assert.False(t, OverdueOn(date(2024, time.May, 10), now))

	assert.True(t, DueWithin(date(2024, time.May, 13), now, 3))
	assert.False(t, DueWithin(date(2024, time.May, 14), now, 3))
	assert.False(t, DueWithin(date(2024, time.May, 9), now, 3))

	// Time-of-day must not matter at day granularity.
	assert.True(t, DueOn(time.Date(2024, time.May, 10, 23, 59, 0, 0, time.UTC), now))
}

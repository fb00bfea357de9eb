package recurrence

import (
	"time"

	"github.com/MartinKaiser/FinCal/app/models"
)

// All due-date arithmetic runs in a fixed reference timezone so cycle
// boundaries never drift across DST changes.
var Reference = time.UTC

// NextDueDate returns the due date one cycle after from. Month and year
// steps clamp to the last day of shorter months (Jan 31 + 1 month is
// Feb 28, or Feb 29 in leap years). The anchor day is taken from the
// input date itself, so clamping is sticky; callers that want a Jan 31
// subscription to come back to Mar 31 pass the original day through
// NextDueDateAnchored.
func NextDueDate(cycle models.BillingCycle, from time.Time) time.Time {
	return NextDueDateAnchored(cycle, from, 0)
}

// NextDueDateAnchored advances from by one cycle, pinning monthly and
// yearly cycles to anchorDay when it is set (1..31). Pure and idempotent
// for identical inputs.
func NextDueDateAnchored(cycle models.BillingCycle, from time.Time, anchorDay int) time.Time {
	t := from.In(Reference)

	switch cycle {
	case models.CycleDaily:
		return t.AddDate(0, 0, 1)
	case models.CycleWeekly:
		return t.AddDate(0, 0, 7)
	case models.CycleYearly:
		return addMonthsClamped(t, 12, anchorDay)
	default: // monthly
		return addMonthsClamped(t, 1, anchorDay)
	}
}

// addMonthsClamped adds months without the normalization overflow of
// time.AddDate (Jan 31 + 1 month must not become Mar 3).
func addMonthsClamped(t time.Time, months int, anchorDay int) time.Time {
	day := t.Day()
	if anchorDay >= 1 && anchorDay <= 31 {
		day = anchorDay
	}

	first := time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), Reference)
	target := first.AddDate(0, months, 0)
	if last := daysInMonth(target.Year(), target.Month()); day > last {
		day = last
	}

	return time.Date(target.Year(), target.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), Reference)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, Reference).Day()
}

// DueOn reports whether a due date has arrived: due <= now at day
// granularity in the reference timezone.
func DueOn(due, now time.Time) bool {
	return !dateOf(due).After(dateOf(now))
}

// OverdueOn reports whether a due date lies strictly before the current
// date.
func OverdueOn(due, now time.Time) bool {
	return dateOf(due).Before(dateOf(now))
}

// DueWithin reports whether due falls inside the "due soon" window:
// today up to and including leadDays from now.
func DueWithin(due, now time.Time, leadDays int) bool {
	d := dateOf(due)
	today := dateOf(now)
	return !d.Before(today) && !d.After(today.AddDate(0, 0, leadDays))
}

func dateOf(t time.Time) time.Time {
	u := t.In(Reference)
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, Reference)
}

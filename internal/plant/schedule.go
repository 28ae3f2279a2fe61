package plant

import "time"

// HourLayout formats the Hour field of a Record.
const HourLayout = "15:04"

// IntervalDays returns the number of days between two reminders for f.
// Weekly frequencies spread Times reminders over seven days; everything else
// repeats daily. The result is never less than one day.
func IntervalDays(f Frequency) int {
	if f.RepeatEvery == RepeatWeek && f.Times > 0 {
		if days := 7 / f.Times; days > 0 {
			return days
		}
	}
	return 1
}

// NextNotificationAt computes the next reminder time. The date is now's date
// plus IntervalDays(f); the time of day is taken from picked. A zero picked
// keeps now's time of day.
func NextNotificationAt(now, picked time.Time, f Frequency) time.Time {
	if picked.IsZero() {
		picked = now
	}
	picked = picked.In(now.Location())

	y, m, d := now.Date()
	return time.Date(y, m, d+IntervalDays(f),
		picked.Hour(), picked.Minute(), picked.Second(), 0, now.Location())
}

// FormatHour renders t the way Record.Hour is stored.
func FormatHour(t time.Time) string {
	return t.Format(HourLayout)
}

// ParseHour parses "HH:mm" and returns that time of day on now's date.
func ParseHour(now time.Time, hour string) (time.Time, error) {
	t, err := time.ParseInLocation(HourLayout, hour, now.Location())
	if err != nil {
		return time.Time{}, &ValidationError{Field: "hour", Reason: "expected HH:mm"}
	}
	y, m, d := now.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, now.Location()), nil
}

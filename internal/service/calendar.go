package service

import "time"

// FormatThreadTimestamp formats the time of a thread's last activity
// relative to now: the clock time today, "Yesterday", the weekday within
// the last week and the date otherwise.
func FormatThreadTimestamp(ts, now time.Time) string {
	ts = ts.In(now.Location())
	today := truncateDay(now)
	day := truncateDay(ts)

	switch {
	case !day.Before(today):
		return ts.Format("3:04 PM")
	case day.Equal(today.AddDate(0, 0, -1)):
		return "Yesterday"
	case day.After(today.AddDate(0, 0, -7)):
		return ts.Weekday().String()
	}
	return ts.Format("Jan 2")
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

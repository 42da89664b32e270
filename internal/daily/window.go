package daily

import "time"

// YesterdayWindow returns the first and last instant of the calendar day before
// now, in loc. A nil loc means time.Local.
func YesterdayWindow(now time.Time, loc *time.Location) (since, until time.Time) {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := now.In(loc).Date()
	since = time.Date(y, m, d-1, 0, 0, 0, 0, loc)
	until = time.Date(y, m, d-1, 23, 59, 59, int(999*time.Millisecond), loc)
	return since, until
}

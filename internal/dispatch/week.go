package dispatch

import "time"

// WeekWindow returns the Monday-anchored [start, end) window of the week
// containing t, in UTC. Any day of the same week yields the same window, so
// the board can be queried with whatever date the client has at hand.
func WeekWindow(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	monday := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, -daysSinceMonday)
	return monday, monday.AddDate(0, 0, 7)
}

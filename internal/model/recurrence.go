package model

import "time"

const day = 24 * time.Hour

// NextDailyAfter returns the first daily occurrence of anchor's clock time that
// is strictly after from. Occurrences before the anchor never count.
func NextDailyAfter(anchor, from time.Time) time.Time {
	if from.Before(anchor) {
		return anchor
	}
	steps := int(from.Sub(anchor)/day) + 1
	next := withAnchorClock(anchor.AddDate(0, 0, steps), anchor)
	for !next.After(from) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// PreviewDaily lists the next count occurrences strictly after from.
func PreviewDaily(anchor, from time.Time, count int) []time.Time {
	if count <= 0 {
		return []time.Time{}
	}
	out := make([]time.Time, 0, count)
	cursor := from
	for i := 0; i < count; i++ {
		next := NextDailyAfter(anchor, cursor)
		out = append(out, next)
		cursor = next
	}
	return out
}

func withAnchorClock(date time.Time, anchor time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, anchor.Hour(), anchor.Minute(), anchor.Second(), anchor.Nanosecond(), anchor.Location())
}

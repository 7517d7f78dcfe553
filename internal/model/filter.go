package model

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type Filter string

const (
	FilterDaily    Filter = "daily"
	FilterUpcoming Filter = "upcoming"
	FilterAll      Filter = "all"
	FilterMissed   Filter = "missed"
)

var Filters = []Filter{FilterDaily, FilterUpcoming, FilterAll, FilterMissed}

func (f Filter) IsValid() bool {
	switch f {
	case FilterDaily, FilterUpcoming, FilterAll, FilterMissed:
		return true
	default:
		return false
	}
}

func ParseFilter(raw string) (Filter, error) {
	f := Filter(strings.ToLower(strings.TrimSpace(raw)))
	if !f.IsValid() {
		return "", fmt.Errorf("model: unknown filter %q", raw)
	}
	return f, nil
}

// SortByFireTime orders records by fire time ascending. Records without a
// parsable time sort first, as if they fired at the epoch.
func SortByFireTime(list []Medicine) {
	sort.SliceStable(list, func(i, j int) bool {
		return fireOrEpoch(list[i]).Before(fireOrEpoch(list[j]))
	})
}

// Visible projects the stored list for display: sort, filter, then search.
// The input slice is not modified.
func Visible(list []Medicine, filter Filter, query string, now time.Time) []Medicine {
	out := make([]Medicine, 0, len(list))
	for _, m := range list {
		if matchesFilter(m, filter, now) && matchesQuery(m, query) {
			out = append(out, m)
		}
	}
	SortByFireTime(out)
	return out
}

func matchesFilter(m Medicine, filter Filter, now time.Time) bool {
	switch filter {
	case FilterDaily:
		return m.Repeat == RepeatDaily
	case FilterUpcoming:
		return !fireOrEpoch(m).Before(now) && m.Status != StatusTaken
	case FilterMissed:
		return m.Status == StatusMissed
	default:
		return true
	}
}

func matchesQuery(m Medicine, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(m.Name), q) || strings.Contains(strings.ToLower(m.Dosage), q)
}

func fireOrEpoch(m Medicine) time.Time {
	if t, ok := m.FireAt(); ok {
		return t
	}
	return time.Unix(0, 0).UTC()
}

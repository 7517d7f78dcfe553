package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidStatus     = errors.New("model: invalid medicine status")
	ErrInvalidRepeat     = errors.New("model: invalid repeat mode")
	ErrInvalidMealTiming = errors.New("model: invalid meal timing")
)

// ISOLayout matches the millisecond UTC timestamps the records were first written with.
const ISOLayout = "2006-01-02T15:04:05.000Z07:00"

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusTaken     Status = "taken"
	StatusMissed    Status = "missed"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusScheduled, StatusTaken, StatusMissed:
		return true
	default:
		return false
	}
}

type Repeat string

const (
	RepeatOnce  Repeat = "once"
	RepeatDaily Repeat = "daily"
)

func (r Repeat) IsValid() bool {
	switch r {
	case RepeatOnce, RepeatDaily:
		return true
	default:
		return false
	}
}

type MealTiming string

const (
	MealUnset  MealTiming = ""
	MealBefore MealTiming = "before"
	MealAfter  MealTiming = "after"
)

func (m MealTiming) IsValid() bool {
	switch m {
	case MealUnset, MealBefore, MealAfter:
		return true
	default:
		return false
	}
}

// Label is the wording shown next to the toggle in the add form.
func (m MealTiming) Label() string {
	switch m {
	case MealBefore:
		return "before eat"
	case MealAfter:
		return "after eat"
	default:
		return "-"
	}
}

// TimeOfDay keeps the persisted object shape {morning, afternoon, evening}.
// It classifies a record for display only and never moves the fire time.
type TimeOfDay struct {
	Morning   bool `json:"morning"`
	Afternoon bool `json:"afternoon"`
	Evening   bool `json:"evening"`
}

func (t TimeOfDay) Any() bool {
	return t.Morning || t.Afternoon || t.Evening
}

func (t TimeOfDay) Tags() []string {
	out := make([]string, 0, 3)
	if t.Morning {
		out = append(out, "morning")
	}
	if t.Afternoon {
		out = append(out, "afternoon")
	}
	if t.Evening {
		out = append(out, "evening")
	}
	return out
}

// Toggle flips one tag by name and reports whether the name was known.
func (t *TimeOfDay) Toggle(tag string) bool {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "morning":
		t.Morning = !t.Morning
	case "afternoon":
		t.Afternoon = !t.Afternoon
	case "evening":
		t.Evening = !t.Evening
	default:
		return false
	}
	return true
}

type Medicine struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Dosage     string     `json:"dosage"`
	TimeISO    string     `json:"timeISO"`
	TimeOfDay  TimeOfDay  `json:"timeOfDay"`
	MealTiming MealTiming `json:"mealTiming,omitempty"`
	Repeat     Repeat     `json:"repeat"`
	Status     Status     `json:"status"`
	TakenAt    *time.Time `json:"takenAt,omitempty"`
	MissedAt   *time.Time `json:"missedAt,omitempty"`
}

// Normalize fills the defaults older payloads may lack.
func (m Medicine) Normalize() Medicine {
	if m.Repeat == "" {
		m.Repeat = RepeatOnce
	}
	if m.Status == "" {
		m.Status = StatusScheduled
	}
	return m
}

// FireAt parses TimeISO. ok is false for empty or unparsable values.
func (m Medicine) FireAt() (time.Time, bool) {
	raw := strings.TrimSpace(m.TimeISO)
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (m Medicine) IsDaily() bool {
	return m.Repeat == RepeatDaily
}

func (m Medicine) MarkTaken(now time.Time) Medicine {
	at := now.UTC()
	m.Status = StatusTaken
	m.TakenAt = &at
	return m
}

func (m Medicine) MarkMissed(now time.Time) Medicine {
	at := now.UTC()
	m.Status = StatusMissed
	m.MissedAt = &at
	return m
}

func (m Medicine) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return errors.New("model: medicine id is required")
	}
	if strings.TrimSpace(m.Name) == "" {
		return errors.New("model: medicine name is required")
	}
	if !m.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, m.Status)
	}
	if !m.Repeat.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidRepeat, m.Repeat)
	}
	if !m.MealTiming.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidMealTiming, m.MealTiming)
	}
	return nil
}

func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOLayout)
}

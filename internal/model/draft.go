package model

import (
	"fmt"
	"strings"
	"time"
)

type ValidationCode string

const (
	CodeNameRequired       ValidationCode = "name_required"
	CodeTimeRequired       ValidationCode = "time_required"
	CodeTimeNotFuture      ValidationCode = "time_not_future"
	CodeTimeOfDayRequired  ValidationCode = "time_of_day_required"
	CodeMealTimingRequired ValidationCode = "meal_timing_required"
	CodeInvalidFireTime    ValidationCode = "invalid_fire_time"
)

// ValidationError is the only error kind meant to be shown to the user as-is.
type ValidationError struct {
	Code    ValidationCode
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Draft is what the add form submits before an id is assigned.
type Draft struct {
	Name       string
	Dosage     string
	FireAt     time.Time
	TimeOfDay  TimeOfDay
	MealTiming MealTiming
	Daily      bool
}

// Validate applies the form rules in order; the first violation wins.
func (d Draft) Validate(now time.Time) error {
	if strings.TrimSpace(d.Name) == "" {
		return &ValidationError{Code: CodeNameRequired, Message: "Please enter the medicine name."}
	}
	if d.FireAt.IsZero() {
		return &ValidationError{Code: CodeTimeRequired, Message: "Please select a reminder date and time."}
	}
	if !d.FireAt.After(now) {
		return &ValidationError{Code: CodeTimeNotFuture, Message: "Please select a future date/time."}
	}
	if !d.TimeOfDay.Any() {
		return &ValidationError{Code: CodeTimeOfDayRequired, Message: "Please select at least one: Morning, Afternoon, or Evening."}
	}
	if d.MealTiming == MealUnset || !d.MealTiming.IsValid() {
		return &ValidationError{Code: CodeMealTimingRequired, Message: `Please choose either "After eat" or "Before eat".`}
	}
	return nil
}

// Build turns a validated draft into a fresh scheduled record.
func (d Draft) Build(id string) Medicine {
	repeat := RepeatOnce
	if d.Daily {
		repeat = RepeatDaily
	}
	return Medicine{
		ID:         id,
		Name:       strings.TrimSpace(d.Name),
		Dosage:     strings.TrimSpace(d.Dosage),
		TimeISO:    FormatISO(d.FireAt),
		TimeOfDay:  d.TimeOfDay,
		MealTiming: d.MealTiming,
		Repeat:     repeat,
		Status:     StatusScheduled,
	}
}

// DraftFrom is the inverse of Build, used when editing an existing record.
func DraftFrom(m Medicine) Draft {
	fire, _ := m.FireAt()
	return Draft{
		Name:       m.Name,
		Dosage:     m.Dosage,
		FireAt:     fire,
		TimeOfDay:  m.TimeOfDay,
		MealTiming: m.MealTiming,
		Daily:      m.IsDaily(),
	}
}

var fireTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ParseFireTime reads the time typed into the form or the command palette.
// A bare "15:04" means the next time the clock shows that value.
func ParseFireTime(raw string, now time.Time) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range fireTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, now.Location()); err == nil {
			return t, nil
		}
	}
	clock, err := time.ParseInLocation("15:04", value, now.Location())
	if err != nil {
		return time.Time{}, &ValidationError{Code: CodeInvalidFireTime, Message: fmt.Sprintf("Unrecognised time %q; use HH:MM or YYYY-MM-DD HH:MM.", value)}
	}
	y, m, d := now.Date()
	candidate := time.Date(y, m, d, clock.Hour(), clock.Minute(), 0, 0, now.Location())
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate, nil
}

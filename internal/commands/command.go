package commands

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/sandeepkv93/medremind/internal/model"
)

type Type string

const (
	TypeAdd     Type = "add"
	TypeTake    Type = "take"
	TypeDelete  Type = "delete"
	TypeEdit    Type = "edit"
	TypeFilter  Type = "filter"
	TypeSearch  Type = "search"
	TypeRefresh Type = "refresh"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// AddArgs is the palette form of the add screen:
//
//	add <name...> at:<time> tod:morning,evening meal:after [dose:<text...>] [daily]
type AddArgs struct {
	Name      string
	Dosage    string
	At        string
	TimeOfDay []string
	Meal      string
	Daily     bool
}

// TargetArgs names a record by list position (1-based), id, or "selected".
type TargetArgs struct {
	Target string
}

type FilterArgs struct {
	Filter model.Filter
}

type SearchArgs struct {
	Query string
}

type Command struct {
	Type   Type
	Raw    string
	Add    *AddArgs
	Take   *TargetArgs
	Delete *TargetArgs
	Edit   *TargetArgs
	Filter *FilterArgs
	Search *SearchArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, ":") {
		raw = strings.TrimSpace(raw[1:])
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeAdd:
		return parseAdd(input, args)
	case TypeTake:
		return parseTarget(input, TypeTake, args)
	case TypeDelete, "rm":
		return parseTarget(input, TypeDelete, args)
	case TypeEdit:
		return parseTarget(input, TypeEdit, args)
	case TypeFilter:
		return parseFilter(input, args)
	case TypeSearch:
		return Command{Type: TypeSearch, Raw: input, Search: &SearchArgs{Query: strings.Join(args, " ")}}, nil
	case TypeRefresh:
		return Command{Type: TypeRefresh, Raw: input}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseAdd(raw string, args []string) (Command, error) {
	var name, dosage []string
	bucket := &name
	out := AddArgs{}
	for _, arg := range args {
		lower := strings.ToLower(arg)
		switch {
		case strings.HasPrefix(lower, "at:"):
			out.At = strings.ReplaceAll(arg[len("at:"):], "_", " ")
		case strings.HasPrefix(lower, "tod:"):
			for _, tag := range strings.Split(lower[len("tod:"):], ",") {
				tag = strings.TrimSpace(tag)
				if tag == "" {
					continue
				}
				var probe model.TimeOfDay
				if !probe.Toggle(tag) {
					return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("unknown time of day: %s", tag)}
				}
				if !slices.Contains(out.TimeOfDay, tag) {
					out.TimeOfDay = append(out.TimeOfDay, tag)
				}
			}
		case strings.HasPrefix(lower, "meal:"):
			out.Meal = lower[len("meal:"):]
			if m := model.MealTiming(out.Meal); m == model.MealUnset || !m.IsValid() {
				return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "meal must be before or after"}
			}
		case strings.HasPrefix(lower, "dose:"):
			bucket = &dosage
			if rest := arg[len("dose:"):]; rest != "" {
				dosage = append(dosage, rest)
			}
		case lower == "daily":
			out.Daily = true
		default:
			*bucket = append(*bucket, arg)
		}
	}
	out.Name = strings.TrimSpace(strings.Join(name, " "))
	out.Dosage = strings.TrimSpace(strings.Join(dosage, " "))
	if out.Name == "" {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "add requires a medicine name"}
	}
	return Command{Type: TypeAdd, Raw: raw, Add: &out}, nil
}

func parseTarget(raw string, typ Type, args []string) (Command, error) {
	target := "selected"
	if len(args) > 0 {
		target = strings.TrimSpace(args[0])
	}
	cmd := Command{Type: typ, Raw: raw}
	switch typ {
	case TypeTake:
		cmd.Take = &TargetArgs{Target: target}
	case TypeEdit:
		cmd.Edit = &TargetArgs{Target: target}
	default:
		cmd.Delete = &TargetArgs{Target: target}
	}
	return cmd, nil
}

func parseFilter(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "filter requires one of daily, upcoming, all, missed"}
	}
	f, err := model.ParseFilter(args[0])
	if err != nil {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: err.Error()}
	}
	return Command{Type: TypeFilter, Raw: raw, Filter: &FilterArgs{Filter: f}}, nil
}

// Draft converts the arguments into a form submission. Rule checks are left
// to the reminder controller; a blank name outranks an unreadable time.
func (a AddArgs) Draft(now time.Time) (model.Draft, error) {
	fireAt, err := model.ParseFireTime(a.At, now)
	if err != nil && strings.TrimSpace(a.Name) != "" {
		return model.Draft{}, err
	}
	d := model.Draft{
		Name:       a.Name,
		Dosage:     a.Dosage,
		FireAt:     fireAt,
		MealTiming: model.MealTiming(a.Meal),
		Daily:      a.Daily,
	}
	for _, tag := range a.TimeOfDay {
		d.TimeOfDay.Toggle(tag)
	}
	return d, nil
}

package update

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

func levelFromError(isErr bool) string {
	if isErr {
		return "error"
	}
	return "info"
}

func escapeAppleScript(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

func contains(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}

// editInput applies typing keys to in and reports whether its value changed.
func editInput(in *textinput.Model, msg tea.KeyMsg) bool {
	before := in.Value()
	switch msg.Type {
	case tea.KeyRunes:
		in.SetValue(before + string(msg.Runes))
	case tea.KeySpace:
		in.SetValue(before + " ")
	case tea.KeyBackspace:
		r := []rune(before)
		if len(r) > 0 {
			in.SetValue(string(r[:len(r)-1]))
		}
	default:
		*in, _ = in.Update(msg)
	}
	return in.Value() != before
}

package update

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/medremind/internal/commands"
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "esc":
		m.closePalette()
		m.Status = StatusBar{Text: "command palette closed", IsError: false}
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		m = m.executePaletteCommand()
	default:
		editInput(&m.commandInput, msg)
		m.Palette.Input = m.commandInput.Value()
	}
	return m
}

func (m *Model) closePalette() {
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Blur()
}

// resolveTarget maps "selected", a 1-based list position or an id to a record id.
func (m Model) resolveTarget(target string) (string, error) {
	target = strings.TrimSpace(target)
	if target == "" || strings.EqualFold(target, "selected") {
		if m.SelectedID == "" {
			return "", &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: "no medicine selected"}
		}
		return m.SelectedID, nil
	}
	if n, err := strconv.Atoi(target); err == nil {
		if n < 1 || n > len(m.Items) {
			return "", &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("no medicine at position %d", n)}
		}
		return m.Items[n-1].ID, nil
	}
	return target, nil
}

func (m Model) executePaletteCommand() Model {
	raw := strings.TrimSpace(m.Palette.Input)
	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		m.closePalette()
		return m
	}

	res, err := commands.Execute(cmd, commands.Handlers{
		Add: func(a commands.AddArgs) (commands.Result, error) {
			med, err := m.addReminder(a)
			if err != nil {
				return commands.Result{}, err
			}
			m.SelectedID = med.ID
			m.reload()
			return commands.Result{Message: fmt.Sprintf("reminder set: %s at %s", med.Name, whenLabel(med, "2006-01-02 15:04"))}, nil
		},
		Take: func(t commands.TargetArgs) (commands.Result, error) {
			id, err := m.resolveTarget(t.Target)
			if err != nil {
				return commands.Result{}, err
			}
			med, err := m.reminders.AcknowledgeTaken(m.ctx, id)
			if err != nil {
				return commands.Result{}, err
			}
			m.clearRinging(id)
			m.reload()
			return commands.Result{Message: fmt.Sprintf("marked taken: %s", med.Name)}, nil
		},
		Delete: func(t commands.TargetArgs) (commands.Result, error) {
			id, err := m.resolveTarget(t.Target)
			if err != nil {
				return commands.Result{}, err
			}
			if err := m.reminders.DeleteReminder(m.ctx, id); err != nil {
				return commands.Result{}, err
			}
			m.clearRinging(id)
			m.reload()
			return commands.Result{Message: fmt.Sprintf("deleted: %s", id)}, nil
		},
		Edit: func(t commands.TargetArgs) (commands.Result, error) {
			id, err := m.resolveTarget(t.Target)
			if err != nil {
				return commands.Result{}, err
			}
			if err := m.openEdit(id); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: m.Status.Text}, nil
		},
		Filter: func(f commands.FilterArgs) (commands.Result, error) {
			m.Filter = f.Filter
			m.reload()
			return commands.Result{Message: fmt.Sprintf("filter: %s (%d)", f.Filter, len(m.Items))}, nil
		},
		Search: func(s commands.SearchArgs) (commands.Result, error) {
			m.Query = strings.TrimSpace(s.Query)
			m.reload()
			return commands.Result{Message: fmt.Sprintf("search %q: %d match(es)", m.Query, len(m.Items))}, nil
		},
		Refresh: func() (commands.Result, error) {
			m.reminders.Refresh(m.ctx)
			m.reload()
			return commands.Result{Message: fmt.Sprintf("refreshed: %d shown", len(m.Items))}, nil
		},
	})
	if err != nil {
		m.fail(err)
		m.notify("Command Failed", m.Status.Text, "error")
	} else {
		m.Status = StatusBar{Text: res.Message, IsError: false}
		m.notify("Command", res.Message, "info")
	}

	m.closePalette()
	return m
}

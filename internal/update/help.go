package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/sandeepkv93/medremind/internal/views"
)

type KeyBinding struct {
	Key    string
	Action string
}

type helpKeyMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding  { return k.short }
func (k helpKeyMap) FullHelp() [][]key.Binding { return k.full }

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	return m.renderHelpView()
}

func (m Model) renderHelpView() string {
	bindings := m.helpBindings()
	var plain []string
	for _, kb := range m.modeBindings() {
		plain = append(plain, fmt.Sprintf("- %s: %s", kb.Key, kb.Action))
	}
	return views.RenderHelpPanel(views.HelpPanelData{
		Bindings: plain,
		HelpView: m.helpModel.View(helpKeyMap{
			short: bindings,
			full:  [][]key.Binding{bindings},
		}),
	})
}

func (m Model) globalBindings() []KeyBinding {
	return []KeyBinding{
		{Key: "1-4", Action: "daily / upcoming / all / missed"},
		{Key: m.Keys.Search, Action: "search name or dosage"},
		{Key: m.Keys.Palette, Action: "open command palette"},
		{Key: m.Keys.Ack, Action: "take the ringing reminder"},
		{Key: m.Keys.Help, Action: "toggle help panel"},
		{Key: m.Keys.Quit, Action: "quit app"},
	}
}

func (m Model) modeBindings() []KeyBinding {
	switch m.Mode {
	case ModeForm:
		return []KeyBinding{
			{Key: "tab/shift+tab", Action: "next / previous field"},
			{Key: "enter", Action: "save reminder"},
			{Key: "esc", Action: "cancel"},
		}
	case ModeSearch:
		return []KeyBinding{
			{Key: "enter", Action: "keep search"},
			{Key: "esc", Action: "clear search"},
		}
	case ModeConfirm:
		return []KeyBinding{{Key: "y", Action: "confirm delete"}}
	default:
		return []KeyBinding{
			{Key: "j/k", Action: "move selection"},
			{Key: m.Keys.Take, Action: "mark taken"},
			{Key: m.Keys.Delete, Action: "delete (asks first)"},
			{Key: m.Keys.Add, Action: "add medicine"},
			{Key: m.Keys.Edit, Action: "edit selected"},
			{Key: m.Keys.Refresh, Action: "refresh missed status"},
		}
	}
}

func (m Model) helpBindings() []key.Binding {
	out := make([]key.Binding, 0, len(m.globalBindings())+len(m.modeBindings()))
	for _, kb := range m.globalBindings() {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	for _, kb := range m.modeBindings() {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	return out
}

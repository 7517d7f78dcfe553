package update

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/medremind/internal/views"
)

func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.triggers != nil {
		cmds = append(cmds, waitForTriggerCmd(m.triggers))
	}
	if m.failures != nil {
		cmds = append(cmds, waitForFailureCmd(m.failures))
	}
	cmds = append(cmds, m.refreshTickCmd())
	return tea.Batch(cmds...)
}

// refreshTickCmd re-runs reconciliation periodically so records turn missed
// while the app stays open.
func (m Model) refreshTickCmd() tea.Cmd {
	if m.refreshEvery <= 0 {
		return nil
	}
	return tea.Tick(m.refreshEvery, func(time.Time) tea.Msg { return RefreshMsg{} })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if typed.String() == "ctrl+c" {
			m.Quitting = true
			return m, tea.Quit
		}
		if m.Palette.Active {
			return m.handlePaletteKey(typed), nil
		}
		switch m.Mode {
		case ModeForm:
			return m.handleFormKey(typed), nil
		case ModeSearch:
			return m.handleSearchKey(typed), nil
		case ModeConfirm:
			return m.handleConfirmKey(typed), nil
		}

		switch typed.String() {
		case m.Keys.Palette:
			m.Palette.Active = true
			m.Palette.Input = ""
			m.commandInput.SetValue("")
			m.commandInput.Focus()
			m.Status = StatusBar{Text: "command palette active", IsError: false}
			return m, nil
		case m.Keys.Help:
			m.HelpVisible = !m.HelpVisible
			if m.HelpVisible {
				m.Status = StatusBar{Text: "help shown", IsError: false}
			} else {
				m.Status = StatusBar{Text: "help hidden", IsError: false}
			}
			return m, nil
		case m.Keys.Ack:
			m.acknowledgeRinging()
			return m, nil
		case m.Keys.Quit:
			m.Quitting = true
			return m, tea.Quit
		}
		return m.handleListKey(typed)
	case tea.WindowSizeMsg:
		m.resize(typed.Width)
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		m.notify("Status", typed.Text, levelFromError(typed.IsError))
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			m.notify("Error", typed.Err.Error(), "error")
		}
		return m, nil
	case RefreshMsg:
		m.reminders.Refresh(m.ctx)
		m.reload()
		return m, m.refreshTickCmd()
	case TriggerFiredMsg:
		m.applyTrigger(typed.Trigger)
		if m.triggers != nil {
			return m, waitForTriggerCmd(m.triggers)
		}
		return m, nil
	case FailureMsg:
		if typed.Failure != nil {
			m.LastError = typed.Failure
			m.Status = StatusBar{Text: typed.Failure.Error(), IsError: true}
			m.notify("Failure", typed.Failure.Error(), "error")
		}
		if m.failures != nil {
			return m, waitForFailureCmd(m.failures)
		}
		return m, nil
	}

	return m, nil
}

// resize fits the detail viewport and help line to a new terminal width.
func (m *Model) resize(width int) {
	m.Width = width
	_, side, _ := views.PaneWidths(width)
	m.detail.Width = side - 2
	m.helpModel.Width = width
	m.syncDetail()
}

func (m Model) View() string {
	status := ""
	if m.Status.Text != "" {
		if m.Status.IsError {
			status = fmt.Sprintf("status: error: %s", m.Status.Text)
		} else {
			status = fmt.Sprintf("status: %s", m.Status.Text)
		}
	}
	leftPane := m.renderListView()
	rightPane := m.renderDetailPane()
	if m.Mode == ModeForm {
		rightPane = m.renderFormView()
	}
	if m.Palette.Active {
		rightPane += "\n\n" + m.renderCommandPalette()
	}
	if help := m.renderHelpIfVisible(); help != "" {
		rightPane += "\n\n" + help
	}

	return views.RenderApp(views.AppData{
		Header:       fmt.Sprintf("medremind | filter: %s | shown: %d | mode: %s", m.Filter, len(m.Items), m.Mode),
		LeftPane:     leftPane,
		RightPane:    rightPane,
		StatusLine:   status,
		StatusError:  m.Status.IsError,
		Notification: m.renderNotificationsView(),
		Width:        m.Width,
		Footer: fmt.Sprintf("keys: 1-4 filter | %s search | %s add | %s edit | %s take | %s delete | %s cmd | %s help | %s quit",
			m.Keys.Search, m.Keys.Add, m.Keys.Edit, m.Keys.Take, m.Keys.Delete, m.Keys.Palette, m.Keys.Help, m.Keys.Quit),
	})
}

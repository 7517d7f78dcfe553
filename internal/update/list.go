package update

import (
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/medremind/internal/model"
	"github.com/sandeepkv93/medremind/internal/views"
)

// reload re-projects the stored records and keeps the selection on the same
// record when it is still visible.
func (m *Model) reload() {
	if m.reminders == nil {
		m.Items = nil
		m.SelectedID = ""
		return
	}
	m.Items = m.reminders.ListVisible(m.ctx, m.Filter, m.Query)
	if _, ok := m.indexOf(m.SelectedID); !ok {
		m.SelectedID = ""
		if len(m.Items) > 0 {
			m.SelectedID = m.Items[0].ID
		}
	}
	m.syncDetail()
}

func (m Model) indexOf(id string) (int, bool) {
	if id == "" {
		return 0, false
	}
	for i, med := range m.Items {
		if med.ID == id {
			return i, true
		}
	}
	return 0, false
}

func (m Model) selected() (model.Medicine, bool) {
	i, ok := m.indexOf(m.SelectedID)
	if !ok {
		return model.Medicine{}, false
	}
	return m.Items[i], true
}

func (m *Model) moveSelection(delta int) {
	if len(m.Items) == 0 {
		return
	}
	i, _ := m.indexOf(m.SelectedID)
	i += delta
	if i < 0 {
		i = 0
	}
	if i >= len(m.Items) {
		i = len(m.Items) - 1
	}
	m.SelectedID = m.Items[i].ID
	m.syncDetail()
}

func (m *Model) setFilter(f model.Filter) {
	m.Filter = f
	m.reload()
	m.Status = StatusBar{Text: fmt.Sprintf("filter: %s (%d)", f, len(m.Items))}
}

func (m *Model) takeSelected() {
	med, ok := m.selected()
	if !ok {
		m.Status = StatusBar{Text: "no medicine selected", IsError: true}
		return
	}
	m.take(med.ID)
}

func (m *Model) take(id string) {
	med, err := m.reminders.AcknowledgeTaken(m.ctx, id)
	if err != nil {
		m.fail(err)
		return
	}
	m.clearRinging(id)
	m.reload()
	m.Status = StatusBar{Text: fmt.Sprintf("marked taken: %s", med.Name)}
}

func (m *Model) deleteRecord(id string) {
	name := id
	if i, ok := m.indexOf(id); ok {
		name = m.Items[i].Name
	}
	if err := m.reminders.DeleteReminder(m.ctx, id); err != nil {
		m.fail(err)
		return
	}
	m.clearRinging(id)
	m.reload()
	m.Status = StatusBar{Text: fmt.Sprintf("deleted: %s", name)}
}

// clearRinging drops the banner once its record was taken, edited or deleted.
func (m *Model) clearRinging(id string) {
	if m.Ringing != nil && m.Ringing.RecordID == id {
		m.Ringing = nil
	}
}

func (m *Model) refresh() {
	m.reminders.Refresh(m.ctx)
	m.reload()
	m.Status = StatusBar{Text: fmt.Sprintf("refreshed: %d shown", len(m.Items))}
}

func (m *Model) fail(err error) {
	m.LastError = err
	m.Status = StatusBar{Text: err.Error(), IsError: true}
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		m.Status.Text = verr.Message
	}
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "1", "2", "3", "4":
		m.setFilter(model.Filters[int(msg.String()[0]-'1')])
	case "j", "down":
		m.moveSelection(1)
	case "k", "up":
		m.moveSelection(-1)
	case m.Keys.Search:
		m.Mode = ModeSearch
		m.searchInput.SetValue(m.Query)
		m.searchInput.Focus()
	case m.Keys.Take:
		m.takeSelected()
	case m.Keys.Delete:
		if med, ok := m.selected(); ok {
			m.PendingDelete = med.ID
			m.Mode = ModeConfirm
			m.Status = StatusBar{Text: fmt.Sprintf("delete %s? press y to confirm", med.Name)}
		}
	case m.Keys.Refresh:
		m.refresh()
	case m.Keys.Add:
		m.Form = newFormState()
		m.Mode = ModeForm
	case m.Keys.Edit:
		if med, ok := m.selected(); ok {
			if err := m.openEdit(med.ID); err != nil {
				m.fail(err)
			}
		}
	}
	return m, nil
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) Model {
	id := m.PendingDelete
	m.PendingDelete = ""
	m.Mode = ModeList
	if msg.String() == "y" && id != "" {
		m.deleteRecord(id)
		return m
	}
	m.Status = StatusBar{Text: "delete cancelled"}
	return m
}

func (m Model) handleSearchKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "esc":
		m.Mode = ModeList
		m.Query = ""
		m.searchInput.SetValue("")
		m.searchInput.Blur()
		m.reload()
		return m
	case "enter":
		m.Mode = ModeList
		m.searchInput.Blur()
		return m
	}
	if editInput(&m.searchInput, msg) {
		m.Query = m.searchInput.Value()
		m.reload()
	}
	return m
}

func (m *Model) syncDetail() {
	med, ok := m.selected()
	if !ok {
		m.detail.SetContent("_No medicine selected_")
		return
	}
	m.detail.SetContent(views.RenderMarkdown(views.DetailMarkdown(detailData(med, m.reminders.Now())), m.detail.Width))
}

func detailData(med model.Medicine, now time.Time) views.DetailData {
	d := views.DetailData{
		Name:      med.Name,
		Dosage:    med.Dosage,
		When:      whenLabel(med, "2006-01-02 15:04"),
		Status:    string(med.Status),
		Repeat:    string(med.Repeat),
		TimeOfDay: med.TimeOfDay.Tags(),
		Meal:      med.MealTiming.Label(),
	}
	if med.TakenAt != nil {
		d.TakenAt = med.TakenAt.Local().Format("2006-01-02 15:04")
	}
	if med.MissedAt != nil {
		d.MissedAt = med.MissedAt.Local().Format("2006-01-02 15:04")
	}
	if at, ok := med.FireAt(); ok && med.IsDaily() && med.Status != model.StatusTaken {
		for _, next := range model.PreviewDaily(at, now, 3) {
			d.Upcoming = append(d.Upcoming, next.Local().Format("Mon 01-02 15:04"))
		}
	}
	return d
}

func whenLabel(med model.Medicine, layout string) string {
	at, ok := med.FireAt()
	if !ok {
		return "--:--"
	}
	return at.Local().Format(layout)
}

func (m Model) renderListView() string {
	filters := make([]string, 0, len(model.Filters))
	for _, f := range model.Filters {
		filters = append(filters, string(f))
	}
	rows := make([]views.MedicineRowData, 0, len(m.Items))
	for _, med := range m.Items {
		rows = append(rows, views.MedicineRowData{
			ID:        med.ID,
			Name:      med.Name,
			Dosage:    med.Dosage,
			When:      whenLabel(med, "01-02 15:04"),
			Status:    string(med.Status),
			Repeat:    string(med.Repeat),
			TimeOfDay: med.TimeOfDay.Tags(),
			Meal:      med.MealTiming.Label(),
		})
	}
	confirm := ""
	if m.Mode == ModeConfirm {
		if i, ok := m.indexOf(m.PendingDelete); ok {
			confirm = m.Items[i].Name
		}
	}
	return views.RenderMedicineList(views.MedicineListData{
		Filters:    filters,
		Filter:     string(m.Filter),
		Query:      m.Query,
		Searching:  m.Mode == ModeSearch,
		SearchView: m.searchInput.View(),
		Rows:       rows,
		SelectedID: m.SelectedID,
		ConfirmFor: confirm,
	})
}

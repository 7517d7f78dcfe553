package update

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/medremind/internal/commands"
	"github.com/sandeepkv93/medremind/internal/model"
	"github.com/sandeepkv93/medremind/internal/reminder"
	"github.com/sandeepkv93/medremind/internal/views"
)

const (
	fieldName = iota
	fieldDosage
	fieldTime
	fieldTimeOfDay
	fieldMeal
	fieldDaily
	fieldCount
)

var fieldLabels = [fieldCount]string{"name", "dosage", "time", "time of day", "meal", "daily"}

var fieldPlaceholders = [fieldCount]string{
	"Aspirin",
	"1 tablet (optional)",
	"HH:MM or YYYY-MM-DD HH:MM",
	"morning,afternoon,evening",
	"before / after",
	"y / n",
}

// FormState backs both the add and the edit form. EditID is empty when adding.
type FormState struct {
	Inputs []textinput.Model
	Focus  int
	Err    string
	EditID string
}

func newFormState() FormState {
	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		in := textinput.New()
		in.Prompt = "> "
		in.CharLimit = 128
		in.Width = 30
		in.Placeholder = fieldPlaceholders[i]
		inputs[i] = in
	}
	inputs[fieldName].Focus()
	return FormState{Inputs: inputs}
}

// newEditFormState pre-fills the form with med, times shown in now's zone.
func newEditFormState(med model.Medicine, now time.Time) FormState {
	f := newFormState()
	f.EditID = med.ID
	d := model.DraftFrom(med)
	at := ""
	if !d.FireAt.IsZero() {
		at = d.FireAt.In(now.Location()).Format("2006-01-02 15:04")
	}
	daily := "n"
	if d.Daily {
		daily = "y"
	}
	values := [fieldCount]string{
		d.Name,
		d.Dosage,
		at,
		strings.Join(d.TimeOfDay.Tags(), ","),
		string(d.MealTiming),
		daily,
	}
	for i, v := range values {
		f.Inputs[i].SetValue(v)
	}
	return f
}

func (f *FormState) focus(i int) {
	if len(f.Inputs) == 0 {
		return
	}
	f.Inputs[f.Focus].Blur()
	f.Focus = (i + len(f.Inputs)) % len(f.Inputs)
	f.Inputs[f.Focus].Focus()
}

func (f FormState) value(i int) string {
	return strings.TrimSpace(f.Inputs[i].Value())
}

// args reads the form the same way the palette "add" command is read.
func (f FormState) args() commands.AddArgs {
	a := commands.AddArgs{
		Name:   f.value(fieldName),
		Dosage: f.value(fieldDosage),
		At:     f.value(fieldTime),
		Meal:   strings.ToLower(f.value(fieldMeal)),
	}
	for _, tag := range strings.FieldsFunc(strings.ToLower(f.value(fieldTimeOfDay)), func(r rune) bool {
		return r == ',' || r == ' '
	}) {
		if !contains(a.TimeOfDay, tag) {
			a.TimeOfDay = append(a.TimeOfDay, tag)
		}
	}
	switch strings.ToLower(f.value(fieldDaily)) {
	case "y", "yes", "true", "daily":
		a.Daily = true
	}
	return a
}

func (m Model) handleFormKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "esc":
		verb := "add"
		if m.Form.EditID != "" {
			verb = "edit"
		}
		m.Mode = ModeList
		m.Form = newFormState()
		m.Status = StatusBar{Text: verb + " cancelled"}
		return m
	case "tab", "down":
		m.Form.focus(m.Form.Focus + 1)
		return m
	case "shift+tab", "up":
		m.Form.focus(m.Form.Focus - 1)
		return m
	case "enter":
		return m.submitForm()
	}
	editInput(&m.Form.Inputs[m.Form.Focus], msg)
	return m
}

func (m Model) submitForm() Model {
	editing := m.Form.EditID != ""
	var med model.Medicine
	var err error
	if editing {
		med, err = m.editReminder(m.Form.EditID, m.Form.args())
	} else {
		med, err = m.addReminder(m.Form.args())
	}
	if err != nil {
		m.Form.Err = err.Error()
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			m.Form.Err = verr.Message
		}
		return m
	}
	m.Mode = ModeList
	m.Form = newFormState()
	m.SelectedID = med.ID
	m.reload()
	verb := "reminder set"
	if editing {
		verb = "reminder updated"
	}
	m.Status = StatusBar{Text: fmt.Sprintf("%s: %s at %s", verb, med.Name, whenLabel(med, "2006-01-02 15:04"))}
	return m
}

func (m *Model) addReminder(a commands.AddArgs) (model.Medicine, error) {
	d, err := a.Draft(m.reminders.Now())
	if err != nil {
		return model.Medicine{}, err
	}
	return m.reminders.CreateReminder(m.ctx, d)
}

func (m *Model) editReminder(id string, a commands.AddArgs) (model.Medicine, error) {
	d, err := a.Draft(m.reminders.Now())
	if err != nil {
		return model.Medicine{}, err
	}
	med, err := m.reminders.EditReminder(m.ctx, id, d)
	if err != nil {
		return model.Medicine{}, err
	}
	m.clearRinging(id)
	return med, nil
}

// openEdit switches to the form pre-filled with the record id.
func (m *Model) openEdit(id string) error {
	for _, med := range m.reminders.ListVisible(m.ctx, model.FilterAll, "") {
		if med.ID == id {
			m.Form = newEditFormState(med, m.reminders.Now())
			m.Mode = ModeForm
			m.Status = StatusBar{Text: "editing " + med.Name}
			return nil
		}
	}
	return reminder.ErrUnknownMedicine
}

func (m Model) renderFormView() string {
	fields := make([]views.FormFieldData, 0, len(m.Form.Inputs))
	for i, in := range m.Form.Inputs {
		fields = append(fields, views.FormFieldData{
			Label:   fieldLabels[i],
			View:    in.View(),
			Focused: i == m.Form.Focus,
		})
	}
	title := "add medicine"
	if m.Form.EditID != "" {
		title = "edit medicine"
	}
	return views.RenderFormPanel(views.FormPanelData{
		Title:  title,
		Fields: fields,
		Err:    m.Form.Err,
	})
}

package views

import (
	"fmt"
	"strings"
)

type MedicineRowData struct {
	ID        string
	Name      string
	Dosage    string
	When      string
	Status    string
	Repeat    string
	TimeOfDay []string
	Meal      string
}

type MedicineListData struct {
	Filters    []string
	Filter     string
	Query      string
	Searching  bool
	SearchView string
	Rows       []MedicineRowData
	SelectedID string
	ConfirmFor string
}

type FormFieldData struct {
	Label   string
	View    string
	Focused bool
}

type FormPanelData struct {
	Title  string
	Fields []FormFieldData
	Err    string
}

type HelpPanelData struct {
	Bindings []string
	HelpView string
}

type DetailData struct {
	Name      string
	Dosage    string
	When      string
	Status    string
	Repeat    string
	TimeOfDay []string
	Meal      string
	TakenAt   string
	MissedAt  string
	Upcoming  []string
}

func RenderFilterTabs(filters []string, active string) string {
	tabs := make([]string, 0, len(filters))
	for i, f := range filters {
		label := fmt.Sprintf("%d %s", i+1, f)
		if f == active {
			label = "[" + label + "]"
		}
		tabs = append(tabs, label)
	}
	return strings.Join(tabs, "  ")
}

func RenderMedicineList(data MedicineListData) string {
	var b strings.Builder
	b.WriteString("medicines:\n")
	b.WriteString(RenderFilterTabs(data.Filters, data.Filter) + "\n")
	switch {
	case data.Searching:
		b.WriteString(data.SearchView + "\n")
	case data.Query != "":
		b.WriteString(fmt.Sprintf("search: %q\n", data.Query))
	}
	b.WriteString("actions: [j/k]move [t]taken [d]delete [a]add [r]refresh\n\n")
	if len(data.Rows) == 0 {
		b.WriteString("(no medicines)")
		return b.String()
	}
	for _, row := range data.Rows {
		cursor := " "
		if row.ID == data.SelectedID {
			cursor = ">"
		}
		b.WriteString(fmt.Sprintf("%s %s %s %s", cursor, statusBadge(row.Status), row.When, row.Name))
		if row.Dosage != "" {
			b.WriteString(" (" + row.Dosage + ")")
		}
		if row.Repeat == "daily" {
			b.WriteString(" daily")
		}
		b.WriteString("\n")
	}
	if data.ConfirmFor != "" {
		b.WriteString(fmt.Sprintf("\ndelete %s? [y]es / any key to cancel", data.ConfirmFor))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderFormPanel(data FormPanelData) string {
	var b strings.Builder
	b.WriteString(data.Title + ":\n")
	b.WriteString("keys: [tab]next [shift+tab]prev [enter]save [esc]cancel\n\n")
	for _, f := range data.Fields {
		marker := " "
		if f.Focused {
			marker = ">"
		}
		b.WriteString(fmt.Sprintf("%s %-12s %s\n", marker, f.Label+":", f.View))
	}
	if data.Err != "" {
		b.WriteString("\nerror: " + data.Err)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// DetailMarkdown describes one medicine for the glamour detail pane.
func DetailMarkdown(data DetailData) string {
	var b strings.Builder
	b.WriteString("# " + data.Name + "\n\n")
	if data.Dosage != "" {
		b.WriteString("**Dosage:** " + data.Dosage + "\n\n")
	}
	b.WriteString("**When:** " + data.When + "\n\n")
	b.WriteString(fmt.Sprintf("- status: `%s`\n- repeat: %s\n", data.Status, data.Repeat))
	if len(data.TimeOfDay) > 0 {
		b.WriteString("- time of day: " + strings.Join(data.TimeOfDay, ", ") + "\n")
	}
	if data.Meal != "" {
		b.WriteString("- meal: " + data.Meal + "\n")
	}
	if data.TakenAt != "" {
		b.WriteString("- taken at: " + data.TakenAt + "\n")
	}
	if data.MissedAt != "" {
		b.WriteString("- missed at: " + data.MissedAt + "\n")
	}
	if len(data.Upcoming) > 0 {
		b.WriteString("\n**Next:**\n\n")
		for _, at := range data.Upcoming {
			b.WriteString("1. " + at + "\n")
		}
	}
	return b.String()
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: :%s", input)
}

func RenderNotification(level string, title string, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return fmt.Sprintf("[%s] %s: %s", strings.ToUpper(level), title, body)
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help:\n%s\n%s",
		strings.Join(data.Bindings, "\n"),
		data.HelpView,
	)
}

func statusBadge(status string) string {
	switch status {
	case "missed":
		return "[RED]"
	case "taken":
		return "[GREEN]"
	default:
		return "[YELLOW]"
	}
}

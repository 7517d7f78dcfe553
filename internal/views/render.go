package views

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// Below StackWidth the list and detail panes are stacked instead of placed
// side by side.
const (
	StackWidth       = 112
	defaultListWidth = 58
	defaultSideWidth = 52
)

type AppData struct {
	Header       string
	LeftPane     string
	RightPane    string
	StatusLine   string
	StatusError  bool
	Footer       string
	Notification string
	Width        int
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	bannerStyle = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("11")).Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// PaneWidths splits the terminal width between the list and the side pane.
// stacked reports that both panes get the full width, one above the other.
func PaneWidths(total int) (list, side int, stacked bool) {
	if total <= 0 {
		return defaultListWidth, defaultSideWidth, false
	}
	// border and padding take four columns per pane
	if total < StackWidth {
		w := max(total-4, 20)
		return w, w, true
	}
	list = (total - 8) * 53 / 100
	return list, total - 8 - list, false
}

func RenderApp(data AppData) string {
	listW, sideW, stacked := PaneWidths(data.Width)
	left := panelStyle.Width(listW).Render(data.LeftPane)
	right := panelStyle.Width(sideW).Render(data.RightPane)
	row := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	if stacked {
		row = lipgloss.JoinVertical(lipgloss.Left, left, right)
	}

	status := statusStyle.Render(data.StatusLine)
	if data.StatusError {
		status = errorStyle.Render(data.StatusLine)
	}

	lines := []string{
		headerStyle.Render(data.Header),
		row,
		status,
	}
	if data.Notification != "" {
		lines = append(lines, bannerStyle.Render(data.Notification))
	}
	if data.Footer != "" {
		lines = append(lines, footerStyle.Render(data.Footer))
	}
	return strings.Join(lines, "\n")
}

// RenderMarkdown renders md with the dark glamour style, wrapped at width
// columns when width is positive. The raw text is returned if rendering fails.
func RenderMarkdown(md string, width int) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	opts := []glamour.TermRendererOption{glamour.WithStandardStyle("dark")}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}

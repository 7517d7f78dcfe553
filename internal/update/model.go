package update

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/sandeepkv93/medremind/internal/model"
	"github.com/sandeepkv93/medremind/internal/reminder"
	"github.com/sandeepkv93/medremind/internal/scheduler"
)

type Mode string

const (
	ModeList    Mode = "list"
	ModeSearch  Mode = "search"
	ModeForm    Mode = "form"
	ModeConfirm Mode = "confirm"
)

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Search  string
	Take    string
	Delete  string
	Add     string
	Edit    string
	Refresh string
	Palette string
	Ack     string
	Help    string
	Quit    string
}

// Reminders is the part of the reminder controller the TUI drives.
type Reminders interface {
	CreateReminder(ctx context.Context, d model.Draft) (model.Medicine, error)
	EditReminder(ctx context.Context, id string, d model.Draft) (model.Medicine, error)
	DeleteReminder(ctx context.Context, id string) error
	AcknowledgeTaken(ctx context.Context, id string) (model.Medicine, error)
	ListVisible(ctx context.Context, filter model.Filter, query string) []model.Medicine
	Refresh(ctx context.Context) []model.Medicine
	Now() time.Time
}

type Model struct {
	Mode           Mode
	Filter         model.Filter
	Query          string
	Items          []model.Medicine
	SelectedID     string
	PendingDelete  string
	Form           FormState
	Palette        CommandPaletteState
	HelpVisible    bool
	// Ringing is the primary reminder currently waiting for a "take" press.
	Ringing        *scheduler.Trigger
	Notifications  []Notification
	DesktopEnabled bool
	Status         StatusBar
	Keys           GlobalKeyMap
	Quitting       bool
	LastError      error
	Width          int

	ctx          context.Context
	reminders    Reminders
	triggers     <-chan scheduler.Trigger
	failures     <-chan *reminder.Failure
	acknowledge  func(context.Context, scheduler.AckEvent)
	notifier     DesktopNotifier
	refreshEvery time.Duration

	searchInput  textinput.Model
	commandInput textinput.Model
	helpModel    help.Model
	detail       viewport.Model
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

type Notification struct {
	Title string
	Body  string
	Level string
	At    time.Time
}

type DesktopNotifier interface {
	Send(Notification) error
}

type NoopDesktopNotifier struct{}

func (NoopDesktopNotifier) Send(Notification) error { return nil }

type ExecDesktopNotifier struct{}

func (ExecDesktopNotifier) Send(n Notification) error {
	switch runtime.GOOS {
	case "linux":
		return exec.Command("notify-send", n.Title, n.Body).Run()
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(n.Body), escapeAppleScript(n.Title))
		return exec.Command("osascript", "-e", script).Run()
	default:
		return nil
	}
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

type TriggerFiredMsg struct {
	Trigger scheduler.Trigger
}

type FailureMsg struct {
	Failure *reminder.Failure
}

type RefreshMsg struct{}

type Options struct {
	Reminders     Reminders
	Triggers      <-chan scheduler.Trigger
	Failures      <-chan *reminder.Failure
	Acknowledge   func(context.Context, scheduler.AckEvent)
	Notifier      DesktopNotifier
	Desktop       bool
	DefaultFilter model.Filter
	RefreshEvery  time.Duration
}

func NewModel(opts Options) Model {
	filter := opts.DefaultFilter
	if !filter.IsValid() {
		filter = model.FilterDaily
	}
	m := Model{
		Mode:           ModeList,
		Filter:         filter,
		DesktopEnabled: opts.Desktop,
		ctx:            context.Background(),
		reminders:      opts.Reminders,
		triggers:       opts.Triggers,
		failures:       opts.Failures,
		acknowledge:    opts.Acknowledge,
		notifier:       NoopDesktopNotifier{},
		refreshEvery:   opts.RefreshEvery,
		Keys: GlobalKeyMap{
			Search:  "/",
			Take:    "t",
			Delete:  "d",
			Add:     "a",
			Edit:    "e",
			Refresh: "r",
			Palette: ":",
			Ack:     "T",
			Help:    "?",
			Quit:    "q",
		},
	}
	if opts.Notifier != nil {
		m.notifier = opts.Notifier
	}
	m.initBubbleComponents()
	m.reload()
	return m
}

func (m *Model) initBubbleComponents() {
	m.searchInput = textinput.New()
	m.searchInput.Prompt = "search> "
	m.searchInput.CharLimit = 128
	m.searchInput.Width = 40

	m.commandInput = textinput.New()
	m.commandInput.Prompt = ":"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 48

	m.Form = newFormState()
	m.helpModel = help.New()
	m.detail = viewport.New(50, 14)
}

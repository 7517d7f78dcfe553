package update

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/medremind/internal/reminder"
	"github.com/sandeepkv93/medremind/internal/scheduler"
)

func waitForTriggerCmd(ch <-chan scheduler.Trigger) tea.Cmd {
	return func() tea.Msg {
		tr, ok := <-ch
		if !ok {
			return nil
		}
		return TriggerFiredMsg{Trigger: tr}
	}
}

func waitForFailureCmd(ch <-chan *reminder.Failure) tea.Cmd {
	return func() tea.Msg {
		f, ok := <-ch
		if !ok {
			return nil
		}
		return FailureMsg{Failure: f}
	}
}

// applyTrigger shows a fired trigger. A primary reminder rings until it is
// taken; a missed follow-up means reconciliation has something to do.
func (m *Model) applyTrigger(tr scheduler.Trigger) {
	switch tr.Kind {
	case scheduler.KindMissed:
		if m.Ringing != nil && m.Ringing.RecordID == tr.RecordID {
			m.Ringing = nil
		}
		m.notify(tr.Title, tr.Body, "warn")
		m.reminders.Refresh(m.ctx)
		m.reload()
		m.Status = StatusBar{Text: tr.Title, IsError: true}
	default:
		ringing := tr
		m.Ringing = &ringing
		m.notify(tr.Title, tr.Body, "info")
		m.Status = StatusBar{Text: fmt.Sprintf("%s (press %s to take)", tr.Title, m.Keys.Ack)}
	}
}

// acknowledgeRinging presses "take" on the ringing notification. The event
// goes through the notification platform so the same handler runs as for a
// desktop action.
func (m *Model) acknowledgeRinging() {
	if m.Ringing == nil {
		m.Status = StatusBar{Text: "no reminder is ringing"}
		return
	}
	tr := *m.Ringing
	m.Ringing = nil
	if m.acknowledge != nil {
		m.acknowledge(m.ctx, scheduler.AckEvent{ID: tr.ID, ActionID: scheduler.ActionTake})
		m.reload()
		m.Status = StatusBar{Text: fmt.Sprintf("taken: %s", tr.Title)}
		return
	}
	m.take(tr.RecordID)
}

// ChannelReporter forwards failures to the TUI. Reports are dropped rather
// than blocking when nobody is reading.
type ChannelReporter struct {
	ch chan *reminder.Failure
}

func NewChannelReporter(size int) *ChannelReporter {
	if size <= 0 {
		size = 1
	}
	return &ChannelReporter{ch: make(chan *reminder.Failure, size)}
}

func (r *ChannelReporter) Report(_ context.Context, f *reminder.Failure) {
	select {
	case r.ch <- f:
	default:
	}
}

func (r *ChannelReporter) C() <-chan *reminder.Failure {
	return r.ch
}

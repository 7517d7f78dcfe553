package reminder

import (
	"context"
	"errors"
	"time"

	"github.com/sandeepkv93/medremind/internal/model"
	"github.com/sandeepkv93/medremind/internal/scheduler"
)

// DefaultGraceWindow is how long an unacknowledged reminder may stay
// scheduled before it counts as missed.
const DefaultGraceWindow = 10 * time.Minute

const missedSuffix = "-missed"

// Platform is the notification boundary. *scheduler.Engine satisfies it.
type Platform interface {
	CreateTrigger(ctx context.Context, tr scheduler.Trigger) error
	Cancel(ctx context.Context, id string) error
	RequestPermission(ctx context.Context) error
	OnAcknowledge(h scheduler.AckHandler)
}

func MissedTriggerID(id string) string {
	return id + missedSuffix
}

// Adapter turns medicine records into primary and missed follow-up triggers.
type Adapter struct {
	platform Platform
	grace    time.Duration
}

func NewAdapter(platform Platform, grace time.Duration) *Adapter {
	if grace <= 0 {
		grace = DefaultGraceWindow
	}
	return &Adapter{platform: platform, grace: grace}
}

func (a *Adapter) Grace() time.Duration { return a.grace }

// Schedule creates the primary trigger and a one-shot missed follow-up for
// the first occurrence. An unparsable time schedules nothing.
func (a *Adapter) Schedule(ctx context.Context, med model.Medicine) error {
	if err := a.SchedulePrimary(ctx, med); err != nil {
		return err
	}
	return a.ScheduleMissed(ctx, med)
}

func (a *Adapter) SchedulePrimary(ctx context.Context, med model.Medicine) error {
	fireAt, ok := med.FireAt()
	if !ok {
		return invalidFireTime(med)
	}
	return a.create(ctx, med.ID, PrimaryTrigger(med, fireAt))
}

func (a *Adapter) ScheduleMissed(ctx context.Context, med model.Medicine) error {
	fireAt, ok := med.FireAt()
	if !ok {
		return invalidFireTime(med)
	}
	return a.create(ctx, med.ID, MissedTrigger(med, fireAt.Add(a.grace)))
}

// Cancel removes both triggers of id. Unknown triggers are not an error.
func (a *Adapter) Cancel(ctx context.Context, id string) error {
	return errors.Join(a.CancelPrimary(ctx, id), a.CancelMissed(ctx, id))
}

func (a *Adapter) CancelPrimary(ctx context.Context, id string) error {
	return a.cancel(ctx, id, id)
}

func (a *Adapter) CancelMissed(ctx context.Context, id string) error {
	return a.cancel(ctx, id, MissedTriggerID(id))
}

func (a *Adapter) RequestPermission(ctx context.Context) error {
	if err := a.platform.RequestPermission(ctx); err != nil {
		return &Failure{Kind: FailurePermission, Op: "request permission", Err: err}
	}
	return nil
}

// OnAcknowledge subscribes fn to "take" presses on live primary notifications.
func (a *Adapter) OnAcknowledge(fn func(ctx context.Context, id string)) {
	a.platform.OnAcknowledge(func(ctx context.Context, ev scheduler.AckEvent) {
		if ev.ActionID != scheduler.ActionTake || ev.ID == "" {
			return
		}
		fn(ctx, ev.ID)
	})
}

func (a *Adapter) create(ctx context.Context, recordID string, tr scheduler.Trigger) error {
	if err := a.platform.CreateTrigger(ctx, tr); err != nil {
		kind := FailureScheduling
		if errors.Is(err, scheduler.ErrPermissionDenied) {
			kind = FailurePermission
		}
		return &Failure{Kind: kind, Op: "create trigger " + tr.ID, RecordID: recordID, Err: err}
	}
	return nil
}

func (a *Adapter) cancel(ctx context.Context, recordID, triggerID string) error {
	if err := a.platform.Cancel(ctx, triggerID); err != nil {
		return &Failure{Kind: FailureScheduling, Op: "cancel trigger " + triggerID, RecordID: recordID, Err: err}
	}
	return nil
}

func invalidFireTime(med model.Medicine) error {
	return &model.ValidationError{
		Code:    model.CodeInvalidFireTime,
		Message: "Reminder time is not a valid timestamp: " + med.TimeISO,
	}
}

func PrimaryTrigger(med model.Medicine, fireAt time.Time) scheduler.Trigger {
	body := "Take your medicine: " + med.Name
	if med.Dosage != "" {
		body = med.Dosage + " — take now"
	}
	return scheduler.Trigger{
		ID:          med.ID,
		RecordID:    med.ID,
		Kind:        scheduler.KindPrimary,
		Title:       "Time for " + med.Name,
		Body:        body,
		FireAt:      fireAt,
		RepeatDaily: med.IsDaily(),
		Actions:     []string{scheduler.ActionTake},
	}
}

func MissedTrigger(med model.Medicine, fireAt time.Time) scheduler.Trigger {
	return scheduler.Trigger{
		ID:       MissedTriggerID(med.ID),
		RecordID: med.ID,
		Kind:     scheduler.KindMissed,
		Title:    "Missed: " + med.Name,
		Body:     "You missed " + med.Name + ". Tap to view.",
		FireAt:   fireAt,
	}
}

package reminder

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/sandeepkv93/medremind/internal/model"
)

var ErrUnknownMedicine = errors.New("reminder: unknown medicine")

type Options struct {
	Grace time.Duration
	// KeepDailyOnAck keeps a daily reminder's primary trigger alive after it
	// is marked taken. When false, taking a daily reminder ends its series.
	KeepDailyOnAck bool
	Reporter       Reporter
	Logger         *log.Logger
	Now            func() time.Time
	NewID          func() (string, error)
}

// Controller keeps the record store and the notification platform consistent.
// All operations run one at a time.
type Controller struct {
	mu         sync.Mutex
	store      Store
	adapter    *Adapter
	reconciler *Reconciler
	keepDaily  bool
	reporter   Reporter
	logger     *log.Logger
	now        func() time.Time
	newID      func() (string, error)
	subscribed bool
}

func NewController(store Store, platform Platform, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.WithPrefix("reminder")
	reporter := opts.Reporter
	if reporter == nil {
		reporter = LogReporter{Logger: logger}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	newID := opts.NewID
	if newID == nil {
		newID = newUUID
	}
	adapter := NewAdapter(platform, opts.Grace)
	return &Controller{
		store:      store,
		adapter:    adapter,
		reconciler: NewReconciler(store, adapter.Grace()),
		keepDaily:  opts.KeepDailyOnAck,
		reporter:   reporter,
		logger:     logger,
		now:        now,
		newID:      newID,
	}
}

func newUUID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (c *Controller) Now() time.Time { return c.now() }

// CreateReminder validates d, stores the new record and schedules it. A
// scheduling failure is reported but does not undo the stored record.
func (c *Controller) CreateReminder(ctx context.Context, d model.Draft) (model.Medicine, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := d.Validate(c.now()); err != nil {
		return model.Medicine{}, err
	}
	id, err := c.newID()
	if err != nil {
		return model.Medicine{}, &Failure{Kind: FailureStorage, Op: "assign id", Err: err}
	}
	med := d.Build(id)
	if err := c.store.Add(ctx, med); err != nil {
		return model.Medicine{}, &Failure{Kind: FailureStorage, Op: "add", RecordID: id, Err: err}
	}
	c.logger.Info("reminder created", "id", id, "name", med.Name, "at", med.TimeISO, "repeat", med.Repeat)
	c.swallow(ctx, c.adapter.Schedule(ctx, med))
	return med, nil
}

// EditReminder replaces the fields of an existing record and reschedules it
// as a fresh scheduled occurrence.
func (c *Controller) EditReminder(ctx context.Context, id string, d model.Draft) (model.Medicine, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.find(ctx, id); !ok {
		return model.Medicine{}, ErrUnknownMedicine
	}
	if err := d.Validate(c.now()); err != nil {
		return model.Medicine{}, err
	}
	med := d.Build(id)
	c.swallow(ctx, c.adapter.Cancel(ctx, id))
	if err := c.store.Update(ctx, med); err != nil {
		return model.Medicine{}, &Failure{Kind: FailureStorage, Op: "update", RecordID: id, Err: err}
	}
	c.swallow(ctx, c.adapter.Schedule(ctx, med))
	return med, nil
}

// DeleteReminder cancels the triggers of id before removing the record.
func (c *Controller) DeleteReminder(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.swallow(ctx, c.adapter.Cancel(ctx, id))
	if err := c.store.Delete(ctx, id); err != nil {
		return &Failure{Kind: FailureStorage, Op: "delete", RecordID: id, Err: err}
	}
	c.logger.Info("reminder deleted", "id", id)
	return nil
}

// AcknowledgeTaken marks id taken and cancels its outstanding triggers.
func (c *Controller) AcknowledgeTaken(ctx context.Context, id string) (model.Medicine, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.acknowledgeLocked(ctx, id)
}

func (c *Controller) acknowledgeLocked(ctx context.Context, id string) (model.Medicine, error) {
	med, ok := c.find(ctx, id)
	if !ok {
		return model.Medicine{}, ErrUnknownMedicine
	}
	med = med.MarkTaken(c.now())
	if err := c.store.Update(ctx, med); err != nil {
		return model.Medicine{}, &Failure{Kind: FailureStorage, Op: "mark taken", RecordID: id, Err: err}
	}
	c.swallow(ctx, c.adapter.CancelMissed(ctx, id))
	if !(c.keepDaily && med.IsDaily()) {
		c.swallow(ctx, c.adapter.CancelPrimary(ctx, id))
	}
	c.logger.Info("reminder taken", "id", id)
	return med, nil
}

// ListVisible projects the stored records through filter and query.
func (c *Controller) ListVisible(ctx context.Context, filter model.Filter, query string) []model.Medicine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.Visible(c.store.Load(ctx), filter, query, c.now())
}

// Reconcile marks overdue scheduled records missed and returns their ids.
func (c *Controller) Reconcile(ctx context.Context) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reconcileLocked(ctx)
}

func (c *Controller) reconcileLocked(ctx context.Context) []string {
	missed, err := c.reconciler.Run(ctx, c.now())
	c.swallow(ctx, err)
	if len(missed) > 0 {
		c.logger.Info("reminders missed", "count", len(missed))
	}
	return missed
}

// Refresh reconciles and then reloads, so missed states are current before
// anything is displayed.
func (c *Controller) Refresh(ctx context.Context) []model.Medicine {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reconcileLocked(ctx)
	return c.store.Load(ctx)
}

// Activate runs once per process start: it asks for notification permission,
// subscribes to acknowledge events, reconciles and re-arms the triggers of
// records that should still have them.
func (c *Controller) Activate(ctx context.Context) []model.Medicine {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.swallow(ctx, c.adapter.RequestPermission(ctx))
	if !c.subscribed {
		c.subscribed = true
		c.adapter.OnAcknowledge(c.handleAcknowledge)
	}
	c.reconcileLocked(ctx)
	list := c.store.Load(ctx)
	now := c.now()
	for _, med := range list {
		c.rearm(ctx, med, now)
	}
	return list
}

func (c *Controller) rearm(ctx context.Context, med model.Medicine, now time.Time) {
	fireAt, ok := med.FireAt()
	if !ok {
		return
	}
	switch med.Status {
	case model.StatusScheduled:
		if med.IsDaily() || fireAt.After(now) {
			c.swallow(ctx, c.adapter.SchedulePrimary(ctx, med))
		}
		c.swallow(ctx, c.adapter.ScheduleMissed(ctx, med))
	case model.StatusMissed:
		if med.IsDaily() {
			c.swallow(ctx, c.adapter.SchedulePrimary(ctx, med))
		}
	case model.StatusTaken:
		if med.IsDaily() && c.keepDaily {
			c.swallow(ctx, c.adapter.SchedulePrimary(ctx, med))
		}
	}
}

func (c *Controller) handleAcknowledge(ctx context.Context, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.acknowledgeLocked(ctx, id); err != nil {
		if errors.Is(err, ErrUnknownMedicine) {
			c.logger.Debug("acknowledge for unknown medicine", "id", id)
			return
		}
		c.swallow(ctx, err)
	}
}

func (c *Controller) find(ctx context.Context, id string) (model.Medicine, bool) {
	for _, med := range c.store.Load(ctx) {
		if med.ID == id {
			return med, true
		}
	}
	return model.Medicine{}, false
}

// swallow hands boundary errors to the reporter instead of the caller.
func (c *Controller) swallow(ctx context.Context, err error) {
	if err == nil {
		return
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			c.swallow(ctx, e)
		}
		return
	}
	var failure *Failure
	if errors.As(err, &failure) {
		c.reporter.Report(ctx, failure)
		return
	}
	c.reporter.Report(ctx, &Failure{Kind: FailureScheduling, Op: "schedule", Err: err})
}

package reminder

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sandeepkv93/medremind/internal/model"
	"github.com/sandeepkv93/medremind/internal/scheduler"
	"github.com/sandeepkv93/medremind/internal/storage"
)

type memorySlots struct {
	mu    sync.Mutex
	slots map[string]string
}

func (m *memorySlots) GetSlot(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.slots[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

func (m *memorySlots) PutSlot(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.slots == nil {
		m.slots = map[string]string{}
	}
	m.slots[key] = value
	return nil
}

func (m *memorySlots) DeleteSlot(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, key)
	return nil
}

// flakyStore wraps a real store, records mutations and can fail them.
type flakyStore struct {
	Store
	events    *[]string
	addErr    error
	updateErr error
	deleteErr error
}

func (f *flakyStore) Add(ctx context.Context, med model.Medicine) error {
	*f.events = append(*f.events, "add:"+med.ID)
	if f.addErr != nil {
		return f.addErr
	}
	return f.Store.Add(ctx, med)
}

func (f *flakyStore) Update(ctx context.Context, med model.Medicine) error {
	*f.events = append(*f.events, "update:"+med.ID)
	if f.updateErr != nil {
		return f.updateErr
	}
	return f.Store.Update(ctx, med)
}

func (f *flakyStore) Delete(ctx context.Context, id string) error {
	*f.events = append(*f.events, "delete:"+id)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.Store.Delete(ctx, id)
}

type fakePlatform struct {
	triggers  map[string]scheduler.Trigger
	events    *[]string
	createErr error
	permErr   error
	handlers  []scheduler.AckHandler
}

func (p *fakePlatform) CreateTrigger(_ context.Context, tr scheduler.Trigger) error {
	*p.events = append(*p.events, "create:"+tr.ID)
	if p.createErr != nil {
		return p.createErr
	}
	p.triggers[tr.ID] = tr
	return nil
}

func (p *fakePlatform) Cancel(_ context.Context, id string) error {
	*p.events = append(*p.events, "cancel:"+id)
	delete(p.triggers, id)
	return nil
}

func (p *fakePlatform) RequestPermission(context.Context) error { return p.permErr }

func (p *fakePlatform) OnAcknowledge(h scheduler.AckHandler) {
	p.handlers = append(p.handlers, h)
}

func (p *fakePlatform) press(ctx context.Context, id, action string) {
	for _, h := range p.handlers {
		h(ctx, scheduler.AckEvent{ID: id, ActionID: action})
	}
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

type failureLog []*Failure

func (l *failureLog) Report(_ context.Context, f *Failure) { *l = append(*l, f) }

type harness struct {
	ctx      context.Context
	clock    *clock
	events   []string
	records  *storage.MedicineStore
	store    *flakyStore
	platform *fakePlatform
	failures failureLog
	ctrl     *Controller
	ids      int
}

func newHarness(t *testing.T, keepDaily bool) *harness {
	t.Helper()
	h := &harness{
		ctx:   context.Background(),
		clock: &clock{t: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)},
	}
	quiet := log.New(io.Discard)
	h.records = storage.NewMedicineStore(&memorySlots{}, quiet)
	h.store = &flakyStore{Store: h.records, events: &h.events}
	h.platform = &fakePlatform{triggers: map[string]scheduler.Trigger{}, events: &h.events}
	h.ctrl = NewController(h.store, h.platform, Options{
		KeepDailyOnAck: keepDaily,
		Reporter:       &h.failures,
		Logger:         quiet,
		Now:            h.clock.now,
		NewID: func() (string, error) {
			h.ids++
			return "med-" + string(rune('0'+h.ids)), nil
		},
	})
	return h
}

func aspirin(now time.Time) model.Draft {
	return model.Draft{
		Name:       "  Aspirin ",
		Dosage:     " 1 tablet ",
		FireAt:     now.Add(time.Hour),
		TimeOfDay:  model.TimeOfDay{Morning: true},
		MealTiming: model.MealAfter,
	}
}

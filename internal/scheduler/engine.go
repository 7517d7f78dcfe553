package scheduler

import (
	"container/heap"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sandeepkv93/medremind/internal/model"
)

var (
	ErrInvalidTriggerTime = errors.New("scheduler: invalid trigger time")
	ErrInvalidTriggerID   = errors.New("scheduler: trigger id is required")
	ErrPermissionDenied   = errors.New("scheduler: notification permission denied")
	ErrEngineStopped      = errors.New("scheduler: engine stopped")
)

type TriggerKind string

const (
	KindPrimary TriggerKind = "primary"
	KindMissed  TriggerKind = "missed"
)

// ActionTake is the action id attached to primary reminders.
const ActionTake = "take"

type Trigger struct {
	ID          string
	RecordID    string
	Kind        TriggerKind
	Title       string
	Body        string
	FireAt      time.Time
	RepeatDaily bool
	Actions     []string
}

// AckEvent is delivered when the user presses an action on a live notification.
type AckEvent struct {
	ID       string
	ActionID string
}

type AckHandler func(ctx context.Context, ev AckEvent)

type permissionState int

const (
	permissionUnknown permissionState = iota
	permissionGranted
	permissionDenied
)

type queueItem struct {
	trigger Trigger
	index   int
}

type priorityQueue []*queueItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	return pq[i].trigger.FireAt.Before(pq[j].trigger.FireAt)
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x any) {
	item := x.(*queueItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[0 : n-1]
	return item
}

// Engine is the local notification platform: it holds timed triggers keyed by
// id, emits them on C when due, and relays acknowledge events to subscribers.
type Engine struct {
	mu         sync.Mutex
	queue      priorityQueue
	byID       map[string]*queueItem
	out        chan Trigger
	wakeup     chan struct{}
	stopCh     chan struct{}
	doneCh     chan struct{}
	started    bool
	stopped    bool
	dropped    uint64
	allow      bool
	permission permissionState
	handlers   []AckHandler
	now        func() time.Time
}

// NewEngine builds an engine. allowNotifications decides the answer
// RequestPermission gives.
func NewEngine(bufferSize int, allowNotifications bool) *Engine {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Engine{
		queue:  make(priorityQueue, 0),
		byID:   make(map[string]*queueItem),
		out:    make(chan Trigger, bufferSize),
		wakeup: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
		allow:  allowNotifications,
		now:    time.Now,
	}
}

func (e *Engine) C() <-chan Trigger {
	return e.out
}

func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return
	}
	e.started = true
	heap.Init(&e.queue)
	go e.loop()
}

func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started || e.stopped {
		e.stopped = true
		e.mu.Unlock()
		return
	}
	e.stopped = true
	close(e.stopCh)
	e.mu.Unlock()
	<-e.doneCh
}

func (e *Engine) RequestPermission(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.allow {
		e.permission = permissionDenied
		return ErrPermissionDenied
	}
	e.permission = permissionGranted
	return nil
}

// CreateTrigger queues tr, replacing any trigger with the same id. A daily
// trigger whose time has passed is moved to its next occurrence.
func (e *Engine) CreateTrigger(ctx context.Context, tr Trigger) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if tr.ID == "" {
		return ErrInvalidTriggerID
	}
	if tr.FireAt.IsZero() {
		return ErrInvalidTriggerTime
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return ErrEngineStopped
	}
	if e.permission == permissionDenied {
		return ErrPermissionDenied
	}
	if tr.RepeatDaily {
		if now := e.now(); tr.FireAt.Before(now) {
			tr.FireAt = model.NextDailyAfter(tr.FireAt, now)
		}
	}
	e.removeLocked(tr.ID)
	e.pushLocked(tr)
	e.signalWakeup()
	return nil
}

// Cancel drops a queued trigger. Unknown ids are ignored.
func (e *Engine) Cancel(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removeLocked(id) {
		e.signalWakeup()
	}
	return nil
}

// Pending returns the queued trigger with id, if any.
func (e *Engine) Pending(id string) (Trigger, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	item, ok := e.byID[id]
	if !ok {
		return Trigger{}, false
	}
	return item.trigger, true
}

func (e *Engine) PendingCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

func (e *Engine) OnAcknowledge(h AckHandler) {
	if h == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, h)
}

// Acknowledge delivers ev to every subscriber on the caller's goroutine.
func (e *Engine) Acknowledge(ctx context.Context, ev AckEvent) {
	e.mu.Lock()
	handlers := append([]AckHandler(nil), e.handlers...)
	e.mu.Unlock()
	for _, h := range handlers {
		h(ctx, ev)
	}
}

func (e *Engine) Dropped() uint64 {
	return atomic.LoadUint64(&e.dropped)
}

func (e *Engine) loop() {
	defer close(e.doneCh)
	defer close(e.out)

	var timer *time.Timer
	for {
		next, hasNext := e.peek()
		if !hasNext {
			select {
			case <-e.wakeup:
				continue
			case <-e.stopCh:
				return
			}
		}

		wait := next.FireAt.Sub(e.now())
		if wait < 0 {
			wait = 0
		}
		timer = resetTimer(timer, wait)

		select {
		case <-timer.C:
			due := e.popDue(e.now())
			for _, tr := range due {
				select {
				case e.out <- tr:
				default:
					atomic.AddUint64(&e.dropped, 1)
				}
			}
		case <-e.wakeup:
			continue
		case <-e.stopCh:
			if timer != nil {
				stopTimer(timer)
			}
			return
		}
	}
}

func (e *Engine) signalWakeup() {
	select {
	case e.wakeup <- struct{}{}:
	default:
	}
}

func (e *Engine) peek() (Trigger, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return Trigger{}, false
	}
	return e.queue[0].trigger, true
}

// popDue removes every trigger due at now and re-queues daily ones for the
// following day.
func (e *Engine) popDue(now time.Time) []Trigger {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Trigger, 0)
	for len(e.queue) > 0 {
		next := e.queue[0].trigger
		if next.FireAt.After(now) {
			break
		}
		item := heap.Pop(&e.queue).(*queueItem)
		delete(e.byID, item.trigger.ID)
		out = append(out, item.trigger)
	}
	for _, tr := range out {
		if tr.RepeatDaily {
			again := tr
			again.FireAt = model.NextDailyAfter(tr.FireAt, now)
			e.pushLocked(again)
		}
	}
	return out
}

func (e *Engine) pushLocked(tr Trigger) {
	item := &queueItem{trigger: tr}
	heap.Push(&e.queue, item)
	e.byID[tr.ID] = item
}

func (e *Engine) removeLocked(id string) bool {
	item, ok := e.byID[id]
	if !ok {
		return false
	}
	heap.Remove(&e.queue, item.index)
	delete(e.byID, id)
	return true
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}

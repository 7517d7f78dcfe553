package reminder

import (
	"context"
	"time"

	"github.com/sandeepkv93/medremind/internal/model"
)

// Store is the record persistence the reminder core needs.
// *storage.MedicineStore satisfies it.
type Store interface {
	Load(ctx context.Context) []model.Medicine
	Add(ctx context.Context, med model.Medicine) error
	Update(ctx context.Context, med model.Medicine) error
	Delete(ctx context.Context, id string) error
}

// Overdue reports whether a scheduled record has passed its grace window.
// Records with an unparsable time are never overdue.
func Overdue(med model.Medicine, now time.Time, grace time.Duration) bool {
	if med.Status != model.StatusScheduled {
		return false
	}
	fireAt, ok := med.FireAt()
	if !ok {
		return false
	}
	return now.After(fireAt.Add(grace))
}

// Reconciler promotes overdue scheduled records to missed.
type Reconciler struct {
	store Store
	grace time.Duration
}

func NewReconciler(store Store, grace time.Duration) *Reconciler {
	if grace <= 0 {
		grace = DefaultGraceWindow
	}
	return &Reconciler{store: store, grace: grace}
}

// Run persists each transition with its own update and stops at the first
// write failure; a later pass picks up whatever was not written. It returns
// the ids that were marked missed.
func (r *Reconciler) Run(ctx context.Context, now time.Time) ([]string, error) {
	var missed []string
	for _, med := range r.store.Load(ctx) {
		if !Overdue(med, now, r.grace) {
			continue
		}
		if err := r.store.Update(ctx, med.MarkMissed(now)); err != nil {
			return missed, &Failure{Kind: FailureStorage, Op: "reconcile", RecordID: med.ID, Err: err}
		}
		missed = append(missed, med.ID)
	}
	return missed, nil
}

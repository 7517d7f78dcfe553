package reminder

import (
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sandeepkv93/medremind/internal/model"
	"github.com/sandeepkv93/medremind/internal/scheduler"
	"github.com/sandeepkv93/medremind/internal/storage"
)

func TestCreateReminderStoresAndSchedulesBothTriggers(t *testing.T) {
	h := newHarness(t, false)
	start := h.clock.now()

	med, err := h.ctrl.CreateReminder(h.ctx, aspirin(start))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	stored := h.records.Load(h.ctx)
	if len(stored) != 1 {
		t.Fatalf("expected one stored record, got %d", len(stored))
	}
	got := stored[0]
	if got.ID != med.ID || got.Name != "Aspirin" || got.Dosage != "1 tablet" {
		t.Fatalf("unexpected stored record: %+v", got)
	}
	if got.Status != model.StatusScheduled || got.Repeat != model.RepeatOnce || got.MealTiming != model.MealAfter || !got.TimeOfDay.Morning {
		t.Fatalf("fields not preserved: %+v", got)
	}

	primary, ok := h.platform.triggers[med.ID]
	if !ok || !primary.FireAt.Equal(start.Add(time.Hour)) || primary.RepeatDaily {
		t.Fatalf("unexpected primary trigger: %+v", primary)
	}
	if primary.Title != "Time for Aspirin" || primary.Body != "1 tablet — take now" {
		t.Fatalf("unexpected primary text: %q / %q", primary.Title, primary.Body)
	}
	missed, ok := h.platform.triggers[med.ID+"-missed"]
	if !ok || !missed.FireAt.Equal(start.Add(70*time.Minute)) || missed.RepeatDaily {
		t.Fatalf("unexpected missed trigger: %+v", missed)
	}
	if missed.Title != "Missed: Aspirin" {
		t.Fatalf("unexpected missed title: %q", missed.Title)
	}
	if len(h.failures) != 0 {
		t.Fatalf("unexpected failures: %v", h.failures)
	}
}

func TestCreateReminderValidationOrder(t *testing.T) {
	h := newHarness(t, false)
	now := h.clock.now()
	valid := aspirin(now)

	cases := []struct {
		name  string
		draft func() model.Draft
		code  model.ValidationCode
	}{
		{"blank name", func() model.Draft { d := valid; d.Name = "  "; d.FireAt = time.Time{}; return d }, model.CodeNameRequired},
		{"no time", func() model.Draft { d := valid; d.FireAt = time.Time{}; d.TimeOfDay = model.TimeOfDay{}; return d }, model.CodeTimeRequired},
		{"past time", func() model.Draft { d := valid; d.FireAt = now; d.MealTiming = model.MealUnset; return d }, model.CodeTimeNotFuture},
		{"no time of day", func() model.Draft { d := valid; d.TimeOfDay = model.TimeOfDay{}; d.MealTiming = model.MealUnset; return d }, model.CodeTimeOfDayRequired},
		{"no meal timing", func() model.Draft { d := valid; d.MealTiming = model.MealUnset; return d }, model.CodeMealTimingRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.ctrl.CreateReminder(h.ctx, tc.draft())
			var verr *model.ValidationError
			if !errors.As(err, &verr) || verr.Code != tc.code {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}
	if len(h.records.Load(h.ctx)) != 0 || len(h.platform.triggers) != 0 {
		t.Fatal("validation failures must not change state")
	}
}

func TestCreateDailyReminderSchedulesSingleMissedFollowUp(t *testing.T) {
	h := newHarness(t, false)
	d := aspirin(h.clock.now())
	d.Daily = true
	d.Dosage = ""

	med, err := h.ctrl.CreateReminder(h.ctx, d)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if med.Repeat != model.RepeatDaily {
		t.Fatalf("expected daily repeat, got %s", med.Repeat)
	}
	primary := h.platform.triggers[med.ID]
	if !primary.RepeatDaily || primary.Body != "Take your medicine: Aspirin" {
		t.Fatalf("unexpected primary trigger: %+v", primary)
	}
	if len(h.platform.triggers) != 2 {
		t.Fatalf("expected primary plus one missed trigger, got %d", len(h.platform.triggers))
	}
	if h.platform.triggers[med.ID+"-missed"].RepeatDaily {
		t.Fatal("missed follow-up must be one-shot")
	}
}

func TestReconcileRespectsGraceWindow(t *testing.T) {
	h := newHarness(t, false)
	med, _ := h.ctrl.CreateReminder(h.ctx, aspirin(h.clock.now()))

	h.clock.advance(time.Hour + 10*time.Minute)
	if missed := h.ctrl.Reconcile(h.ctx); len(missed) != 0 {
		t.Fatalf("record must stay scheduled at the grace boundary, got %v", missed)
	}

	h.clock.advance(time.Minute)
	missed := h.ctrl.Reconcile(h.ctx)
	if !reflect.DeepEqual(missed, []string{med.ID}) {
		t.Fatalf("expected %s to be missed, got %v", med.ID, missed)
	}
	got := h.records.Load(h.ctx)[0]
	if got.Status != model.StatusMissed || got.MissedAt == nil || !got.MissedAt.Equal(h.clock.now()) {
		t.Fatalf("unexpected reconciled record: %+v", got)
	}

	before := h.records.Load(h.ctx)
	if again := h.ctrl.Reconcile(h.ctx); len(again) != 0 {
		t.Fatalf("second pass should change nothing, got %v", again)
	}
	if !reflect.DeepEqual(before, h.records.Load(h.ctx)) {
		t.Fatal("second pass rewrote records")
	}
}

func TestReconcileIgnoresUnparsableTimes(t *testing.T) {
	h := newHarness(t, false)
	_ = h.records.Add(h.ctx, model.Medicine{ID: "legacy", Name: "Old", TimeISO: "tomorrow-ish"})

	h.clock.advance(48 * time.Hour)
	if missed := h.ctrl.Reconcile(h.ctx); len(missed) != 0 {
		t.Fatalf("unparsable record must be skipped, got %v", missed)
	}
}

func TestAcknowledgeBeforeGracePreventsMissed(t *testing.T) {
	h := newHarness(t, false)
	med, _ := h.ctrl.CreateReminder(h.ctx, aspirin(h.clock.now()))

	h.clock.advance(time.Hour + 2*time.Minute)
	h.platform.press(h.ctx, med.ID, scheduler.ActionTake)
	if got := h.records.Load(h.ctx)[0]; got.Status == model.StatusTaken {
		t.Fatal("acknowledge handler must not be active before Activate")
	}

	h.ctrl.Activate(h.ctx)
	h.platform.press(h.ctx, med.ID, "dismiss")
	h.platform.press(h.ctx, med.ID, scheduler.ActionTake)

	got := h.records.Load(h.ctx)[0]
	if got.Status != model.StatusTaken || got.TakenAt == nil || !got.TakenAt.Equal(h.clock.now()) {
		t.Fatalf("expected taken record, got %+v", got)
	}
	if len(h.platform.triggers) != 0 {
		t.Fatalf("expected all triggers cancelled, got %v", h.platform.triggers)
	}

	h.clock.advance(time.Hour)
	if missed := h.ctrl.Reconcile(h.ctx); len(missed) != 0 {
		t.Fatalf("taken record must never become missed, got %v", missed)
	}
}

func TestAcknowledgeDailyHonoursKeepDailyOnAck(t *testing.T) {
	for _, keep := range []bool{false, true} {
		h := newHarness(t, keep)
		d := aspirin(h.clock.now())
		d.Daily = true
		med, _ := h.ctrl.CreateReminder(h.ctx, d)

		if _, err := h.ctrl.AcknowledgeTaken(h.ctx, med.ID); err != nil {
			t.Fatalf("keep=%v acknowledge: %v", keep, err)
		}
		if _, ok := h.platform.triggers[med.ID+"-missed"]; ok {
			t.Fatalf("keep=%v missed trigger should be cancelled", keep)
		}
		_, primary := h.platform.triggers[med.ID]
		if primary != keep {
			t.Fatalf("keep=%v primary trigger present=%v", keep, primary)
		}
	}
}

func TestAcknowledgeUnknownMedicine(t *testing.T) {
	h := newHarness(t, false)
	if _, err := h.ctrl.AcknowledgeTaken(h.ctx, "ghost"); !errors.Is(err, ErrUnknownMedicine) {
		t.Fatalf("expected ErrUnknownMedicine, got %v", err)
	}
	h.ctrl.Activate(h.ctx)
	h.platform.press(h.ctx, "ghost", scheduler.ActionTake)
	if len(h.failures) != 0 {
		t.Fatalf("unknown acknowledge should not be reported, got %v", h.failures)
	}
}

func TestDeleteCancelsBeforeRemoving(t *testing.T) {
	h := newHarness(t, false)
	med, _ := h.ctrl.CreateReminder(h.ctx, aspirin(h.clock.now()))
	h.events = h.events[:0]

	if err := h.ctrl.DeleteReminder(h.ctx, med.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	want := []string{"cancel:" + med.ID, "cancel:" + med.ID + "-missed", "delete:" + med.ID}
	if !reflect.DeepEqual(h.events, want) {
		t.Fatalf("unexpected call order: %v", h.events)
	}
	if len(h.records.Load(h.ctx)) != 0 || len(h.platform.triggers) != 0 {
		t.Fatal("expected record and triggers gone")
	}
}

func TestDeleteLeavesNoPendingEngineTriggers(t *testing.T) {
	engine := scheduler.NewEngine(4, true)
	quiet := log.New(io.Discard)
	store := storage.NewMedicineStore(&memorySlots{}, quiet)
	now := time.Now().UTC()
	ctrl := NewController(store, engine, Options{Logger: quiet, Now: func() time.Time { return now }})
	ctx := context.Background()

	ctrl.Activate(ctx)
	med, err := ctrl.CreateReminder(ctx, aspirin(now))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if engine.PendingCount() != 2 {
		t.Fatalf("expected two queued triggers, got %d", engine.PendingCount())
	}
	if err := ctrl.DeleteReminder(ctx, med.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if engine.PendingCount() != 0 {
		t.Fatalf("expected no queued triggers, got %d", engine.PendingCount())
	}
}

func TestEngineAcknowledgeMarksTaken(t *testing.T) {
	engine := scheduler.NewEngine(4, true)
	quiet := log.New(io.Discard)
	store := storage.NewMedicineStore(&memorySlots{}, quiet)
	now := time.Now().UTC()
	ctrl := NewController(store, engine, Options{Logger: quiet, Now: func() time.Time { return now }})
	ctx := context.Background()

	ctrl.Activate(ctx)
	med, _ := ctrl.CreateReminder(ctx, aspirin(now))
	engine.Acknowledge(ctx, scheduler.AckEvent{ID: med.ID, ActionID: scheduler.ActionTake})

	got, err := store.Get(ctx, med.ID)
	if err != nil || got.Status != model.StatusTaken {
		t.Fatalf("expected taken record, got %+v err=%v", got, err)
	}
	if _, ok := engine.Pending(MissedTriggerID(med.ID)); ok {
		t.Fatal("missed trigger should be cancelled")
	}
}

func TestSchedulingFailureKeepsRecordAndReports(t *testing.T) {
	h := newHarness(t, false)
	h.platform.createErr = errors.New("platform exploded")

	med, err := h.ctrl.CreateReminder(h.ctx, aspirin(h.clock.now()))
	if err != nil {
		t.Fatalf("scheduling failure must be swallowed, got %v", err)
	}
	if got := h.records.Load(h.ctx); len(got) != 1 || got[0].Status != model.StatusScheduled {
		t.Fatalf("record should stay persisted as scheduled: %+v", got)
	}
	if len(h.failures) == 0 || h.failures[0].Kind != FailureScheduling || h.failures[0].RecordID != med.ID {
		t.Fatalf("expected a scheduling failure report, got %v", h.failures)
	}
}

func TestStorageWriteFailureIsSurfaced(t *testing.T) {
	h := newHarness(t, false)
	h.store.addErr = errors.New("disk full")

	_, err := h.ctrl.CreateReminder(h.ctx, aspirin(h.clock.now()))
	var failure *Failure
	if !errors.As(err, &failure) || failure.Kind != FailureStorage {
		t.Fatalf("expected storage failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("cause should be kept: %v", err)
	}
	if len(h.platform.triggers) != 0 {
		t.Fatal("nothing should be scheduled when the write failed")
	}
}

func TestReconcileStopsAtFirstWriteFailure(t *testing.T) {
	h := newHarness(t, false)
	_, _ = h.ctrl.CreateReminder(h.ctx, aspirin(h.clock.now()))
	_, _ = h.ctrl.CreateReminder(h.ctx, aspirin(h.clock.now()))
	h.store.updateErr = errors.New("locked")

	h.clock.advance(2 * time.Hour)
	if missed := h.ctrl.Reconcile(h.ctx); len(missed) != 0 {
		t.Fatalf("no transition should be recorded, got %v", missed)
	}
	if len(h.failures) != 1 || h.failures[0].Kind != FailureStorage {
		t.Fatalf("expected one storage failure, got %v", h.failures)
	}

	h.store.updateErr = nil
	if missed := h.ctrl.Reconcile(h.ctx); len(missed) != 2 {
		t.Fatalf("next pass should recover both, got %v", missed)
	}
}

func TestPermissionDeniedIsToleratedAndReported(t *testing.T) {
	h := newHarness(t, false)
	h.platform.permErr = scheduler.ErrPermissionDenied
	h.ctrl.Activate(h.ctx)

	h.platform.createErr = scheduler.ErrPermissionDenied
	if _, err := h.ctrl.CreateReminder(h.ctx, aspirin(h.clock.now())); err != nil {
		t.Fatalf("CRUD must keep working without permission, got %v", err)
	}
	if len(h.failures) < 2 {
		t.Fatalf("expected permission failures to be reported, got %v", h.failures)
	}
	for _, f := range h.failures {
		if f.Kind != FailurePermission || !errors.Is(f, scheduler.ErrPermissionDenied) {
			t.Fatalf("unexpected failure: %v", f)
		}
	}
}

func TestActivateRearmsTriggers(t *testing.T) {
	h := newHarness(t, true)
	now := h.clock.now()
	future := model.FormatISO(now.Add(time.Hour))
	past := model.FormatISO(now.Add(-time.Hour))
	seed := []model.Medicine{
		{ID: "upcoming", Name: "A", TimeISO: future, Repeat: model.RepeatOnce, Status: model.StatusScheduled},
		{ID: "old-daily", Name: "B", TimeISO: past, Repeat: model.RepeatDaily, Status: model.StatusScheduled},
		{ID: "taken-daily", Name: "C", TimeISO: past, Repeat: model.RepeatDaily, Status: model.StatusTaken},
		{ID: "taken-once", Name: "D", TimeISO: past, Repeat: model.RepeatOnce, Status: model.StatusTaken},
	}
	if err := h.records.SaveAll(h.ctx, seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	list := h.ctrl.Activate(h.ctx)
	if len(list) != 4 {
		t.Fatalf("expected 4 records, got %d", len(list))
	}
	oldDaily, _ := h.records.Get(h.ctx, "old-daily")
	if oldDaily.Status != model.StatusMissed {
		t.Fatalf("overdue daily should be reconciled first, got %s", oldDaily.Status)
	}

	want := map[string]bool{
		"upcoming": true, "upcoming-missed": true,
		"old-daily": true, "taken-daily": true,
	}
	if len(h.platform.triggers) != len(want) {
		t.Fatalf("unexpected triggers: %v", h.platform.triggers)
	}
	for id := range want {
		if _, ok := h.platform.triggers[id]; !ok {
			t.Fatalf("missing trigger %s", id)
		}
	}
}

func TestListVisibleAndRefresh(t *testing.T) {
	h := newHarness(t, false)
	now := h.clock.now()
	daily := aspirin(now)
	daily.Daily = true
	daily.Name = "Vitamin D"
	_, _ = h.ctrl.CreateReminder(h.ctx, daily)
	once := aspirin(now)
	once.FireAt = now.Add(5 * time.Minute)
	once.Dosage = "500 MG"
	_, _ = h.ctrl.CreateReminder(h.ctx, once)

	if got := h.ctrl.ListVisible(h.ctx, model.FilterDaily, ""); len(got) != 1 || got[0].Name != "Vitamin D" {
		t.Fatalf("daily filter: %+v", got)
	}
	if got := h.ctrl.ListVisible(h.ctx, model.FilterAll, "mg"); len(got) != 1 || got[0].Dosage != "500 MG" {
		t.Fatalf("search should match dosage case-insensitively: %+v", got)
	}
	if got := h.ctrl.ListVisible(h.ctx, model.FilterAll, ""); len(got) != 2 || got[0].Name != "Aspirin" {
		t.Fatalf("all filter should sort by time: %+v", got)
	}

	h.clock.advance(20 * time.Minute)
	refreshed := h.ctrl.Refresh(h.ctx)
	if len(refreshed) != 2 {
		t.Fatalf("refresh should return every record, got %d", len(refreshed))
	}
	if got := h.ctrl.ListVisible(h.ctx, model.FilterMissed, ""); len(got) != 1 || got[0].Name != "Aspirin" {
		t.Fatalf("missed filter after refresh: %+v", got)
	}
}

func TestEditReminderReschedules(t *testing.T) {
	h := newHarness(t, false)
	med, _ := h.ctrl.CreateReminder(h.ctx, aspirin(h.clock.now()))

	d := model.DraftFrom(med)
	d.FireAt = h.clock.now().Add(3 * time.Hour)
	d.Name = "Aspirin forte"
	edited, err := h.ctrl.EditReminder(h.ctx, med.ID, d)
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if edited.ID != med.ID || edited.Name != "Aspirin forte" {
		t.Fatalf("unexpected edited record: %+v", edited)
	}
	if got := h.platform.triggers[med.ID]; !got.FireAt.Equal(h.clock.now().Add(3 * time.Hour)) {
		t.Fatalf("primary not rescheduled: %+v", got)
	}
	if _, err := h.ctrl.EditReminder(h.ctx, "ghost", d); !errors.Is(err, ErrUnknownMedicine) {
		t.Fatalf("expected ErrUnknownMedicine, got %v", err)
	}
}

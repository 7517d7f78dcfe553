package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"

	"github.com/charmbracelet/log"
	"github.com/sandeepkv93/medremind/internal/model"
)

// MedicinesKey is the slot holding the whole serialized medicine list.
const MedicinesKey = "MEDICINES_V1"

var ErrDuplicateID = errors.New("storage: duplicate medicine id")

// MedicineStore persists the medicine list as one JSON array in a single slot.
// Every mutation loads, mutates and rewrites the full collection. Callers must
// serialize mutations themselves.
type MedicineStore struct {
	slots  SlotStore
	key    string
	logger *log.Logger
}

func NewMedicineStore(slots SlotStore, logger *log.Logger) *MedicineStore {
	if logger == nil {
		logger = log.Default()
	}
	return &MedicineStore{
		slots:  slots,
		key:    MedicinesKey,
		logger: logger.WithPrefix("store"),
	}
}

// Load never fails: an absent, unreadable or corrupt slot reads as empty.
// Elements that cannot be decoded are skipped but stay in the slot.
func (s *MedicineStore) Load(ctx context.Context) []model.Medicine {
	recs, err := s.load(ctx)
	if err != nil {
		s.logger.Warn("load medicines", "err", err)
		return []model.Medicine{}
	}
	return medicines(recs)
}

// SaveAll replaces the persisted collection.
func (s *MedicineStore) SaveAll(ctx context.Context, list []model.Medicine) error {
	if list == nil {
		list = []model.Medicine{}
	}
	payload, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("storage: encode medicines: %w", err)
	}
	return s.write(ctx, payload, len(list))
}

// Add stores med in front of the existing records.
func (s *MedicineStore) Add(ctx context.Context, med model.Medicine) error {
	med = med.Normalize()
	if err := med.Validate(); err != nil {
		return fmt.Errorf("storage: add medicine: %w", err)
	}
	recs, err := s.loadForWrite(ctx)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		if rec.id == med.ID {
			return fmt.Errorf("%w: %s", ErrDuplicateID, med.ID)
		}
	}
	next := record{id: med.ID, med: med, valid: true, dirty: true}
	return s.save(ctx, append([]record{next}, recs...))
}

// Update replaces the record with the same id, or inserts it in front when
// no such record exists. Fields the record type does not know are kept.
func (s *MedicineStore) Update(ctx context.Context, med model.Medicine) error {
	med = med.Normalize()
	if err := med.Validate(); err != nil {
		return fmt.Errorf("storage: update medicine: %w", err)
	}
	recs, err := s.loadForWrite(ctx)
	if err != nil {
		return err
	}
	for i := range recs {
		if recs[i].id == med.ID {
			recs[i].med = med
			recs[i].valid = true
			recs[i].dirty = true
			return s.save(ctx, recs)
		}
	}
	next := record{id: med.ID, med: med, valid: true, dirty: true}
	return s.save(ctx, append([]record{next}, recs...))
}

// Delete removes the record with id. Unknown ids still rewrite the slot.
func (s *MedicineStore) Delete(ctx context.Context, id string) error {
	recs, err := s.loadForWrite(ctx)
	if err != nil {
		return err
	}
	kept := make([]record, 0, len(recs))
	for _, rec := range recs {
		if rec.id != id {
			kept = append(kept, rec)
		}
	}
	return s.save(ctx, kept)
}

// Get returns one record by id.
func (s *MedicineStore) Get(ctx context.Context, id string) (model.Medicine, error) {
	for _, med := range s.Load(ctx) {
		if med.ID == id {
			return med, nil
		}
	}
	return model.Medicine{}, ErrNotFound
}

// record is one element of the persisted array. raw is the element as it was
// read; clean records and records that failed to decode are written back as raw.
type record struct {
	id    string
	med   model.Medicine
	valid bool
	dirty bool
	raw   json.RawMessage
}

func medicines(recs []record) []model.Medicine {
	out := make([]model.Medicine, 0, len(recs))
	for _, rec := range recs {
		if rec.valid {
			out = append(out, rec.med)
		}
	}
	return out
}

// medicineFields are the JSON keys owned by model.Medicine. Any other key in
// a stored element is carried over when the element is rewritten.
var medicineFields = []string{
	"id", "name", "dosage", "timeISO", "timeOfDay",
	"mealTiming", "repeat", "status", "takenAt", "missedAt",
}

func encodeRecord(rec record) (json.RawMessage, error) {
	next, err := json.Marshal(rec.med)
	if err != nil {
		return nil, err
	}
	if len(rec.raw) == 0 {
		return next, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(rec.raw, &fields); err != nil || fields == nil {
		return next, nil
	}
	for _, key := range medicineFields {
		delete(fields, key)
	}
	var known map[string]json.RawMessage
	if err := json.Unmarshal(next, &known); err != nil {
		return nil, err
	}
	maps.Copy(fields, known)
	return json.Marshal(fields)
}

func (s *MedicineStore) save(ctx context.Context, recs []record) error {
	elems := make([]json.RawMessage, 0, len(recs))
	for _, rec := range recs {
		if !rec.dirty && len(rec.raw) > 0 {
			elems = append(elems, rec.raw)
			continue
		}
		elem, err := encodeRecord(rec)
		if err != nil {
			return fmt.Errorf("storage: encode medicine %s: %w", rec.id, err)
		}
		elems = append(elems, elem)
	}
	payload, err := json.Marshal(elems)
	if err != nil {
		return fmt.Errorf("storage: encode medicines: %w", err)
	}
	return s.write(ctx, payload, len(elems))
}

func (s *MedicineStore) write(ctx context.Context, payload []byte, count int) error {
	if err := s.slots.PutSlot(ctx, s.key, string(payload)); err != nil {
		s.logger.Error("save medicines", "err", err, "count", count)
		return fmt.Errorf("storage: save medicines: %w", err)
	}
	return nil
}

// loadForWrite treats corruption like Load does but refuses to continue after
// an I/O failure, so a mutation never overwrites a list it could not read.
func (s *MedicineStore) loadForWrite(ctx context.Context) ([]record, error) {
	recs, err := s.load(ctx)
	if err == nil {
		return recs, nil
	}
	var decodeErr *corruptSlotError
	if errors.As(err, &decodeErr) {
		s.logger.Warn("discarding corrupt medicines slot", "err", err)
		return []record{}, nil
	}
	return nil, fmt.Errorf("storage: read medicines: %w", err)
}

type corruptSlotError struct {
	err error
}

func (e *corruptSlotError) Error() string { return "storage: corrupt slot: " + e.err.Error() }
func (e *corruptSlotError) Unwrap() error { return e.err }

// load decodes the slot element by element. Only a slot that is not a JSON
// array at all counts as corrupt.
func (s *MedicineStore) load(ctx context.Context) ([]record, error) {
	raw, err := s.slots.GetSlot(ctx, s.key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return []record{}, nil
		}
		return nil, err
	}
	if raw == "" || raw == "null" {
		return []record{}, nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &elems); err != nil {
		return nil, &corruptSlotError{err: err}
	}
	out := make([]record, 0, len(elems))
	for i, elem := range elems {
		rec := record{raw: elem}
		var med model.Medicine
		if err := json.Unmarshal(elem, &med); err != nil || bytes.Equal(bytes.TrimSpace(elem), []byte("null")) {
			var head struct {
				ID string `json:"id"`
			}
			_ = json.Unmarshal(elem, &head)
			rec.id = head.ID
			s.logger.Warn("skipping unreadable medicine", "index", i, "id", head.ID, "err", err)
		} else {
			rec.id = med.ID
			rec.med = med.Normalize()
			rec.valid = true
		}
		out = append(out, rec)
	}
	return out, nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"warbell/src-server/model"

	"github.com/uptrace/bun"
)

// EventStore owns every event record. All writes go through it, and every
// per-event mutation is serialized on a per-event lock so a read-modify-write
// from a reaction signal can never interleave with one from the scheduler.
type EventStore struct {
	db *bun.DB

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewEventStore(db *bun.DB) *EventStore {
	return &EventStore{
		db:    db,
		locks: make(map[string]*sync.Mutex),
	}
}

// lockFor returns the serialization point for one event id. Locks are tiny
// and events are short-lived, so entries are never reclaimed.
func (s *EventStore) lockFor(eventID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lk, ok := s.locks[eventID]
	if !ok {
		lk = &sync.Mutex{}
		s.locks[eventID] = lk
	}
	return lk
}

// Create persists a brand-new event with empty disposition sets.
func (s *EventStore) Create(ctx context.Context, event model.Event) (*Record, error) {
	if event.CreatedAt == 0 {
		event.CreatedAt = time.Now().UTC().Unix()
	}
	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("(*EventStore).Create: %w", err)
	}

	lk := s.lockFor(event.ID)
	lk.Lock()
	defer lk.Unlock()

	exists, err := s.db.NewSelect().
		Model((*model.Event)(nil)).
		Where("id = ?", event.ID).
		Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("(*EventStore).Create: %w: %v", ErrStorageUnavailable, err)
	}
	if exists {
		return nil, fmt.Errorf("(*EventStore).Create: %w: %s", ErrDuplicateID, event.ID)
	}

	if _, err := s.db.NewInsert().
		Model(&event).
		Exec(ctx); err != nil {
		return nil, fmt.Errorf("(*EventStore).Create: %w: %v", ErrStorageUnavailable, err)
	}

	return &Record{
		Event:        event,
		Dispositions: newDispositions(event.Category),
	}, nil
}

// Get loads one event with its dispositions and reminder messages.
func (s *EventStore) Get(ctx context.Context, eventID string) (*Record, error) {
	return loadRecord(ctx, s.db, eventID)
}

// ListAll loads every event, past and future.
func (s *EventStore) ListAll(ctx context.Context) ([]Record, error) {
	var events []model.Event
	if err := s.db.NewSelect().
		Model(&events).
		Relation("RSVPs").
		Relation("ReminderMessages").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("(*EventStore).ListAll: %w: %v", ErrStorageUnavailable, err)
	}
	return toRecords(events), nil
}

// Delete removes the event and its dependent rows. Reports whether the
// event existed.
func (s *EventStore) Delete(ctx context.Context, eventID string) (bool, error) {
	lk := s.lockFor(eventID)
	lk.Lock()
	defer lk.Unlock()

	existed := false
	if err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().
			Model((*model.Event)(nil)).
			Where("id = ?", eventID).
			Exec(ctx)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			existed = true
		}
		if _, err := tx.NewDelete().
			Model((*model.RSVP)(nil)).
			Where("event_id = ?", eventID).
			Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().
			Model((*model.ReminderMessage)(nil)).
			Where("event_id = ?", eventID).
			Exec(ctx); err != nil {
			return err
		}
		return nil
	}); err != nil {
		return false, fmt.Errorf("(*EventStore).Delete: %w: %v", ErrStorageUnavailable, err)
	}
	return existed, nil
}

// Mutate applies fn to the latest persisted state of one event and writes
// the result back atomically. It is the only sanctioned way to change a
// record; concurrent mutations of the same event are serialized, so fn
// always sees the outcome of the previous mutation. Returns ErrNotFound if
// the event is unknown and leaves durable state untouched when fn errors or
// the write fails.
func (s *EventStore) Mutate(ctx context.Context, eventID string, fn func(*Record) error) (*Record, error) {
	lk := s.lockFor(eventID)
	lk.Lock()
	defer lk.Unlock()

	var record *Record
	if err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var err error
		record, err = loadRecord(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if err := fn(record); err != nil {
			return err
		}
		return persistRecord(ctx, tx, record)
	}); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("(*EventStore).Mutate: %w: %v", ErrStorageUnavailable, err)
	}
	return record, nil
}

// MarkReminderSent flips the automatic-reminder flag and records the
// broadcast message when one was sent. No-op when the event is already gone;
// a reminder for a just-deleted event has nothing left to mark.
func (s *EventStore) MarkReminderSent(ctx context.Context, eventID, messageID string) error {
	_, err := s.Mutate(ctx, eventID, func(r *Record) error {
		r.Event.ReminderSent = true
		if messageID != "" {
			r.AppendReminderMessage(r.Event.ChannelID, messageID)
		}
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// AppendReminderMessage records a manual reminder for later cleanup without
// touching the automatic-reminder flag. No-op when the event is gone.
func (s *EventStore) AppendReminderMessage(ctx context.Context, eventID, channelID, messageID string) error {
	_, err := s.Mutate(ctx, eventID, func(r *Record) error {
		r.AppendReminderMessage(channelID, messageID)
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// DueForAutoReminder returns events starting within the lead window that
// have not had their automatic reminder sent yet.
func (s *EventStore) DueForAutoReminder(ctx context.Context, now time.Time, lead time.Duration) ([]Record, error) {
	var events []model.Event
	if err := s.db.NewSelect().
		Model(&events).
		Relation("RSVPs").
		Relation("ReminderMessages").
		Where("reminder_sent = ?", false).
		Where("start_at > ?", now.UTC().Unix()).
		Where("start_at <= ?", now.UTC().Add(lead).Unix()).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("(*EventStore).DueForAutoReminder: %w: %v", ErrStorageUnavailable, err)
	}
	return toRecords(events), nil
}

// Expired returns events whose start time has passed, whatever their
// reminder state.
func (s *EventStore) Expired(ctx context.Context, now time.Time) ([]Record, error) {
	var events []model.Event
	if err := s.db.NewSelect().
		Model(&events).
		Relation("RSVPs").
		Relation("ReminderMessages").
		Where("start_at < ?", now.UTC().Unix()).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("(*EventStore).Expired: %w: %v", ErrStorageUnavailable, err)
	}
	return toRecords(events), nil
}

func loadRecord(ctx context.Context, db bun.IDB, eventID string) (*Record, error) {
	event := new(model.Event)
	err := db.NewSelect().
		Model(event).
		Relation("RSVPs").
		Relation("ReminderMessages").
		Where("event.id = ?", eventID).
		Scan(ctx)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("loadRecord: %w: %s", ErrNotFound, eventID)
	case err != nil:
		return nil, fmt.Errorf("loadRecord: %w: %v", ErrStorageUnavailable, err)
	}
	record := toRecord(*event)
	return &record, nil
}

// persistRecord writes a mutated record back inside the caller's
// transaction: the event row wholesale, disposition rows replaced, and any
// reminder messages appended since load (rows without a pk yet).
func persistRecord(ctx context.Context, tx bun.Tx, r *Record) error {
	if _, err := tx.NewUpdate().
		Model(&r.Event).
		WherePK().
		Exec(ctx); err != nil {
		return err
	}

	if _, err := tx.NewDelete().
		Model((*model.RSVP)(nil)).
		Where("event_id = ?", r.Event.ID).
		Exec(ctx); err != nil {
		return err
	}
	var rsvps []model.RSVP
	for disp, users := range r.Dispositions {
		for _, userID := range users {
			rsvps = append(rsvps, model.RSVP{
				EventID:     r.Event.ID,
				UserID:      userID,
				Disposition: disp,
			})
		}
	}
	if len(rsvps) > 0 {
		if _, err := tx.NewInsert().
			Model(&rsvps).
			Exec(ctx); err != nil {
			return err
		}
	}

	for i := range r.ReminderMessages {
		if r.ReminderMessages[i].ID != 0 {
			continue
		}
		if _, err := tx.NewInsert().
			Model(&r.ReminderMessages[i]).
			Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

func toRecord(event model.Event) Record {
	dispositions := newDispositions(event.Category)
	for _, rsvp := range event.RSVPs {
		dispositions[rsvp.Disposition] = append(dispositions[rsvp.Disposition], rsvp.UserID)
	}
	reminderMessages := make([]model.ReminderMessage, 0, len(event.ReminderMessages))
	for _, rm := range event.ReminderMessages {
		reminderMessages = append(reminderMessages, *rm)
	}
	event.RSVPs = nil
	event.ReminderMessages = nil
	return Record{
		Event:            event,
		Dispositions:     dispositions,
		ReminderMessages: reminderMessages,
	}
}

func toRecords(events []model.Event) []Record {
	records := make([]Record, 0, len(events))
	for _, event := range events {
		records = append(records, toRecord(event))
	}
	return records
}

package store_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"warbell/src-server/model"
	"warbell/src-server/store"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	bundb := bun.NewDB(db, sqlitedialect.New())
	if err := model.CreateSchema(bundb); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return bundb
}

func testEvent(category model.Category, startAt int64) model.Event {
	return model.Event{
		ID:        uuid.NewString(),
		Title:     "event title test",
		Category:  category,
		StartAt:   startAt,
		ChannelID: uuid.NewString(),
		GuildID:   uuid.NewString(),
		CreatedBy: uuid.NewString(),
	}
}

func TestEventStoreCreateGetDelete(t *testing.T) {
	ctx := context.Background()
	eventStore := store.NewEventStore(newTestDB(t))

	eventModel := testEvent(model.CategoryGuild, time.Now().Add(2*time.Hour).Unix())
	record, err := eventStore.Create(ctx, eventModel)
	if err != nil {
		t.Fatal(err)
	}
	if len(record.Dispositions) != 3 {
		t.Error("expected 3 empty disposition sets", len(record.Dispositions))
	}

	// case: duplicate id rejected
	func() {
		if _, err := eventStore.Create(ctx, eventModel); !errors.Is(err, store.ErrDuplicateID) {
			t.Error("expected ErrDuplicateID, got", err)
		}
	}()

	// case: get returns the committed state
	func() {
		got, err := eventStore.Get(ctx, eventModel.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Event.Title != eventModel.Title {
			t.Error("title mismatch", got.Event.Title)
		}
		if got.Event.ReminderSent {
			t.Error("new event should not have reminder sent")
		}
		for _, disp := range eventModel.Category.Dispositions() {
			if _, ok := got.Dispositions[disp]; !ok {
				t.Error("missing disposition set", disp)
			}
		}
	}()

	// case: unknown id
	func() {
		if _, err := eventStore.Get(ctx, uuid.NewString()); !errors.Is(err, store.ErrNotFound) {
			t.Error("expected ErrNotFound, got", err)
		}
	}()

	// case: delete reports existence, dependent rows gone
	func() {
		existed, err := eventStore.Delete(ctx, eventModel.ID)
		if err != nil {
			t.Fatal(err)
		}
		if !existed {
			t.Error("delete should report the event existed")
		}
		existed, err = eventStore.Delete(ctx, eventModel.ID)
		if err != nil {
			t.Fatal(err)
		}
		if existed {
			t.Error("second delete should report the event gone")
		}
		if _, err := eventStore.Get(ctx, eventModel.ID); !errors.Is(err, store.ErrNotFound) {
			t.Error("expected ErrNotFound after delete, got", err)
		}
	}()
}

func TestEventStoreCreateInvalid(t *testing.T) {
	ctx := context.Background()
	eventStore := store.NewEventStore(newTestDB(t))

	eventModel := testEvent("raid", time.Now().Add(time.Hour).Unix())
	if _, err := eventStore.Create(ctx, eventModel); err == nil {
		t.Error("expected validation error for unknown category")
	}

	eventModel = testEvent(model.CategoryPublic, time.Now().Add(time.Hour).Unix())
	eventModel.Title = ""
	if _, err := eventStore.Create(ctx, eventModel); err == nil {
		t.Error("expected validation error for blank title")
	}
}

func TestEventStoreMutateAppendOnlyArtifacts(t *testing.T) {
	ctx := context.Background()
	eventStore := store.NewEventStore(newTestDB(t))

	eventModel := testEvent(model.CategoryGuildWars, time.Now().Add(2*time.Hour).Unix())
	if _, err := eventStore.Create(ctx, eventModel); err != nil {
		t.Fatal(err)
	}

	if err := eventStore.AppendReminderMessage(ctx, eventModel.ID, eventModel.ChannelID, "msg-1"); err != nil {
		t.Fatal(err)
	}
	if err := eventStore.AppendReminderMessage(ctx, eventModel.ID, eventModel.ChannelID, "msg-2"); err != nil {
		t.Fatal(err)
	}

	record, err := eventStore.Get(ctx, eventModel.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(record.ReminderMessages) != 2 {
		t.Fatal("expected 2 reminder messages", len(record.ReminderMessages))
	}
	if record.ReminderMessages[0].MessageID != "msg-1" || record.ReminderMessages[1].MessageID != "msg-2" {
		t.Error("reminder messages out of order")
	}
	if record.Event.ReminderSent {
		t.Error("manual artifacts must not flip the reminder flag")
	}

	// case: a later mutation does not duplicate already-persisted artifacts
	func() {
		if _, err := eventStore.Mutate(ctx, eventModel.ID, func(r *store.Record) error {
			r.Event.Title = "renamed"
			return nil
		}); err != nil {
			t.Fatal(err)
		}
		record, err := eventStore.Get(ctx, eventModel.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(record.ReminderMessages) != 2 {
			t.Error("mutation duplicated reminder messages", len(record.ReminderMessages))
		}
		if record.Event.Title != "renamed" {
			t.Error("mutation not persisted")
		}
	}()

	// case: a failing mutation leaves durable state untouched
	func() {
		boom := errors.New("boom")
		if _, err := eventStore.Mutate(ctx, eventModel.ID, func(r *store.Record) error {
			r.Event.Title = "should not stick"
			r.AppendReminderMessage(r.Event.ChannelID, "msg-3")
			return boom
		}); err == nil {
			t.Fatal("expected mutation error")
		}
		record, err := eventStore.Get(ctx, eventModel.ID)
		if err != nil {
			t.Fatal(err)
		}
		if record.Event.Title != "renamed" {
			t.Error("failed mutation leaked into storage")
		}
		if len(record.ReminderMessages) != 2 {
			t.Error("failed mutation leaked an artifact", len(record.ReminderMessages))
		}
	}()
}

func TestEventStoreMarkReminderSent(t *testing.T) {
	ctx := context.Background()
	eventStore := store.NewEventStore(newTestDB(t))

	eventModel := testEvent(model.CategoryBoth, time.Now().Add(30*time.Minute).Unix())
	if _, err := eventStore.Create(ctx, eventModel); err != nil {
		t.Fatal(err)
	}

	if err := eventStore.MarkReminderSent(ctx, eventModel.ID, "broadcast-1"); err != nil {
		t.Fatal(err)
	}
	record, err := eventStore.Get(ctx, eventModel.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !record.Event.ReminderSent {
		t.Error("reminder flag not set")
	}
	if len(record.ReminderMessages) != 1 || record.ReminderMessages[0].MessageID != "broadcast-1" {
		t.Error("broadcast artifact not recorded", record.ReminderMessages)
	}

	// case: marking without a message records no artifact
	func() {
		eventModel := testEvent(model.CategoryBoth, time.Now().Add(30*time.Minute).Unix())
		if _, err := eventStore.Create(ctx, eventModel); err != nil {
			t.Fatal(err)
		}
		if err := eventStore.MarkReminderSent(ctx, eventModel.ID, ""); err != nil {
			t.Fatal(err)
		}
		record, err := eventStore.Get(ctx, eventModel.ID)
		if err != nil {
			t.Fatal(err)
		}
		if !record.Event.ReminderSent {
			t.Error("reminder flag not set")
		}
		if len(record.ReminderMessages) != 0 {
			t.Error("no artifact expected", record.ReminderMessages)
		}
	}()

	// case: no-op for an event that is already gone
	func() {
		if err := eventStore.MarkReminderSent(ctx, uuid.NewString(), "whatever"); err != nil {
			t.Error("marking a deleted event should be a no-op, got", err)
		}
	}()
}

func TestEventStoreDueForAutoReminder(t *testing.T) {
	ctx := context.Background()
	eventStore := store.NewEventStore(newTestDB(t))
	now := time.Now()
	lead := time.Hour

	inWindow := testEvent(model.CategoryGuild, now.Add(30*time.Minute).Unix())
	atEdge := testEvent(model.CategoryGuild, now.Add(lead).Unix())
	beyond := testEvent(model.CategoryGuild, now.Add(lead+time.Minute).Unix())
	past := testEvent(model.CategoryGuild, now.Add(-time.Minute).Unix())
	alreadySent := testEvent(model.CategoryGuild, now.Add(10*time.Minute).Unix())
	alreadySent.ReminderSent = true

	for _, eventModel := range []model.Event{inWindow, atEdge, beyond, past, alreadySent} {
		if _, err := eventStore.Create(ctx, eventModel); err != nil {
			t.Fatal(err)
		}
	}

	due, err := eventStore.DueForAutoReminder(ctx, now, lead)
	if err != nil {
		t.Fatal(err)
	}
	dueIDs := make(map[string]bool, len(due))
	for _, record := range due {
		dueIDs[record.Event.ID] = true
	}
	if !dueIDs[inWindow.ID] || !dueIDs[atEdge.ID] {
		t.Error("events inside the lead window should be due", dueIDs)
	}
	if dueIDs[beyond.ID] {
		t.Error("event beyond the lead window should not be due")
	}
	if dueIDs[past.ID] {
		t.Error("already-started event should not be due")
	}
	if dueIDs[alreadySent.ID] {
		t.Error("already-reminded event should not be due")
	}

	expired, err := eventStore.Expired(ctx, now)
	if err != nil {
		t.Fatal(err)
	}
	if len(expired) != 1 || expired[0].Event.ID != past.ID {
		t.Error("only the started event should be expired", len(expired))
	}
}

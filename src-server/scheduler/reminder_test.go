package scheduler_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"warbell/src-server/model"
	"warbell/src-server/notify"
	"warbell/src-server/scheduler"
	"warbell/src-server/store"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type fakeNotifier struct {
	mu sync.Mutex

	resolveErr   error
	broadcastErr error
	failDM       map[string]bool

	broadcasts []*notify.Payload
	directs    []string
	deleted    []string
	nextID     int
}

func (f *fakeNotifier) ResolveChannel(channelID string) error {
	return f.resolveErr
}

func (f *fakeNotifier) SendBroadcast(channelID string, p *notify.Payload) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.broadcastErr != nil {
		return "", f.broadcastErr
	}
	f.nextID++
	f.broadcasts = append(f.broadcasts, p)
	return fmt.Sprintf("msg-%d", f.nextID), nil
}

func (f *fakeNotifier) SendDirect(userID string, p *notify.Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDM[userID] {
		return errors.New("cannot send messages to this user")
	}
	f.directs = append(f.directs, userID)
	return nil
}

func (f *fakeNotifier) DeleteArtifact(channelID, messageID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageID)
	return true
}

type fakeRoles struct {
	mention string
}

func (f *fakeRoles) MentionForCategory(ctx context.Context, c model.Category) string {
	return f.mention
}

type fixture struct {
	store    *store.EventStore
	registry *store.RSVPRegistry
	notifier *fakeNotifier
	reminder *scheduler.Reminder
}

func newFixture(t *testing.T) *fixture {
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

	eventStore := store.NewEventStore(bundb)
	registry := store.NewRSVPRegistry(eventStore)
	notifier := &fakeNotifier{failDM: make(map[string]bool)}
	reminder := scheduler.NewReminder(
		eventStore, registry, notifier, &fakeRoles{mention: "<@&123>"},
		time.Minute, 24*time.Hour, time.Hour,
	)
	return &fixture{
		store:    eventStore,
		registry: registry,
		notifier: notifier,
		reminder: reminder,
	}
}

func (fx *fixture) createEvent(t *testing.T, category model.Category, startAt int64) model.Event {
	t.Helper()
	eventModel := model.Event{
		ID:        uuid.NewString(),
		Title:     "event title test",
		Category:  category,
		StartAt:   startAt,
		ChannelID: uuid.NewString(),
		GuildID:   uuid.NewString(),
	}
	if _, err := fx.store.Create(context.Background(), eventModel); err != nil {
		t.Fatal(err)
	}
	return eventModel
}

func TestPollTickSendsAtMostOnce(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	now := time.Now()

	eventModel := fx.createEvent(t, model.CategoryGuildWars, now.Add(30*time.Minute).Unix())
	yesUser := uuid.NewString()
	maybeUser := uuid.NewString()
	noUser := uuid.NewString()
	fx.registry.SetDisposition(ctx, eventModel.ID, yesUser, model.DispositionYes)
	fx.registry.SetDisposition(ctx, eventModel.ID, maybeUser, model.DispositionMaybe)
	fx.registry.SetDisposition(ctx, eventModel.ID, noUser, model.DispositionNo)

	fx.reminder.PollTick(ctx, now)
	fx.reminder.PollTick(ctx, now)

	if len(fx.notifier.broadcasts) != 1 {
		t.Fatal("expected exactly one broadcast across ticks", len(fx.notifier.broadcasts))
	}

	// only the positive dispositions get a DM
	dmed := make(map[string]bool, len(fx.notifier.directs))
	for _, userID := range fx.notifier.directs {
		dmed[userID] = true
	}
	if !dmed[yesUser] || !dmed[maybeUser] {
		t.Error("yes and maybe members should be DM'd", dmed)
	}
	if dmed[noUser] {
		t.Error("no members must never be DM'd")
	}

	record, err := fx.store.Get(ctx, eventModel.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !record.Event.ReminderSent {
		t.Error("reminder flag not set after dispatch")
	}
	if len(record.ReminderMessages) != 1 || record.ReminderMessages[0].MessageID != "msg-1" {
		t.Error("broadcast artifact not recorded", record.ReminderMessages)
	}
}

func TestPollTickChannelGoneFailsClosed(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	now := time.Now()

	eventModel := fx.createEvent(t, model.CategoryGuild, now.Add(30*time.Minute).Unix())
	fx.notifier.resolveErr = notify.ErrChannelGone

	fx.reminder.PollTick(ctx, now)

	if len(fx.notifier.broadcasts) != 0 {
		t.Error("no broadcast should be attempted against a gone channel")
	}
	record, err := fx.store.Get(ctx, eventModel.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !record.Event.ReminderSent {
		t.Error("unreachable destination must still mark the reminder sent")
	}
	if len(record.ReminderMessages) != 0 {
		t.Error("no artifact expected when nothing was sent", record.ReminderMessages)
	}

	// later ticks must not keep retrying
	fx.reminder.PollTick(ctx, now)
	if len(fx.notifier.broadcasts) != 0 {
		t.Error("gone channel must not be retried")
	}
}

func TestPollTickRetriesAfterSendFailure(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	now := time.Now()

	eventModel := fx.createEvent(t, model.CategoryBoth, now.Add(30*time.Minute).Unix())
	fx.notifier.broadcastErr = errors.New("rate limited")

	fx.reminder.PollTick(ctx, now)
	fx.reminder.PollTick(ctx, now)

	record, err := fx.store.Get(ctx, eventModel.ID)
	if err != nil {
		t.Fatal(err)
	}
	if record.Event.ReminderSent {
		t.Fatal("failed broadcast must leave the event due for retry")
	}

	// transient failure clears, the next tick delivers
	fx.notifier.broadcastErr = nil
	fx.reminder.PollTick(ctx, now)

	if len(fx.notifier.broadcasts) != 1 {
		t.Error("expected one broadcast after recovery", len(fx.notifier.broadcasts))
	}
	record, err = fx.store.Get(ctx, eventModel.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !record.Event.ReminderSent {
		t.Error("reminder flag not set after recovery")
	}
}

func TestPollTickPartialDMFailure(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	now := time.Now()

	eventModel := fx.createEvent(t, model.CategoryGuild, now.Add(30*time.Minute).Unix())
	users := []string{uuid.NewString(), uuid.NewString(), uuid.NewString()}
	fx.registry.SetDisposition(ctx, eventModel.ID, users[0], model.DispositionTank)
	fx.registry.SetDisposition(ctx, eventModel.ID, users[1], model.DispositionDPS)
	fx.registry.SetDisposition(ctx, eventModel.ID, users[2], model.DispositionSupport)
	fx.notifier.failDM[users[1]] = true

	fx.reminder.PollTick(ctx, now)

	dmed := make(map[string]bool, len(fx.notifier.directs))
	for _, userID := range fx.notifier.directs {
		dmed[userID] = true
	}
	if !dmed[users[0]] || !dmed[users[2]] {
		t.Error("one closed DM must not block the other recipients", dmed)
	}
	record, err := fx.store.Get(ctx, eventModel.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !record.Event.ReminderSent {
		t.Error("partial DM failure must not leave the reminder unsent")
	}
}

func TestSweepTickPurgesExpired(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	now := time.Now()

	expired := fx.createEvent(t, model.CategoryGuild, now.Add(-time.Minute).Unix())
	upcoming := fx.createEvent(t, model.CategoryGuild, now.Add(2*time.Hour).Unix())
	if err := fx.store.AppendReminderMessage(ctx, expired.ID, expired.ChannelID, "stale-1"); err != nil {
		t.Fatal(err)
	}
	if err := fx.store.AppendReminderMessage(ctx, expired.ID, expired.ChannelID, "stale-2"); err != nil {
		t.Fatal(err)
	}

	fx.reminder.SweepTick(ctx, now)

	// expired goes regardless of its reminder flag, artifacts cleaned up
	if _, err := fx.store.Get(ctx, expired.ID); !errors.Is(err, store.ErrNotFound) {
		t.Error("expired event should be gone, got", err)
	}
	if len(fx.notifier.deleted) != 2 {
		t.Error("expected both stale artifacts deleted", fx.notifier.deleted)
	}
	if _, err := fx.store.Get(ctx, upcoming.ID); err != nil {
		t.Error("upcoming event must survive the sweep", err)
	}
}

func TestSendManualIndependentOfAutomatic(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	now := time.Now()

	eventModel := fx.createEvent(t, model.CategoryGuildWars, now.Add(3*time.Hour).Unix())
	record, err := fx.store.Get(ctx, eventModel.ID)
	if err != nil {
		t.Fatal(err)
	}

	if !fx.reminder.SendManual(ctx, eventModel.ChannelID, record, true) {
		t.Fatal("manual send should succeed")
	}
	if !fx.reminder.SendManual(ctx, eventModel.ChannelID, record, false) {
		t.Fatal("manual reminders can repeat")
	}

	got, err := fx.store.Get(ctx, eventModel.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Event.ReminderSent {
		t.Error("manual reminders must not touch the automatic flag")
	}
	if len(got.ReminderMessages) != 2 {
		t.Error("each manual reminder should leave one artifact", got.ReminderMessages)
	}

	// the event is outside the lead window, so the automatic path stays quiet
	fx.reminder.PollTick(ctx, now)
	if len(fx.notifier.broadcasts) != 2 {
		t.Error("poll must not re-send after manual reminders", len(fx.notifier.broadcasts))
	}

	// case: broadcast failure reports false and records nothing
	func() {
		fx.notifier.broadcastErr = errors.New("rate limited")
		if fx.reminder.SendManual(ctx, eventModel.ChannelID, record, false) {
			t.Error("failed broadcast should report false")
		}
		got, err := fx.store.Get(ctx, eventModel.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(got.ReminderMessages) != 2 {
			t.Error("failed manual send must not record an artifact", got.ReminderMessages)
		}
	}()
}

package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"warbell/src-server/model"
	"warbell/src-server/notify"
	"warbell/src-server/store"
)

// Reminder owns the two timers of the core: a poll loop that sends each
// event's automatic reminder exactly once inside the lead window, and a
// daily sweep that purges events whose start time has passed.
type Reminder struct {
	store      *store.EventStore
	registry   *store.RSVPRegistry
	notifier   notify.Notifier
	roles      notify.RoleMentionLookup
	dispatcher *notify.Dispatcher

	pollInterval  time.Duration
	sweepInterval time.Duration
	leadWindow    time.Duration

	// reminders-sent counts for the metric collector, nil-safe
	sentChan chan<- float64
}

func NewReminder(
	eventStore *store.EventStore,
	registry *store.RSVPRegistry,
	notifier notify.Notifier,
	roles notify.RoleMentionLookup,
	pollInterval, sweepInterval, leadWindow time.Duration,
) *Reminder {
	return &Reminder{
		store:         eventStore,
		registry:      registry,
		notifier:      notifier,
		roles:         roles,
		dispatcher:    notify.NewDispatcher(notifier, registry),
		pollInterval:  pollInterval,
		sweepInterval: sweepInterval,
		leadWindow:    leadWindow,
	}
}

// SetSentChan wires the reminders-sent metric channel. Sends never block.
func (r *Reminder) SetSentChan(ch chan<- float64) {
	r.sentChan = ch
}

// Start launches the poll and sweep loops. Closing shutdownCh stops the
// timers; a tick that is already running always finishes first, so no
// dispatch is ever cut off halfway.
func (r *Reminder) Start(shutdownCh <-chan struct{}) {
	go r.pollLoop(shutdownCh)
	go r.sweepLoop(shutdownCh)
	slog.Info("reminder scheduler started", "poll", r.pollInterval, "sweep", r.sweepInterval, "lead", r.leadWindow)
}

func (r *Reminder) pollLoop(shutdownCh <-chan struct{}) {
	// check immediately on startup, the way a restart mid-window should
	r.PollTick(context.Background(), time.Now())

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-shutdownCh:
			slog.Debug("reminder poll loop stopped")
			return
		case <-ticker.C:
			r.PollTick(context.Background(), time.Now())
		}
	}
}

func (r *Reminder) sweepLoop(shutdownCh <-chan struct{}) {
	ticker := time.NewTicker(r.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-shutdownCh:
			slog.Debug("reminder sweep loop stopped")
			return
		case <-ticker.C:
			r.SweepTick(context.Background(), time.Now())
		}
	}
}

// PollTick sends the automatic reminder for every due event. Records are
// handled sequentially; one failed dispatch never aborts the batch.
func (r *Reminder) PollTick(ctx context.Context, now time.Time) {
	records, err := r.store.DueForAutoReminder(ctx, now, r.leadWindow)
	if err != nil {
		slog.Error("PollTick: can't query due events", "error", err)
		return
	}
	for i := range records {
		if err := r.dispatchAutomatic(ctx, &records[i]); err != nil {
			slog.Error("PollTick: can't dispatch reminder, will retry next tick",
				"event_id", records[i].Event.ID, "title", records[i].Event.Title, "error", err)
		}
	}
}

// dispatchAutomatic sends one automatic reminder. The record is marked sent
// only after the broadcast durably succeeded, so the broadcast is
// at-least-once until the mark commits and exactly-once after. The one
// exception is a destination that no longer resolves: that is marked sent
// with no artifact, because retrying against a gone channel forever helps
// nobody.
func (r *Reminder) dispatchAutomatic(ctx context.Context, record *store.Record) error {
	event := &record.Event

	if err := r.notifier.ResolveChannel(event.ChannelID); err != nil {
		slog.Warn("dispatchAutomatic: channel unreachable, marking reminder sent",
			"event_id", event.ID, "channel_id", event.ChannelID, "error", err)
		return r.store.MarkReminderSent(ctx, event.ID, "")
	}

	mention := r.roles.MentionForCategory(ctx, event.Category)
	payload := notify.ReminderPayload(record, mention)

	messageID, err := r.notifier.SendBroadcast(event.ChannelID, payload)
	if err != nil {
		return fmt.Errorf("dispatchAutomatic: %w", err)
	}

	r.dispatcher.DispatchPersonal(ctx, record)

	if err := r.store.MarkReminderSent(ctx, event.ID, messageID); err != nil {
		return fmt.Errorf("dispatchAutomatic: broadcast sent but can't mark: %w", err)
	}

	r.reportSent()
	slog.Info("reminder sent", "event_id", event.ID, "title", event.Title, "mention", mention != "")
	return nil
}

// SweepTick deletes every expired event. Reminder messages left in the
// channel are deleted best-effort first; cleanup failure never blocks the
// deletion itself.
func (r *Reminder) SweepTick(ctx context.Context, now time.Time) {
	records, err := r.store.Expired(ctx, now)
	if err != nil {
		slog.Error("SweepTick: can't query expired events", "error", err)
		return
	}
	for i := range records {
		record := &records[i]
		for _, rm := range record.ReminderMessages {
			r.notifier.DeleteArtifact(rm.ChannelID, rm.MessageID)
		}
		if _, err := r.store.Delete(ctx, record.Event.ID); err != nil {
			slog.Error("SweepTick: can't delete expired event", "event_id", record.Event.ID, "error", err)
			continue
		}
		slog.Info("expired event swept", "event_id", record.Event.ID, "title", record.Event.Title)
	}
}

// SendManual sends an on-demand reminder to the given channel, independent
// of the automatic one: it neither reads nor writes the reminder-sent flag,
// so admins can remind as often as they like. When includeDispositions is
// set the embed carries a fresh snapshot of the current RSVP lists. Returns
// false on any failure so the calling command can report cleanly.
func (r *Reminder) SendManual(ctx context.Context, channelID string, record *store.Record, includeDispositions bool) bool {
	event := &record.Event

	var dispositions map[model.Disposition][]string
	if includeDispositions {
		fresh, err := r.registry.DispositionsOf(ctx, event.ID)
		if err != nil {
			slog.Warn("SendManual: can't read dispositions, sending without them", "event_id", event.ID, "error", err)
		} else {
			dispositions = fresh
		}
	}

	mention := r.roles.MentionForCategory(ctx, event.Category)
	payload := notify.ManualReminderPayload(record, mention, dispositions)

	messageID, err := r.notifier.SendBroadcast(channelID, payload)
	if err != nil {
		slog.Error("SendManual: can't send broadcast", "event_id", event.ID, "channel_id", channelID, "error", err)
		return false
	}

	r.dispatcher.DispatchPersonal(ctx, record)

	if err := r.store.AppendReminderMessage(ctx, event.ID, channelID, messageID); err != nil {
		slog.Error("SendManual: reminder sent but can't record it", "event_id", event.ID, "error", err)
		return false
	}

	r.reportSent()
	slog.Info("manual reminder sent", "event_id", event.ID, "title", event.Title)
	return true
}

func (r *Reminder) reportSent() {
	select {
	case r.sentChan <- 1:
	default:
	}
}

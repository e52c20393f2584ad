package notify

import (
	"context"
	"log/slog"

	"warbell/src-server/store"
)

// Dispatcher fans one reminder out to every registered member individually.
type Dispatcher struct {
	notifier Notifier
	registry *store.RSVPRegistry
}

func NewDispatcher(notifier Notifier, registry *store.RSVPRegistry) *Dispatcher {
	return &Dispatcher{notifier: notifier, registry: registry}
}

// DispatchPersonal DMs everyone holding a positive disposition. It reads
// the registry fresh rather than trusting the record snapshot, since RSVPs
// may have changed between the due query and the broadcast. Per-recipient
// failures (closed DMs, deactivated accounts) are logged and skipped; a
// failed DM is never retried and never fails the dispatch.
func (d *Dispatcher) DispatchPersonal(ctx context.Context, record *store.Record) {
	dispositions, err := d.registry.DispositionsOf(ctx, record.Event.ID)
	if err != nil {
		slog.Error("DispatchPersonal: can't read dispositions", "event_id", record.Event.ID, "error", err)
		return
	}

	sent := 0
	for _, disp := range record.Event.Category.PositiveDispositions() {
		for _, userID := range dispositions[disp] {
			payload := PersonalReminderPayload(record)
			if err := d.notifier.SendDirect(userID, payload); err != nil {
				slog.Warn("DispatchPersonal: can't DM user", "event_id", record.Event.ID, "user_id", userID, "error", err)
				continue
			}
			sent++
		}
	}
	if sent > 0 {
		slog.Info("personal reminders sent", "event_id", record.Event.ID, "title", record.Event.Title, "count", sent)
	}
}

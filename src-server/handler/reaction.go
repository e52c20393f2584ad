package handler

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"warbell/src-server/model"
	"warbell/src-server/notify"
	"warbell/src-server/store"
	"warbell/src-server/utils"

	"github.com/bwmarrin/discordgo"
)

// liveProjection guards the attendee lists rendered on announcement
// messages. A failed edit permanently stops live updates for that one event;
// the stored RSVP state stays authoritative even when the message goes
// stale.
type liveProjection struct {
	mu       sync.Mutex
	disabled map[string]bool
}

func (lp *liveProjection) refresh(as *utils.AppState, s *discordgo.Session, eventID string) {
	lp.mu.Lock()
	stopped := lp.disabled[eventID]
	lp.mu.Unlock()
	if stopped {
		return
	}

	record, err := as.EventStore.Get(context.Background(), eventID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.Error("liveProjection: can't load event", "event_id", eventID, "error", err)
		}
		return
	}
	if err := refreshAnnouncement(s, record); err != nil {
		slog.Warn("liveProjection: can't edit announcement, stopping live updates for this event",
			"event_id", eventID, "error", err)
		lp.mu.Lock()
		lp.disabled[eventID] = true
		lp.mu.Unlock()
	}
}

// Reactions wires the gateway reaction events into the RSVP registry.
// Reaction add and remove signals can arrive in any order between users;
// the registry serializes them per event.
func Reactions(as *utils.AppState) {
	lp := &liveProjection{disabled: make(map[string]bool)}

	as.DgSession.AddHandler(func(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
		if s.State.User != nil && r.UserID == s.State.User.ID {
			return
		}
		disp, ok := dispositionForEmoji(r.Emoji.Name)
		if !ok {
			return
		}
		ctx := context.Background()

		if !as.RSVPRegistry.SetDisposition(ctx, r.MessageID, r.UserID, disp) {
			// unknown event (likely already swept) or an emoji from the
			// other category family; nothing to do
			return
		}
		slog.Debug("rsvp registered", "event_id", r.MessageID, "user_id", r.UserID, "disposition", disp)

		record, err := as.EventStore.Get(ctx, r.MessageID)
		if err == nil {
			if err := as.Notifier.SendDirect(r.UserID, notify.RegistrationPayload(&record.Event, disp)); err != nil {
				slog.Warn("Reactions: can't send registration DM", "user_id", r.UserID, "error", err)
			}
		}

		lp.refresh(as, s, r.MessageID)
	})

	as.DgSession.AddHandler(func(s *discordgo.Session, r *discordgo.MessageReactionRemove) {
		if s.State.User != nil && r.UserID == s.State.User.ID {
			return
		}
		disp, ok := dispositionForEmoji(r.Emoji.Name)
		if !ok {
			return
		}
		ctx := context.Background()

		outcome, _ := as.RSVPRegistry.ClearDisposition(ctx, r.MessageID, r.UserID, disp)
		switch outcome {
		case store.ClearNoOp:
			return
		case store.ClearStillRegistered:
			// mid-switch: the add signal for the new disposition already
			// handled storage and the confirmation DM
		case store.ClearFully:
			record, err := as.EventStore.Get(ctx, r.MessageID)
			if err == nil {
				if err := as.Notifier.SendDirect(r.UserID, notify.UnregistrationPayload(&record.Event)); err != nil {
					slog.Warn("Reactions: can't send unregistration DM", "user_id", r.UserID, "error", err)
				}
			}
			slog.Debug("rsvp cleared", "event_id", r.MessageID, "user_id", r.UserID)
		}

		lp.refresh(as, s, r.MessageID)
	})
}

func dispositionForEmoji(name string) (model.Disposition, bool) {
	for _, disp := range []model.Disposition{
		model.DispositionTank, model.DispositionDPS, model.DispositionSupport,
		model.DispositionYes, model.DispositionMaybe, model.DispositionNo,
	} {
		if notify.DispositionEmoji(disp) == name {
			return disp, true
		}
	}
	return "", false
}

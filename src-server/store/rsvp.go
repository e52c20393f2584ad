package store

import (
	"context"
	"errors"
	"log/slog"

	"warbell/src-server/model"
)

// ClearOutcome tells a caller what removing one disposition actually did.
// The transport sends one remove signal per reaction even when a member is
// mid-switch to another disposition, so "removed but still registered" has
// to be distinguishable from "fully unregistered".
type ClearOutcome int

const (
	// ClearNoOp: the member held neither this nor any other disposition.
	ClearNoOp ClearOutcome = iota
	// ClearFully: the member held this disposition and now holds none.
	ClearFully
	// ClearStillRegistered: the member still holds another disposition.
	ClearStillRegistered
)

// RSVPRegistry tracks one mutually-exclusive disposition per member per
// event. Both verbs are idempotent and order-tolerant, and both route
// through EventStore.Mutate so they always act on the latest persisted state.
type RSVPRegistry struct {
	store *EventStore
}

func NewRSVPRegistry(store *EventStore) *RSVPRegistry {
	return &RSVPRegistry{store: store}
}

// SetDisposition registers the member under one disposition, switching away
// from any other one in the same operation. Returns false when the event is
// unknown or the disposition does not belong to the event's category; late
// signals for a just-deleted event are expected and not an error.
func (r *RSVPRegistry) SetDisposition(ctx context.Context, eventID, userID string, disp model.Disposition) bool {
	var badDisposition bool
	if _, err := r.store.Mutate(ctx, eventID, func(rec *Record) error {
		if !rec.ValidDisposition(disp) {
			badDisposition = true
			return nil
		}
		rec.AddUser(userID, disp)
		return nil
	}); err != nil {
		if !errors.Is(err, ErrNotFound) {
			slog.Error("SetDisposition: can't mutate event", "event_id", eventID, "user_id", userID, "error", err)
		}
		return false
	}
	if badDisposition {
		slog.Warn("SetDisposition: disposition not in event's category set", "event_id", eventID, "disposition", disp)
		return false
	}
	return true
}

// ClearDisposition removes the member from one disposition only. The second
// return value names the disposition the member still holds when the outcome
// is ClearStillRegistered.
func (r *RSVPRegistry) ClearDisposition(ctx context.Context, eventID, userID string, disp model.Disposition) (ClearOutcome, model.Disposition) {
	outcome := ClearNoOp
	var remainsAs model.Disposition
	if _, err := r.store.Mutate(ctx, eventID, func(rec *Record) error {
		held, registered := rec.DispositionOf(userID)
		if registered && held == disp {
			rec.RemoveUser(userID)
			outcome = ClearFully
			return nil
		}
		if registered {
			// Mid-switch: the remove signal for the old disposition
			// arrived after the add signal for the new one.
			outcome = ClearStillRegistered
			remainsAs = held
		}
		return nil
	}); err != nil {
		if !errors.Is(err, ErrNotFound) {
			slog.Error("ClearDisposition: can't mutate event", "event_id", eventID, "user_id", userID, "error", err)
		}
		return ClearNoOp, ""
	}
	return outcome, remainsAs
}

// DispositionsOf returns the current member ids per disposition, with every
// disposition of the event's category present even when empty.
func (r *RSVPRegistry) DispositionsOf(ctx context.Context, eventID string) (map[model.Disposition][]string, error) {
	record, err := r.store.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return record.Dispositions, nil
}

package store

import (
	"warbell/src-server/model"
)

// Record is the full state of one event as seen by a Mutate callback: the
// event row, the per-disposition member sets, and the reminder messages sent
// so far. Mutations made to it inside Mutate are persisted atomically.
type Record struct {
	Event            model.Event
	Dispositions     map[model.Disposition][]string
	ReminderMessages []model.ReminderMessage
}

// DispositionOf returns the disposition the user currently holds, if any.
func (r *Record) DispositionOf(userID string) (model.Disposition, bool) {
	for disp, users := range r.Dispositions {
		for _, id := range users {
			if id == userID {
				return disp, true
			}
		}
	}
	return "", false
}

// RemoveUser drops the user from every disposition set. Reports whether the
// user was registered at all.
func (r *Record) RemoveUser(userID string) bool {
	removed := false
	for disp, users := range r.Dispositions {
		kept := users[:0]
		for _, id := range users {
			if id == userID {
				removed = true
				continue
			}
			kept = append(kept, id)
		}
		r.Dispositions[disp] = kept
	}
	return removed
}

// AddUser puts the user into one disposition set, removing it from every
// other one first so a member never holds two dispositions at once.
func (r *Record) AddUser(userID string, disp model.Disposition) {
	r.RemoveUser(userID)
	r.Dispositions[disp] = append(r.Dispositions[disp], userID)
}

// AppendReminderMessage records a sent reminder for later cleanup. The log
// only grows; nothing ever removes entries before the event is deleted.
func (r *Record) AppendReminderMessage(channelID, messageID string) {
	r.ReminderMessages = append(r.ReminderMessages, model.ReminderMessage{
		EventID:   r.Event.ID,
		ChannelID: channelID,
		MessageID: messageID,
	})
}

// ValidDisposition reports whether the disposition belongs to this event's
// category set.
func (r *Record) ValidDisposition(disp model.Disposition) bool {
	for _, d := range r.Event.Category.Dispositions() {
		if d == disp {
			return true
		}
	}
	return false
}

func newDispositions(c model.Category) map[model.Disposition][]string {
	dispositions := make(map[model.Disposition][]string)
	for _, d := range c.Dispositions() {
		dispositions[d] = []string{}
	}
	return dispositions
}

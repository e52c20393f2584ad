package model

import (
	"github.com/uptrace/bun"
)

// ReminderMessage records one reminder sent for an event so the sweep can
// delete it from the channel once the event has passed. Rows are only ever
// appended while the event lives.
type ReminderMessage struct {
	bun.BaseModel `bun:"table:reminder_messages"`

	ID        int64  `bun:"id,pk,autoincrement"`
	EventID   string `bun:"event_id,notnull"`   // required
	ChannelID string `bun:"channel_id,notnull"` // required
	MessageID string `bun:"message_id,notnull"` // required

	Event *Event `bun:"rel:belongs-to,join:event_id=id"`
}

package model

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// Event is one scheduled guild activity. Its ID is the Discord message ID
// of the announcement, so reaction signals can be routed back to it.
type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID       string   `bun:"id,pk"`             // required
	Title    string   `bun:"title,notnull"`     // required
	Category Category `bun:"category,notnull"`  // required
	StartAt  int64    `bun:"start_at,notnull"`  // required, unix UTC

	ChannelID string `bun:"channel_id,notnull"` // required
	GuildID   string `bun:"guild_id,notnull"`   // required
	CreatedBy string `bun:"created_by"`
	CreatedAt int64  `bun:"created_at,notnull"`

	ReminderSent bool `bun:"reminder_sent"`

	RSVPs            []*RSVP            `bun:"rel:has-many,join:id=event_id"`
	ReminderMessages []*ReminderMessage `bun:"rel:has-many,join:id=event_id"`
}

func (e *Event) Validate() error {
	switch {
	case e.ID == "":
		return fmt.Errorf("(*Event).Validate: event id is blank")
	case e.Title == "":
		return fmt.Errorf("(*Event).Validate: title is blank")
	case !e.Category.Valid():
		return fmt.Errorf("(*Event).Validate: unknown category %q", e.Category)
	case e.StartAt == 0:
		return fmt.Errorf("(*Event).Validate: start date is blank")
	case e.ChannelID == "":
		return fmt.Errorf("(*Event).Validate: channel id is blank")
	case e.GuildID == "":
		return fmt.Errorf("(*Event).Validate: guild id is blank")
	}
	return nil
}

// MessageLink is the jump URL of the announcement message.
func (e *Event) MessageLink() string {
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", e.GuildID, e.ChannelID, e.ID)
}

func (e *Event) StartsIn(now time.Time) time.Duration {
	return time.Unix(e.StartAt, 0).Sub(now)
}

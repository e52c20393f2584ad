package model

import (
	"github.com/uptrace/bun"
)

// Disposition is a member's chosen way of participating in an event.
type Disposition string

const (
	DispositionYes   Disposition = "yes"
	DispositionMaybe Disposition = "maybe"
	DispositionNo    Disposition = "no"

	DispositionTank    Disposition = "tank"
	DispositionDPS     Disposition = "dps"
	DispositionSupport Disposition = "support"
)

// RSVP is one member's disposition for one event. A member holds at most
// one row per event; the registry keeps that invariant.
type RSVP struct {
	bun.BaseModel `bun:"table:rsvps"`

	EventID     string      `bun:"event_id,notnull,unique:rsvps_event_user"` // required
	UserID      string      `bun:"user_id,notnull,unique:rsvps_event_user"`  // required
	Disposition Disposition `bun:"disposition,notnull"`

	Event *Event `bun:"rel:belongs-to,join:event_id=id"`
}

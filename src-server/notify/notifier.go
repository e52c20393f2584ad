package notify

import (
	"context"
	"errors"

	"warbell/src-server/model"

	"github.com/bwmarrin/discordgo"
)

// ErrChannelGone means the broadcast destination no longer exists. The
// scheduler treats any resolution failure as permanent and stops retrying.
var ErrChannelGone = errors.New("notify: channel gone")

// Payload is one outbound message: an optional role mention, an embed, and
// optional components (the Clear Reminder button on personal DMs).
type Payload struct {
	Content    string
	Embed      *discordgo.MessageEmbed
	Components []discordgo.MessageComponent
}

// Notifier is what the reminder core needs from the chat transport.
// Implementations own their own timeouts; the core only needs every call to
// resolve within bounded time.
type Notifier interface {
	// ResolveChannel checks that the broadcast destination still exists.
	ResolveChannel(channelID string) error
	// SendBroadcast posts to a channel and returns the message id.
	SendBroadcast(channelID string, p *Payload) (string, error)
	// SendDirect DMs one user.
	SendDirect(userID string, p *Payload) error
	// DeleteArtifact removes a previously sent message, best-effort.
	DeleteArtifact(channelID, messageID string) bool
}

// RoleMentionLookup resolves the role to ping for an event category, or ""
// when none is configured.
type RoleMentionLookup interface {
	MentionForCategory(ctx context.Context, c model.Category) string
}

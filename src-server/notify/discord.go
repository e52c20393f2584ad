package notify

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
)

// DiscordNotifier implements Notifier on a discordgo session.
type DiscordNotifier struct {
	session *discordgo.Session

	// send latencies in microseconds, for the metric collector
	SendLatencyChan chan<- float64
}

func NewDiscordNotifier(session *discordgo.Session) *DiscordNotifier {
	return &DiscordNotifier{session: session}
}

func (n *DiscordNotifier) ResolveChannel(channelID string) error {
	if _, err := n.session.Channel(channelID); err != nil {
		var restErr *discordgo.RESTError
		if errors.As(err, &restErr) &&
			restErr.Message != nil &&
			restErr.Message.Code == discordgo.ErrCodeUnknownChannel {
			return fmt.Errorf("(*DiscordNotifier).ResolveChannel: %w: %s", ErrChannelGone, channelID)
		}
		return fmt.Errorf("(*DiscordNotifier).ResolveChannel: %s: %w", channelID, err)
	}
	return nil
}

func (n *DiscordNotifier) SendBroadcast(channelID string, p *Payload) (string, error) {
	startTimer := time.Now()
	msg, err := n.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:    p.Content,
		Embeds:     []*discordgo.MessageEmbed{p.Embed},
		Components: p.Components,
	})
	n.reportLatency(startTimer)
	if err != nil {
		return "", fmt.Errorf("(*DiscordNotifier).SendBroadcast: %s: %w", channelID, err)
	}
	return msg.ID, nil
}

func (n *DiscordNotifier) SendDirect(userID string, p *Payload) error {
	dmChannel, err := n.session.UserChannelCreate(userID)
	if err != nil {
		return fmt.Errorf("(*DiscordNotifier).SendDirect: can't open DM with %s: %w", userID, err)
	}
	startTimer := time.Now()
	_, err = n.session.ChannelMessageSendComplex(dmChannel.ID, &discordgo.MessageSend{
		Content:    p.Content,
		Embeds:     []*discordgo.MessageEmbed{p.Embed},
		Components: p.Components,
	})
	n.reportLatency(startTimer)
	if err != nil {
		return fmt.Errorf("(*DiscordNotifier).SendDirect: %s: %w", userID, err)
	}
	return nil
}

func (n *DiscordNotifier) DeleteArtifact(channelID, messageID string) bool {
	if err := n.session.ChannelMessageDelete(channelID, messageID); err != nil {
		slog.Debug("DeleteArtifact: can't delete message", "channel_id", channelID, "message_id", messageID, "error", err)
		return false
	}
	return true
}

func (n *DiscordNotifier) reportLatency(startTimer time.Time) {
	select {
	case n.SendLatencyChan <- float64(time.Since(startTimer).Microseconds()):
	default:
	}
}

package handler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"warbell/src-server/model"
	"warbell/src-server/notify"
	"warbell/src-server/store"
	"warbell/src-server/utils"

	"github.com/bwmarrin/discordgo"
)

// announceEvent posts the announcement message for a freshly scheduled
// event, persists the record under the message id, and seeds the RSVP
// reactions. The interaction must already be deferred.
func announceEvent(as *utils.AppState, s *discordgo.Session, i *discordgo.InteractionCreate, title string, category model.Category, startAt time.Time) error {
	ctx := context.Background()

	mention := as.RoleMentions.MentionForCategory(ctx, category)

	event := model.Event{
		Title:     title,
		Category:  category,
		StartAt:   startAt.UTC().Unix(),
		ChannelID: i.ChannelID,
		GuildID:   i.GuildID,
	}
	if i.Member != nil && i.Member.User != nil {
		event.CreatedBy = i.Member.User.ID
	}

	embed := notify.AnnouncementEmbed(&event, map[model.Disposition][]string{})

	startTimer := time.Now()
	message, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &mention,
		Embeds:  &[]*discordgo.MessageEmbed{embed},
	})
	if err != nil {
		return fmt.Errorf("announceEvent: can't send announcement: %w", err)
	}
	as.MetricChans.DiscordSendMessage <- float64(time.Since(startTimer).Microseconds())

	event.ID = message.ID
	startTimer = time.Now()
	if _, err := as.EventStore.Create(ctx, event); err != nil {
		msg := fmt.Sprintf("Can't save the event\n```%s```", err.Error())
		if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
			Content: &msg,
		}); err != nil {
			slog.Warn("announceEvent: can't respond about save failure", "error", err)
		}
		return fmt.Errorf("announceEvent: can't create event: %w", err)
	}
	as.MetricChans.DatabaseWrite <- float64(time.Since(startTimer).Microseconds())

	for _, disp := range category.Dispositions() {
		if err := s.MessageReactionAdd(i.ChannelID, message.ID, notify.DispositionEmoji(disp)); err != nil {
			slog.Warn("announceEvent: can't seed reaction", "event_id", message.ID, "disposition", disp, "error", err)
		}
	}

	if mention == "" {
		if _, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
			Flags:   discordgo.MessageFlagsEphemeral,
			Content: "⚠️ **Admin Notice:** No role mention is configured for this event type. Use `/setrole` to set one.",
		}); err != nil {
			slog.Warn("announceEvent: can't send admin notice", "error", err)
		}
	}

	slog.Info("event scheduled", "event_id", message.ID, "title", title, "category", category, "start_at", event.StartAt)
	return nil
}

// refreshAnnouncement re-renders the live attendee lists on the
// announcement message from a record snapshot.
func refreshAnnouncement(s *discordgo.Session, record *store.Record) error {
	embed := notify.AnnouncementEmbed(&record.Event, record.Dispositions)
	if _, err := s.ChannelMessageEditEmbed(record.Event.ChannelID, record.Event.ID, embed); err != nil {
		return fmt.Errorf("refreshAnnouncement: %w", err)
	}
	return nil
}

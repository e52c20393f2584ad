package handler

import (
	"context"
	"fmt"
	"log/slog"

	"warbell/src-server/utils"

	"github.com/bwmarrin/discordgo"
)

func DeleteEvent(as *utils.AppState) {
	id := "delete"
	as.AddAppCmdHandler(id, deleteEventHandler(as))
	as.AddAppCmdInfo(id, &discordgo.ApplicationCommand{
		Name:        id,
		Description: "Delete an event and its announcement (Admin only).",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:         discordgo.ApplicationCommandOptionString,
				Name:         "event",
				Description:  "Select an event to delete.",
				Required:     true,
				Autocomplete: true,
			},
		},
	})
}

func deleteEventHandler(as *utils.AppState) func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
		if i.Type == discordgo.InteractionApplicationCommandAutocomplete {
			return remindAutocomplete(as, s, i)
		}

		if !hasAdminPermissions(i) {
			replyPermissionError(s, i)
			return nil
		}

		var eventID string
		for _, opt := range i.ApplicationCommandData().Options {
			if opt.Name == "event" {
				eventID = opt.StringValue()
			}
		}

		ctx := context.Background()
		record, err := as.EventStore.Get(ctx, eventID)
		if err == nil {
			// announcement and reminder messages are best-effort, the
			// record itself must go regardless
			as.Notifier.DeleteArtifact(record.Event.ChannelID, record.Event.ID)
			for _, msg := range record.ReminderMessages {
				as.Notifier.DeleteArtifact(msg.ChannelID, msg.MessageID)
			}
		}

		existed, err := as.EventStore.Delete(ctx, eventID)
		if err != nil {
			utils.InteractRespHiddenReply(s, i, "❌ Failed to delete the event. Please try again.")
			return fmt.Errorf("deleteEventHandler: %w", err)
		}
		if !existed {
			utils.InteractRespHiddenReply(s, i, "❌ Event not found or already deleted.")
			return nil
		}

		slog.Info("event deleted", "event_id", eventID, "by", i.Member.User.ID)
		utils.InteractRespHiddenReply(s, i, "✅ Event deleted.")
		return nil
	}
}

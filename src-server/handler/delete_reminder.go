package handler

import (
	"log/slog"

	"warbell/src-server/notify"
	"warbell/src-server/utils"

	"github.com/bwmarrin/discordgo"
)

// DeleteReminder wires the "Clear Reminder" button under personal
// reminder DMs. Pressing it removes that DM.
func DeleteReminder(as *utils.AppState) {
	as.AddAppCmdHandler(notify.DeleteReminderButtonID, func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
		if i.Message == nil {
			return nil
		}
		if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredMessageUpdate,
		}); err != nil {
			slog.Warn("DeleteReminder: can't ack button press", "error", err)
		}
		if err := s.ChannelMessageDelete(i.ChannelID, i.Message.ID); err != nil {
			slog.Warn("DeleteReminder: can't delete reminder DM", "error", err)
		}
		return nil
	})
}

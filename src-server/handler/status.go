package handler

import (
	"fmt"
	"log/slog"

	"warbell/src-server/utils"

	"github.com/bwmarrin/discordgo"
)

func Status(as *utils.AppState) {
	id := "status"
	as.AddAppCmdHandler(id, statusHandler(as))
	as.AddAppCmdInfo(id, &discordgo.ApplicationCommand{
		Name:        id,
		Description: "Change the bot's status text (Admin only).",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "text",
				Description: "The new status text. Leave empty to clear.",
				Required:    false,
			},
		},
	})
}

func statusHandler(as *utils.AppState) func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
		if !hasAdminPermissions(i) {
			replyPermissionError(s, i)
			return nil
		}

		var text string
		for _, opt := range i.ApplicationCommandData().Options {
			if opt.Name == "text" {
				text = opt.StringValue()
			}
		}

		if err := s.UpdateCustomStatus(text); err != nil {
			utils.InteractRespHiddenReply(s, i, "❌ Failed to update the status. Please try again.")
			return fmt.Errorf("statusHandler: %w", err)
		}

		slog.Info("bot status updated", "text", text, "by", i.Member.User.ID)
		if text == "" {
			utils.InteractRespHiddenReply(s, i, "✅ Status cleared.")
			return nil
		}
		utils.InteractRespHiddenReply(s, i, fmt.Sprintf("✅ Status set to: %s", text))
		return nil
	}
}

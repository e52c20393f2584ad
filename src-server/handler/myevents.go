package handler

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"warbell/src-server/utils"

	"github.com/bwmarrin/discordgo"
)

func MyEvents(as *utils.AppState) {
	id := "myevents"
	as.AddAppCmdHandler(id, myEventsHandler(as))
	as.AddAppCmdInfo(id, &discordgo.ApplicationCommand{
		Name:        id,
		Description: "Show the upcoming events you are registered for.",
	})
}

func myEventsHandler(as *utils.AppState) func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
		var userID string
		switch {
		case i.Member != nil && i.Member.User != nil:
			userID = i.Member.User.ID
		case i.User != nil:
			userID = i.User.ID
		default:
			return nil
		}

		records, err := upcomingRecords(as, "all")
		if err != nil {
			utils.InteractRespHiddenReply(s, i, fmt.Sprintf("Can't list your events\n```%s```", err.Error()))
			return fmt.Errorf("myEventsHandler: %w", err)
		}

		var lines []string
		for _, record := range records {
			disp, registered := record.DispositionOf(userID)
			if !registered {
				continue
			}
			event := record.Event
			lines = append(lines, fmt.Sprintf(
				"%s **[%s] - %s** as **%s**\n> 📅 <t:%d:F> (<t:%d:R>) · [jump](%s)",
				categoryIcon(event.Category), event.Category.Label(), event.Title, disp,
				event.StartAt, event.StartAt, event.MessageLink(),
			))
		}

		if len(lines) == 0 {
			utils.InteractRespHiddenReply(s, i, "You are not registered for any upcoming events.")
			return nil
		}

		startTimer := time.Now()
		if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Flags: discordgo.MessageFlagsEphemeral,
				Embeds: []*discordgo.MessageEmbed{
					{
						Title:       "📅 Your Upcoming Events",
						Description: strings.Join(lines, "\n\n"),
						Color:       0x00ae86,
					},
				},
			},
		}); err != nil {
			slog.Warn("myEventsHandler: can't respond", "error", err)
		}
		as.MetricChans.DiscordSendMessage <- float64(time.Since(startTimer).Microseconds())
		return nil
	}
}

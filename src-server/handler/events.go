package handler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"warbell/src-server/model"
	"warbell/src-server/store"
	"warbell/src-server/utils"

	"github.com/bwmarrin/discordgo"
)

func categoryIcon(c model.Category) string {
	switch c {
	case model.CategoryPublic:
		return "🌐"
	case model.CategoryGuild:
		return "🏰"
	case model.CategoryBoth:
		return "🏯"
	case model.CategoryGuildWars:
		return "⚔️"
	}
	return "📅"
}

func Events(as *utils.AppState) {
	id := "events"
	as.AddAppCmdHandler(id, eventsHandler(as))
	as.AddAppCmdInfo(id, &discordgo.ApplicationCommand{
		Name:        id,
		Description: "Display the upcoming events list.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "type",
				Description: "Filter events by type.",
				Required:    true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "VFS Events", Value: "vfs"},
					{Name: "GvG Events", Value: "gvg"},
					{Name: "All Events", Value: "all"},
				},
			},
		},
	})
}

func eventsHandler(as *utils.AppState) func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
		var eventType string
		for _, opt := range i.ApplicationCommandData().Options {
			if opt.Name == "type" {
				eventType = opt.StringValue()
			}
		}

		records, err := upcomingRecords(as, eventType)
		if err != nil {
			utils.InteractRespHiddenReply(s, i, fmt.Sprintf("Can't list events\n```%s```", err.Error()))
			return fmt.Errorf("eventsHandler: %w", err)
		}

		if len(records) == 0 {
			utils.InteractRespHiddenReply(s, i, "No upcoming events found.")
			return nil
		}

		lines := make([]string, 0, len(records))
		for _, record := range records {
			event := record.Event
			registered := 0
			for _, users := range record.Dispositions {
				registered += len(users)
			}
			lines = append(lines, fmt.Sprintf(
				"%s **[%s] - %s**\n> 📅 <t:%d:F> (<t:%d:R>) · %d registered · [jump](%s)",
				categoryIcon(event.Category), event.Category.Label(), event.Title,
				event.StartAt, event.StartAt, registered, event.MessageLink(),
			))
		}

		startTimer := time.Now()
		if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Embeds: []*discordgo.MessageEmbed{
					{
						Title:       "📅 Upcoming Events",
						Description: strings.Join(lines, "\n\n"),
						Color:       0x00ae86,
					},
				},
			},
		}); err != nil {
			slog.Warn("eventsHandler: can't respond", "error", err)
		}
		as.MetricChans.DiscordSendMessage <- float64(time.Since(startTimer).Microseconds())
		return nil
	}
}

// upcomingRecords returns future events matching the type filter, soonest
// first.
func upcomingRecords(as *utils.AppState, eventType string) ([]store.Record, error) {
	records, err := as.EventStore.ListAll(context.Background())
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC().Unix()
	filtered := records[:0]
	for _, record := range records {
		if record.Event.StartAt <= now {
			continue
		}
		switch eventType {
		case "vfs":
			if record.Event.Category == model.CategoryGuildWars {
				continue
			}
		case "gvg":
			if record.Event.Category != model.CategoryGuildWars {
				continue
			}
		}
		filtered = append(filtered, record)
	}
	sort.Slice(filtered, func(a, b int) bool {
		return filtered[a].Event.StartAt < filtered[b].Event.StartAt
	})
	return filtered, nil
}

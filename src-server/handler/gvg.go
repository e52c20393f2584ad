package handler

import (
	"fmt"
	"log/slog"
	"time"

	"warbell/src-server/model"
	"warbell/src-server/utils"

	"github.com/bwmarrin/discordgo"
)

func Gvg(as *utils.AppState) {
	id := "gvg"
	as.AddAppCmdHandler(id, gvgHandler(as))
	as.AddAppCmdInfo(id, &discordgo.ApplicationCommand{
		Name:        id,
		Description: "Set up a Guild Wars schedule (Admin only).",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "round",
				Description: "Select the Guild Wars round.",
				Required:    true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "Round 1", Value: "round1"},
					{Name: "Semifinals", Value: "semifinals"},
					{Name: "Finals", Value: "finals"},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "time",
				Description: "Time for Round 1 (only required for Round 1).",
				Required:    false,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "3:00 PM", Value: "15:00"},
					{Name: "5:00 PM", Value: "17:00"},
				},
			},
		},
	})
}

func gvgHandler(as *utils.AppState) func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
		if !hasAdminPermissions(i) {
			replyPermissionError(s, i)
			return nil
		}

		optionMap := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(i.ApplicationCommandData().Options))
		for _, opt := range i.ApplicationCommandData().Options {
			optionMap[opt.Name] = opt
		}
		var round, timeChoice string
		if opt, ok := optionMap["round"]; ok {
			round = opt.StringValue()
		}
		if opt, ok := optionMap["time"]; ok {
			timeChoice = opt.StringValue()
		}

		// Round 1 runs Saturday at the chosen time; Semifinals Sunday 3 PM,
		// Finals Sunday 5 PM.
		var title string
		var weekday time.Weekday
		var hour int
		switch round {
		case "round1":
			title = "Round 1"
			weekday = time.Saturday
			switch timeChoice {
			case "15:00":
				hour = 15
			case "17:00":
				hour = 17
			default:
				utils.InteractRespHiddenReply(s, i, "❌ Please select a time for Round 1 (3:00 PM or 5:00 PM).")
				return nil
			}
		case "semifinals":
			title = "Semifinals"
			weekday = time.Sunday
			hour = 15
		case "finals":
			title = "Finals"
			weekday = time.Sunday
			hour = 17
		default:
			utils.InteractRespHiddenReply(s, i, "❌ Invalid round selection.")
			return nil
		}

		startAt := nextOccurrence(time.Now().In(as.Config.GetLocation()), weekday, hour)

		if err := utils.InteractRespDefer(s, i); err != nil {
			slog.Warn("gvgHandler: can't send defer message", "error", err)
			return nil
		}

		if err := announceEvent(as, s, i, title, model.CategoryGuildWars, startAt); err != nil {
			return fmt.Errorf("gvgHandler: %w", err)
		}
		return nil
	}
}

// nextOccurrence finds the next weekday/hour after now, rolling a full week
// when today's slot has already passed.
func nextOccurrence(now time.Time, weekday time.Weekday, hour int) time.Time {
	daysUntil := (int(weekday) - int(now.Weekday()) + 7) % 7
	candidate := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location()).
		AddDate(0, 0, daysUntil)
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 7)
	}
	return candidate
}

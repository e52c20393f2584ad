package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"warbell/src-server/store"
	"warbell/src-server/utils"

	"github.com/bwmarrin/discordgo"
)

func Remind(as *utils.AppState) {
	id := "remind"
	as.AddAppCmdHandler(id, remindHandler(as))
	as.AddAppCmdInfo(id, &discordgo.ApplicationCommand{
		Name:        id,
		Description: "Send a manual reminder for an event (Admin only).",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:         discordgo.ApplicationCommandOptionString,
				Name:         "event",
				Description:  "Select an event to remind about.",
				Required:     true,
				Autocomplete: true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionBoolean,
				Name:        "include-attendees",
				Description: "Include the current attendee list in the reminder.",
				Required:    false,
			},
		},
	})
}

func remindHandler(as *utils.AppState) func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
		if i.Type == discordgo.InteractionApplicationCommandAutocomplete {
			return remindAutocomplete(as, s, i)
		}

		if !hasAdminPermissions(i) {
			replyPermissionError(s, i)
			return nil
		}

		optionMap := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(i.ApplicationCommandData().Options))
		for _, opt := range i.ApplicationCommandData().Options {
			optionMap[opt.Name] = opt
		}
		var eventID string
		var includeAttendees bool
		if opt, ok := optionMap["event"]; ok {
			eventID = opt.StringValue()
		}
		if opt, ok := optionMap["include-attendees"]; ok {
			includeAttendees = opt.BoolValue()
		}

		ctx := context.Background()
		record, err := as.EventStore.Get(ctx, eventID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			utils.InteractRespHiddenReply(s, i, "❌ Event not found or has been deleted.")
			return nil
		case err != nil:
			utils.InteractRespHiddenReply(s, i, "❌ Failed to load the event. Please try again.")
			return fmt.Errorf("remindHandler: %w", err)
		}

		// sending the broadcast and the DM fan-out takes a while
		if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Flags: discordgo.MessageFlagsEphemeral,
			},
		}); err != nil {
			slog.Warn("remindHandler: can't send defer message", "error", err)
			return nil
		}

		msg := "✅ Reminder sent successfully!"
		if !as.Reminder.SendManual(ctx, i.ChannelID, record, includeAttendees) {
			msg = "❌ Failed to send reminder. Please try again."
		}
		if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
			Content: &msg,
		}); err != nil {
			slog.Warn("remindHandler: can't respond", "error", err)
		}
		return nil
	}
}

func remindAutocomplete(as *utils.AppState, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	var focused string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "event" && opt.Focused {
			focused = strings.ToLower(opt.StringValue())
		}
	}

	records, err := upcomingRecords(as, "all")
	if err != nil {
		slog.Warn("remindAutocomplete: can't list events", "error", err)
		records = nil
	}

	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, 25)
	for _, record := range records {
		event := record.Event
		name := fmt.Sprintf("[%s] %s - %s",
			event.Category.Label(), event.Title,
			time.Unix(event.StartAt, 0).In(as.Config.GetLocation()).Format("Jan 2 15:04"),
		)
		if focused != "" && !strings.Contains(strings.ToLower(name), focused) {
			continue
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  name,
			Value: event.ID,
		})
		if len(choices) == 25 {
			break
		}
	}

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{
			Choices: choices,
		},
	}); err != nil {
		slog.Warn("remindAutocomplete: can't respond", "error", err)
	}
	return nil
}

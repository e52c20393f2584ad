package notify

import (
	"fmt"
	"strings"

	"warbell/src-server/model"
	"warbell/src-server/store"

	"github.com/bwmarrin/discordgo"
)

// DeleteReminderButtonID routes the Clear Reminder button on personal DMs.
const DeleteReminderButtonID = "delete-reminder"

// DispositionEmoji is the reaction emoji members use to pick a disposition.
func DispositionEmoji(disp model.Disposition) string {
	switch disp {
	case model.DispositionTank:
		return "🛡️"
	case model.DispositionDPS:
		return "⚔️"
	case model.DispositionSupport:
		return "💖"
	case model.DispositionYes:
		return "✅"
	case model.DispositionMaybe:
		return "❓"
	case model.DispositionNo:
		return "❌"
	}
	return ""
}

func dispositionName(disp model.Disposition) string {
	switch disp {
	case model.DispositionTank:
		return "Tank"
	case model.DispositionDPS:
		return "DPS"
	case model.DispositionSupport:
		return "Support"
	case model.DispositionYes:
		return "Yes"
	case model.DispositionMaybe:
		return "Maybe"
	case model.DispositionNo:
		return "No"
	}
	return string(disp)
}

func reminderEmbed(event *model.Event) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("🔔 [%s] - %s 🔔", event.Category.Label(), event.Title),
		URL:   event.MessageLink(),
		Description: fmt.Sprintf(
			"**Starting in <t:%d:R>!**\n\n📅 <t:%d:F>",
			event.StartAt, event.StartAt,
		),
		Color: event.Category.EmbedColor(),
	}
}

// ReminderPayload is the channel broadcast for an automatic reminder.
func ReminderPayload(record *store.Record, mention string) *Payload {
	return &Payload{
		Content: mention,
		Embed:   reminderEmbed(&record.Event),
	}
}

// PersonalReminderPayload is the DM sent to each registered member, with a
// button to dismiss it.
func PersonalReminderPayload(record *store.Record) *Payload {
	return &Payload{
		Embed: reminderEmbed(&record.Event),
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						CustomID: DeleteReminderButtonID,
						Label:    "Clear Reminder 🗑️",
						Style:    discordgo.DangerButton,
					},
				},
			},
		},
	}
}

// ManualReminderPayload is a /remind broadcast, optionally embedding the
// current disposition snapshot.
func ManualReminderPayload(record *store.Record, mention string, dispositions map[model.Disposition][]string) *Payload {
	embed := reminderEmbed(&record.Event)
	if dispositions != nil {
		for _, disp := range record.Event.Category.Dispositions() {
			users := dispositions[disp]
			if len(users) == 0 {
				continue
			}
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name:   fmt.Sprintf("%s %s (%d)", DispositionEmoji(disp), dispositionName(disp), len(users)),
				Value:  mentionLines(users),
				Inline: true,
			})
		}
	}
	return &Payload{
		Content: mention,
		Embed:   embed,
	}
}

// AnnouncementEmbed is the live event message: date row plus one column per
// disposition with the current member list.
func AnnouncementEmbed(event *model.Event, dispositions map[model.Disposition][]string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("[%s] - %s", event.Category.Label(), event.Title),
		Color: event.Category.EmbedColor(),
		Fields: []*discordgo.MessageEmbedField{
			{
				Value: fmt.Sprintf("📅 <t:%d:F> - ⏰ <t:%d:R>", event.StartAt, event.StartAt),
			},
		},
	}
	for _, disp := range event.Category.Dispositions() {
		users := dispositions[disp]
		value := "​"
		if len(users) > 0 {
			value = mentionLines(users)
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   fmt.Sprintf("%s %s (%d)", DispositionEmoji(disp), dispositionName(disp), len(users)),
			Value:  value,
			Inline: true,
		})
	}
	return embed
}

// RegistrationPayload confirms a member's disposition pick in a DM.
func RegistrationPayload(event *model.Event, disp model.Disposition) *Payload {
	return &Payload{
		Embed: &discordgo.MessageEmbed{
			Title: fmt.Sprintf("🏯 Registered for [%s] - %s ✅", event.Category.Label(), event.Title),
			URL:   event.MessageLink(),
			Fields: []*discordgo.MessageEmbedField{
				{
					Value: fmt.Sprintf("📅 <t:%d:F> (<t:%d:R>) as **%s**", event.StartAt, event.StartAt, dispositionName(disp)),
				},
			},
			Color: 0x00ff00,
			Footer: &discordgo.MessageEmbedFooter{
				Text: "Don't be late and see you there!",
			},
		},
	}
}

// UnregistrationPayload confirms a member dropped out of an event.
func UnregistrationPayload(event *model.Event) *Payload {
	return &Payload{
		Embed: &discordgo.MessageEmbed{
			Title: fmt.Sprintf("🏯 Unregistered from [%s] - %s ❌", event.Category.Label(), event.Title),
			URL:   event.MessageLink(),
			Color: 0xff0000,
		},
	}
}

func mentionLines(userIDs []string) string {
	lines := make([]string, len(userIDs))
	for i, id := range userIDs {
		lines[i] = fmt.Sprintf("> <@%s>", id)
	}
	return strings.Join(lines, "\n")
}

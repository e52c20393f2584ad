package notify_test

import (
	"fmt"
	"strings"
	"testing"

	"warbell/src-server/model"
	"warbell/src-server/notify"
	"warbell/src-server/store"

	"github.com/bwmarrin/discordgo"
)

func testRecord(category model.Category) *store.Record {
	return &store.Record{
		Event: model.Event{
			ID:        "111",
			Title:     "event title test",
			Category:  category,
			StartAt:   1700000000,
			ChannelID: "222",
			GuildID:   "333",
		},
	}
}

func TestReminderPayload(t *testing.T) {
	record := testRecord(model.CategoryGuildWars)
	payload := notify.ReminderPayload(record, "<@&444>")

	if payload.Content != "<@&444>" {
		t.Error("mention should ride in the message content", payload.Content)
	}
	if !strings.Contains(payload.Embed.Title, "Guild Wars") {
		t.Error("embed title missing category label", payload.Embed.Title)
	}
	if !strings.Contains(payload.Embed.Title, record.Event.Title) {
		t.Error("embed title missing event title", payload.Embed.Title)
	}
	if payload.Embed.URL != "https://discord.com/channels/333/222/111" {
		t.Error("embed should link back to the announcement", payload.Embed.URL)
	}
	if !strings.Contains(payload.Embed.Description, "<t:1700000000:R>") {
		t.Error("embed missing relative timestamp", payload.Embed.Description)
	}
	if payload.Embed.Color != model.CategoryGuildWars.EmbedColor() {
		t.Error("embed color should follow the category")
	}
}

func TestPersonalReminderPayloadHasClearButton(t *testing.T) {
	payload := notify.PersonalReminderPayload(testRecord(model.CategoryGuild))

	if len(payload.Components) != 1 {
		t.Fatal("expected one component row", len(payload.Components))
	}
	row, ok := payload.Components[0].(discordgo.ActionsRow)
	if !ok {
		t.Fatal("expected an actions row")
	}
	button, ok := row.Components[0].(discordgo.Button)
	if !ok {
		t.Fatal("expected a button")
	}
	if button.CustomID != notify.DeleteReminderButtonID {
		t.Error("button must route to the delete-reminder handler", button.CustomID)
	}
}

func TestManualReminderPayloadDispositions(t *testing.T) {
	record := testRecord(model.CategoryGuildWars)

	// case: no snapshot requested, no fields
	func() {
		payload := notify.ManualReminderPayload(record, "", nil)
		if len(payload.Embed.Fields) != 0 {
			t.Error("no disposition fields expected", len(payload.Embed.Fields))
		}
	}()

	// case: snapshot with members, empty sets skipped
	func() {
		dispositions := map[model.Disposition][]string{
			model.DispositionYes:   {"555", "666"},
			model.DispositionMaybe: {},
			model.DispositionNo:    {"777"},
		}
		payload := notify.ManualReminderPayload(record, "", dispositions)
		if len(payload.Embed.Fields) != 2 {
			t.Fatal("expected fields for yes and no only", len(payload.Embed.Fields))
		}
		if !strings.Contains(payload.Embed.Fields[0].Name, "Yes (2)") {
			t.Error("yes field missing member count", payload.Embed.Fields[0].Name)
		}
		if payload.Embed.Fields[0].Value != "> <@555>\n> <@666>" {
			t.Error("member list not quoted as mention lines", payload.Embed.Fields[0].Value)
		}
	}()
}

func TestAnnouncementEmbed(t *testing.T) {
	record := testRecord(model.CategoryGuild)
	dispositions := map[model.Disposition][]string{
		model.DispositionTank:    {"555"},
		model.DispositionDPS:     {},
		model.DispositionSupport: {},
	}

	embed := notify.AnnouncementEmbed(&record.Event, dispositions)

	// one date row plus one column per disposition, empty sets included
	if len(embed.Fields) != 4 {
		t.Fatal("expected date row plus three disposition columns", len(embed.Fields))
	}
	if !strings.Contains(embed.Fields[0].Value, fmt.Sprintf("<t:%d:F>", record.Event.StartAt)) {
		t.Error("date row missing start timestamp", embed.Fields[0].Value)
	}
	if !strings.Contains(embed.Fields[1].Name, "Tank (1)") {
		t.Error("tank column missing count", embed.Fields[1].Name)
	}
	if !strings.Contains(embed.Fields[1].Value, "<@555>") {
		t.Error("tank column missing member", embed.Fields[1].Value)
	}
	if embed.Fields[2].Value == "" {
		t.Error("empty columns need a placeholder so Discord renders them")
	}
}

package handler

import (
	"fmt"
	"log/slog"
	"time"

	"warbell/src-server/model"
	"warbell/src-server/utils"

	"github.com/bwmarrin/discordgo"
)

func Vfs(as *utils.AppState) {
	id := "vfs"
	as.AddAppCmdHandler(id, vfsHandler(as))
	as.AddAppCmdInfo(id, &discordgo.ApplicationCommand{
		Name:        id,
		Description: "Set up a VFS schedule (Admin only).",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "title",
				Description: "Title of the event.",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "datetime",
				Description: "Date & time (e.g., \"today 5pm\", \"tomorrow 17:00\").",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "category",
				Description: "Select event category.",
				Required:    true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "Public VFS", Value: string(model.CategoryPublic)},
					{Name: "Guild VFS", Value: string(model.CategoryGuild)},
					{Name: "Public + Guild VFS", Value: string(model.CategoryBoth)},
				},
			},
		},
	})
}

func vfsHandler(as *utils.AppState) func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
		if !hasAdminPermissions(i) {
			replyPermissionError(s, i)
			return nil
		}

		// #region - parse user params
		optionMap := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(i.ApplicationCommandData().Options))
		for _, opt := range i.ApplicationCommandData().Options {
			optionMap[opt.Name] = opt
		}
		var title, datetime string
		var category model.Category
		if opt, ok := optionMap["title"]; ok {
			title = utils.CleanupString(opt.StringValue())
		}
		if opt, ok := optionMap["datetime"]; ok {
			datetime = opt.StringValue()
		}
		if opt, ok := optionMap["category"]; ok {
			category = model.Category(opt.StringValue())
		}
		if !category.Valid() || category == model.CategoryGuildWars {
			utils.InteractRespHiddenReply(s, i, "❌ Invalid category. Use `/gvg` for Guild Wars events.")
			return nil
		}

		result, err := as.When.Parse(datetime, time.Now().In(as.Config.GetLocation()))
		if err != nil || result == nil {
			utils.InteractRespHiddenReply(s, i, "❌ Could not parse the given date/time.")
			return nil
		}
		if result.Time.Before(time.Now()) {
			utils.InteractRespHiddenReply(s, i, "❌ The given date/time is in the past.")
			return nil
		}
		// #endregion

		if err := utils.InteractRespDefer(s, i); err != nil {
			slog.Warn("vfsHandler: can't send defer message", "error", err)
			return nil
		}

		if err := announceEvent(as, s, i, title, category, result.Time); err != nil {
			return fmt.Errorf("vfsHandler: %w", err)
		}
		return nil
	}
}

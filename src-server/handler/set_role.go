package handler

import (
	"context"
	"fmt"
	"log/slog"

	"warbell/src-server/model"
	"warbell/src-server/utils"

	"github.com/bwmarrin/discordgo"
)

var roleFamilyChoices = []*discordgo.ApplicationCommandOptionChoice{
	{Name: "VFS events", Value: string(model.RoleFamilyVFS)},
	{Name: "GvG events", Value: string(model.RoleFamilyGvG)},
}

func SetRole(as *utils.AppState) {
	id := "setrole"
	as.AddAppCmdHandler(id, setRoleHandler(as))
	as.AddAppCmdInfo(id, &discordgo.ApplicationCommand{
		Name:        id,
		Description: "Configure the role mentioned in event announcements (Admin only).",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "family",
				Description: "Which event family to configure.",
				Required:    true,
				Choices:     roleFamilyChoices,
			},
			{
				Type:        discordgo.ApplicationCommandOptionRole,
				Name:        "role",
				Description: "The role to mention. Leave empty to clear.",
				Required:    false,
			},
		},
	})
}

func setRoleHandler(as *utils.AppState) func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
		if !hasAdminPermissions(i) {
			replyPermissionError(s, i)
			return nil
		}

		var family model.RoleFamily
		var roleID string
		for _, opt := range i.ApplicationCommandData().Options {
			switch opt.Name {
			case "family":
				family = model.RoleFamily(opt.StringValue())
			case "role":
				roleID = opt.RoleValue(s, i.GuildID).ID
			}
		}

		ctx := context.Background()
		if roleID == "" {
			if _, err := as.BunDB.NewDelete().
				Model((*model.RoleConfig)(nil)).
				Where("family = ?", family).
				Exec(ctx); err != nil {
				utils.InteractRespHiddenReply(s, i, "❌ Failed to clear the role. Please try again.")
				return fmt.Errorf("setRoleHandler: %w", err)
			}
			slog.Info("role config cleared", "family", family, "by", i.Member.User.ID)
			utils.InteractRespHiddenReply(s, i, fmt.Sprintf("✅ Cleared the mention role for **%s** events.", family))
			return nil
		}

		roleConfig := model.RoleConfig{
			Family: family,
			RoleID: roleID,
		}
		if _, err := as.BunDB.NewInsert().
			Model(&roleConfig).
			On("CONFLICT (family) DO UPDATE").
			Set("role_id = EXCLUDED.role_id").
			Exec(ctx); err != nil {
			utils.InteractRespHiddenReply(s, i, "❌ Failed to save the role. Please try again.")
			return fmt.Errorf("setRoleHandler: %w", err)
		}

		slog.Info("role config updated", "family", family, "role_id", roleID, "by", i.Member.User.ID)
		utils.InteractRespHiddenReply(s, i, fmt.Sprintf("✅ Set <@&%s> as the mention role for **%s** events.", roleID, family))
		return nil
	}
}

func TestRole(as *utils.AppState) {
	id := "testrole"
	as.AddAppCmdHandler(id, testRoleHandler(as))
	as.AddAppCmdInfo(id, &discordgo.ApplicationCommand{
		Name:        id,
		Description: "Show which role would be mentioned for an event family (Admin only).",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "family",
				Description: "Which event family to test.",
				Required:    true,
				Choices:     roleFamilyChoices,
			},
		},
	})
}

func testRoleHandler(as *utils.AppState) func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
		if !hasAdminPermissions(i) {
			replyPermissionError(s, i)
			return nil
		}

		var family model.RoleFamily
		for _, opt := range i.ApplicationCommandData().Options {
			if opt.Name == "family" {
				family = model.RoleFamily(opt.StringValue())
			}
		}

		roleConfig := new(model.RoleConfig)
		err := as.BunDB.NewSelect().
			Model(roleConfig).
			Where("family = ?", family).
			Scan(context.Background())
		if err != nil {
			utils.InteractRespHiddenReply(s, i, fmt.Sprintf("No mention role is configured for **%s** events.", family))
			return nil
		}
		utils.InteractRespHiddenReply(s, i, fmt.Sprintf("Announcements for **%s** events will mention <@&%s>.", family, roleConfig.RoleID))
		return nil
	}
}

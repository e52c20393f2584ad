package handler

import (
	"warbell/src-server/utils"

	"github.com/bwmarrin/discordgo"
)

// hasAdminPermissions reports whether the caller may use admin-only
// commands (administrator or manage-server in the guild).
func hasAdminPermissions(i *discordgo.InteractionCreate) bool {
	if i.Member == nil {
		return false
	}
	return i.Member.Permissions&(discordgo.PermissionAdministrator|discordgo.PermissionManageServer) != 0
}

func replyPermissionError(s *discordgo.Session, i *discordgo.InteractionCreate) {
	utils.InteractRespHiddenReply(s, i, "❌ You do not have permission to use this command. This command is restricted to administrators only.")
}

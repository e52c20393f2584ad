package model

import (
	"github.com/uptrace/bun"
)

// RoleFamily groups event categories for role mentions: every VFS flavor
// shares one configured role, Guild Wars has its own.
type RoleFamily string

const (
	RoleFamilyVFS RoleFamily = "vfs"
	RoleFamilyGvG RoleFamily = "gvg"
)

func FamilyForCategory(c Category) RoleFamily {
	if c == CategoryGuildWars {
		return RoleFamilyGvG
	}
	return RoleFamilyVFS
}

// RoleConfig maps a role family to the Discord role mentioned in reminders
// and announcements for that family.
type RoleConfig struct {
	bun.BaseModel `bun:"table:role_configs"`

	Family RoleFamily `bun:"family,pk"`
	RoleID string     `bun:"role_id"`
}

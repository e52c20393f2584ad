package notify

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"warbell/src-server/model"

	"github.com/uptrace/bun"
)

// RoleMentions implements RoleMentionLookup on the role_configs table.
type RoleMentions struct {
	db *bun.DB
}

func NewRoleMentions(db *bun.DB) *RoleMentions {
	return &RoleMentions{db: db}
}

func (r *RoleMentions) MentionForCategory(ctx context.Context, c model.Category) string {
	roleConfig := new(model.RoleConfig)
	err := r.db.NewSelect().
		Model(roleConfig).
		Where("family = ?", model.FamilyForCategory(c)).
		Scan(ctx)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ""
	case err != nil:
		slog.Warn("MentionForCategory: can't read role config", "category", c, "error", err)
		return ""
	case roleConfig.RoleID == "":
		return ""
	}
	return fmt.Sprintf("<@&%s>", roleConfig.RoleID)
}

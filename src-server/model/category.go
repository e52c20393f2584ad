package model

// Category is the kind of guild activity an event announces. Guild Wars
// events collect yes/maybe/no responses; every VFS flavor collects
// tank/dps/support role picks instead.
type Category string

const (
	CategoryPublic    Category = "public"
	CategoryGuild     Category = "guild"
	CategoryBoth      Category = "both"
	CategoryGuildWars Category = "guildwars"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryPublic, CategoryGuild, CategoryBoth, CategoryGuildWars:
		return true
	}
	return false
}

// Dispositions returns the closed set of RSVP dispositions for this category.
func (c Category) Dispositions() []Disposition {
	if c == CategoryGuildWars {
		return []Disposition{DispositionYes, DispositionMaybe, DispositionNo}
	}
	return []Disposition{DispositionTank, DispositionDPS, DispositionSupport}
}

// PositiveDispositions returns the dispositions whose members get a
// personal DM when a reminder fires. "No" answers are never DM'd.
func (c Category) PositiveDispositions() []Disposition {
	if c == CategoryGuildWars {
		return []Disposition{DispositionYes, DispositionMaybe}
	}
	return []Disposition{DispositionTank, DispositionDPS, DispositionSupport}
}

func (c Category) Label() string {
	switch c {
	case CategoryGuildWars:
		return "Guild Wars"
	case CategoryBoth:
		return "Public + Guild VFS"
	case CategoryPublic:
		return "Public VFS"
	case CategoryGuild:
		return "Guild VFS"
	}
	return string(c)
}

func (c Category) EmbedColor() int {
	switch c {
	case CategoryPublic:
		return 0x1abc9c
	case CategoryGuild:
		return 0x3498db
	case CategoryBoth:
		return 0x9b59b6
	case CategoryGuildWars:
		return 0xff0000
	}
	return 0x00ae86
}

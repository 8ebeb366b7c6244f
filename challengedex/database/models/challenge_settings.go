package models

import (
	"github.com/disgoorg/snowflake/v2"
	"github.com/uptrace/bun"
)

// SettingsRowID is the primary key of the single challenge_settings row.
const SettingsRowID = 1

// ChallengeSettings is a singleton row holding the runtime-mutable knobs of the
// engine. It is loaded with create-if-missing semantics, never assumed present.
type ChallengeSettings struct {
	bun.BaseModel `bun:"table:challenge_settings,alias:cs"`

	ID int64 `bun:"id,pk"`
	// Enabled is the master switch: when false no contribution events are
	// processed.
	Enabled               bool         `bun:"enabled,notnull,default:true"`
	AnnouncementChannelID snowflake.ID `bun:"announcement_channel_id,notnull,default:0"`
}

package models

import (
	"time"

	"github.com/uptrace/bun"
)

// BallInstance maps the dex bot's owned-collectible table. The bot shares the
// dex database but treats this table as read-only: it is only ever counted, for
// ownership (snapshot) challenges.
type BallInstance struct {
	bun.BaseModel `bun:"table:ballinstance,alias:bi"`

	ID        int64     `bun:"id,pk"`
	BallID    int64     `bun:"ball_id,notnull"`
	PlayerID  string    `bun:"player_id,notnull"`
	CatchDate time.Time `bun:"catch_date,notnull"`
}

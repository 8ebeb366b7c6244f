package models

import (
	"time"

	"github.com/uptrace/bun"
)

// ChallengeProgress is one row per (challenge, player). The amount is cumulative
// and only ever grows; the unique pair constraint is what makes the upsert-based
// increment safe under concurrency.
type ChallengeProgress struct {
	bun.BaseModel `bun:"table:challenge_progress,alias:cp"`

	ID          int64     `bun:"id,pk,autoincrement"`
	ChallengeID int64     `bun:"challenge_id,notnull,unique:cp_challenge_player"`
	PlayerID    string    `bun:"player_id,notnull,unique:cp_challenge_player"`
	Amount      int64     `bun:"amount,notnull,default:0"`
	LastUpdated time.Time `bun:"last_updated,notnull"`

	Challenge *Challenge `bun:"rel:belongs-to,join:challenge_id=id"`
}

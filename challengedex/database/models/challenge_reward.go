package models

import (
	"time"

	"github.com/uptrace/bun"
)

// ChallengeReward records that a reward was issued to a player for a completed
// challenge. The unique (challenge, player) constraint is the idempotency guard:
// a second insert for the same pair is a no-op, never a double payout.
type ChallengeReward struct {
	bun.BaseModel `bun:"table:challenge_rewards,alias:cr"`

	ID          int64     `bun:"id,pk,autoincrement"`
	ChallengeID int64     `bun:"challenge_id,notnull,unique:cr_challenge_player"`
	PlayerID    string    `bun:"player_id,notnull,unique:cr_challenge_player"`
	BallsGiven  int       `bun:"balls_given,notnull,default:0"`
	IssuedAt    time.Time `bun:"issued_at,notnull"`
}

package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Challenge is a community-wide goal: the whole server works toward a shared
// target and every contributor is rewarded when it completes.
type Challenge struct {
	bun.BaseModel `bun:"table:challenges,alias:ch"`

	ID           int64      `bun:"id,pk,autoincrement"`
	Name         string     `bun:"name,notnull"`
	Description  string     `bun:"description,notnull,default:''"`
	Type         string     `bun:"challenge_type,notnull"`
	BallID       *int64     `bun:"ball_id"`
	TargetAmount int64      `bun:"target_amount,notnull"`
	RewardBalls  int        `bun:"reward_balls,notnull,default:0"`
	Enabled      bool       `bun:"enabled,notnull,default:true"`
	Completed    bool       `bun:"completed,notnull,default:false"`
	CreatedAt    time.Time  `bun:"created_at,notnull"`
	CompletedAt  *time.Time `bun:"completed_at"`
}

// Challenge type constants
const (
	ChallengeTypeCatch      = "catch"
	ChallengeTypeTrade      = "trade"
	ChallengeTypeWrongGuess = "wrong_guess"
	// ChallengeTypeOwnership is the snapshot kind: its total is a live count of
	// owned ball instances, not a sum of accumulated contribution entries.
	ChallengeTypeOwnership = "ownership"
)

// IsSnapshot reports whether progress is derived from a live external count.
func (c *Challenge) IsSnapshot() bool {
	return c.Type == ChallengeTypeOwnership
}

// Active reports whether the challenge should match new contribution events.
func (c *Challenge) Active() bool {
	return c.Enabled && !c.Completed
}

// TargetReached reports whether the total satisfies the target. A non-positive
// target is satisfied by any contribution at all.
func (c *Challenge) TargetReached(total int64) bool {
	if c.TargetAmount <= 0 {
		return total > 0
	}
	return total >= c.TargetAmount
}

// ProgressPercent returns progress clamped to [0, 100]. A non-positive target
// counts as 100% as soon as anything has been contributed.
func (c *Challenge) ProgressPercent(total int64) int {
	if c.TargetAmount <= 0 {
		if total > 0 {
			return 100
		}
		return 0
	}

	pct := int(total * 100 / c.TargetAmount)
	if pct > 100 {
		pct = 100
	}
	return pct
}

package repositories

import (
	"context"
	"time"

	"github.com/challengedex/challenge-bot/challengedex/database/models"
	"github.com/uptrace/bun"
)

// RewardRepository is the reward ledger. The unique (challenge, player)
// constraint makes Issue safe to call any number of times for the same pair.
type RewardRepository interface {
	// Issue records a reward and reports whether a new ledger row was created.
	// A false return means the pair was already rewarded; that is success, not
	// an error.
	Issue(ctx context.Context, reward *models.ChallengeReward) (bool, error)
	GetForChallenge(ctx context.Context, challengeID int64) ([]*models.ChallengeReward, error)
	CountForChallenge(ctx context.Context, challengeID int64) (int, error)
	// ClearForChallenge deletes the ledger rows for a challenge. Only used when
	// an admin reopens a challenge and explicitly asks for re-rewarding.
	ClearForChallenge(ctx context.Context, challengeID int64) (int64, error)
}

type rewardRepository struct {
	db *bun.DB
}

func NewRewardRepository(db *bun.DB) RewardRepository {
	return &rewardRepository{db: db}
}

func (r *rewardRepository) Issue(ctx context.Context, reward *models.ChallengeReward) (bool, error) {
	reward.IssuedAt = time.Now()

	result, err := r.db.NewInsert().
		Model(reward).
		On("CONFLICT (challenge_id, player_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *rewardRepository) GetForChallenge(ctx context.Context, challengeID int64) ([]*models.ChallengeReward, error) {
	var rewards []*models.ChallengeReward
	err := r.db.NewSelect().
		Model(&rewards).
		Where("challenge_id = ?", challengeID).
		Order("issued_at ASC").
		Scan(ctx)

	return rewards, err
}

func (r *rewardRepository) CountForChallenge(ctx context.Context, challengeID int64) (int, error) {
	return r.db.NewSelect().
		Model((*models.ChallengeReward)(nil)).
		Where("challenge_id = ?", challengeID).
		Count(ctx)
}

func (r *rewardRepository) ClearForChallenge(ctx context.Context, challengeID int64) (int64, error) {
	result, err := r.db.NewDelete().
		Model((*models.ChallengeReward)(nil)).
		Where("challenge_id = ?", challengeID).
		Exec(ctx)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

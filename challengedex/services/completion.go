package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/challengedex/challenge-bot/challengedex/database/models"
	"github.com/challengedex/challenge-bot/challengedex/database/repositories"
)

// CompletionCoordinator serializes completion decisions so exactly one
// completion sequence runs per challenge, no matter how many concurrent events
// cross the threshold at once.
//
// The in-process guard is a single mutex plus a set of challenge ids currently
// completing. The gate is only held across the cheap check-and-mark step, never
// across the completion sequence itself. The persisted conditional update in
// MarkCompleted is the real safety net: even two separate processes racing will
// resolve to a single winner.
type CompletionCoordinator struct {
	challenges repositories.ChallengeRepository
	progress   repositories.ProgressRepository
	rewards    repositories.RewardRepository
	announcer  Announcer
	fulfiller  RewardFulfiller

	mu         sync.Mutex
	completing map[int64]struct{}
}

func NewCompletionCoordinator(
	challenges repositories.ChallengeRepository,
	progress repositories.ProgressRepository,
	rewards repositories.RewardRepository,
	announcer Announcer,
	fulfiller RewardFulfiller,
) *CompletionCoordinator {
	return &CompletionCoordinator{
		challenges: challenges,
		progress:   progress,
		rewards:    rewards,
		announcer:  announcer,
		fulfiller:  fulfiller,
		completing: make(map[int64]struct{}),
	}
}

// CheckAndComplete decides whether the challenge just crossed its target and,
// if so, runs the completion sequence exactly once. The caller's view of the
// challenge may be stale; the authoritative completed flag is re-read fresh
// under the gate.
func (c *CompletionCoordinator) CheckAndComplete(ctx context.Context, challenge *models.Challenge, total int64) error {
	// Cheap common case: most contributions land nowhere near the target.
	if challenge.Completed || !challenge.TargetReached(total) {
		return nil
	}

	c.mu.Lock()
	if _, busy := c.completing[challenge.ID]; busy {
		c.mu.Unlock()
		return nil
	}

	fresh, err := c.challenges.GetByID(ctx, challenge.ID)
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("completion re-read failed: %w", err)
	}
	if fresh.Completed {
		c.mu.Unlock()
		return nil
	}

	c.completing[challenge.ID] = struct{}{}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.completing, challenge.ID)
		c.mu.Unlock()
	}()

	return c.complete(ctx, fresh)
}

func (c *CompletionCoordinator) complete(ctx context.Context, challenge *models.Challenge) error {
	won, err := c.challenges.MarkCompleted(ctx, challenge.ID)
	if err != nil {
		return fmt.Errorf("failed to persist completion of challenge %d: %w", challenge.ID, err)
	}
	if !won {
		// Another instance persisted the transition first; nothing left to do.
		slog.Debug("Lost completion race, skipping",
			slog.String("type", "engine"),
			slog.Int64("challenge_id", challenge.ID))
		return nil
	}

	challenge.Completed = true

	rewarded := 0
	if challenge.RewardBalls > 0 {
		rewarded = c.rewardContributors(ctx, challenge)
	}

	// Completion is irrevocable once the flag is persisted; a failed
	// announcement is logged and swallowed, never retried.
	if c.announcer != nil {
		if err := c.announcer.ChallengeCompleted(ctx, challenge, rewarded); err != nil {
			slog.Warn("Completion announcement failed",
				slog.String("type", "engine"),
				slog.Int64("challenge_id", challenge.ID),
				slog.Any("error", err))
		}
	}

	slog.Info("Challenge completed",
		slog.String("type", "engine"),
		slog.Int64("challenge_id", challenge.ID),
		slog.String("name", challenge.Name),
		slog.Int("rewarded", rewarded))

	return nil
}

// rewardContributors issues one reward per contributor with amount > 0 and
// returns how many ledger rows were newly created. Pairs already present in
// the ledger are silently skipped; running this twice pays nobody twice.
func (c *CompletionCoordinator) rewardContributors(ctx context.Context, challenge *models.Challenge) int {
	entries, err := c.progress.Contributors(ctx, challenge.ID)
	if err != nil {
		slog.Error("Failed to enumerate contributors for rewards",
			slog.String("type", "engine"),
			slog.Int64("challenge_id", challenge.ID),
			slog.Any("error", err))
		return 0
	}

	rewarded := 0
	for _, entry := range entries {
		reward := &models.ChallengeReward{
			ChallengeID: challenge.ID,
			PlayerID:    entry.PlayerID,
			BallsGiven:  challenge.RewardBalls,
		}

		created, err := c.rewards.Issue(ctx, reward)
		if err != nil {
			slog.Error("Failed to issue reward",
				slog.String("type", "engine"),
				slog.Int64("challenge_id", challenge.ID),
				slog.String("player_id", entry.PlayerID),
				slog.Any("error", err))
			continue
		}
		if !created {
			continue
		}

		rewarded++
		if c.fulfiller != nil {
			if err := c.fulfiller.Fulfill(ctx, reward); err != nil {
				slog.Error("Reward fulfillment hook failed",
					slog.String("type", "engine"),
					slog.Int64("challenge_id", challenge.ID),
					slog.String("player_id", entry.PlayerID),
					slog.Any("error", err))
			}
		}
	}

	return rewarded
}

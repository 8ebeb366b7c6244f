package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/challengedex/challenge-bot/challengedex/database/models"
	"github.com/challengedex/challenge-bot/challengedex/database/repositories"
	"golang.org/x/sync/singleflight"
)

// ProgressEngine applies contribution events to every matching challenge and
// hands new totals to the completion coordinator.
type ProgressEngine struct {
	challenges  repositories.ChallengeRepository
	progress    repositories.ProgressRepository
	settings    repositories.SettingsRepository
	dex         repositories.DexRepository
	coordinator *CompletionCoordinator

	// snapshotGroup collapses concurrent live-count refreshes per challenge;
	// /challenges spam should not turn into a stampede of COUNT queries.
	snapshotGroup singleflight.Group
}

func NewProgressEngine(
	challenges repositories.ChallengeRepository,
	progress repositories.ProgressRepository,
	settings repositories.SettingsRepository,
	dex repositories.DexRepository,
	coordinator *CompletionCoordinator,
) *ProgressEngine {
	return &ProgressEngine{
		challenges:  challenges,
		progress:    progress,
		settings:    settings,
		dex:         dex,
		coordinator: coordinator,
	}
}

// Apply processes one contribution event. Matching challenges are handled
// independently: a storage failure on one is logged and joined into the
// returned error, but never blocks the others.
func (e *ProgressEngine) Apply(ctx context.Context, ev models.ContributionEvent) error {
	if ev.PlayerID == "" {
		return errors.New("contribution event has no player id")
	}
	if ev.Amount == 0 {
		ev.Amount = 1
	}

	settings, err := e.settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load challenge settings: %w", err)
	}
	if !settings.Enabled {
		return nil
	}

	matched, err := e.challenges.Matching(ctx, ev)
	if err != nil {
		return fmt.Errorf("failed to resolve matching challenges: %w", err)
	}

	var errs []error
	for _, challenge := range matched {
		total, err := e.progress.Increment(ctx, challenge.ID, ev.PlayerID, ev.Amount)
		if err != nil {
			slog.Error("Failed to apply contribution",
				slog.String("type", "engine"),
				slog.Int64("challenge_id", challenge.ID),
				slog.String("player_id", ev.PlayerID),
				slog.Any("error", err))
			errs = append(errs, fmt.Errorf("challenge %d: %w", challenge.ID, err))
			continue
		}

		// Snapshot challenges record entries for the leaderboard only; their
		// completion is decided against the live count on refresh.
		if challenge.IsSnapshot() {
			continue
		}

		if err := e.coordinator.CheckAndComplete(ctx, challenge, total); err != nil {
			slog.Error("Completion check failed",
				slog.String("type", "engine"),
				slog.Int64("challenge_id", challenge.ID),
				slog.Any("error", err))
			errs = append(errs, fmt.Errorf("challenge %d: %w", challenge.ID, err))
		}
	}

	return errors.Join(errs...)
}

// RefreshSnapshot recomputes a snapshot challenge's total from the live
// external count and runs the completion check against it. Invoked whenever a
// player asks for an up-to-date view, not by individual events.
func (e *ProgressEngine) RefreshSnapshot(ctx context.Context, challenge *models.Challenge) (int64, error) {
	if !challenge.IsSnapshot() {
		return 0, fmt.Errorf("challenge %d is not a snapshot challenge", challenge.ID)
	}

	v, err, _ := e.snapshotGroup.Do(strconv.FormatInt(challenge.ID, 10), func() (interface{}, error) {
		return e.dex.LiveCount(ctx, challenge.BallID)
	})
	if err != nil {
		return 0, fmt.Errorf("live count failed for challenge %d: %w", challenge.ID, err)
	}
	total := v.(int64)

	if challenge.Active() {
		if err := e.coordinator.CheckAndComplete(ctx, challenge, total); err != nil {
			slog.Error("Completion check failed on snapshot refresh",
				slog.String("type", "engine"),
				slog.Int64("challenge_id", challenge.ID),
				slog.Any("error", err))
		}
	}

	return total, nil
}

// CurrentTotal returns the display total for a challenge, picking the
// accumulated or live-count path by kind.
func (e *ProgressEngine) CurrentTotal(ctx context.Context, challenge *models.Challenge) (int64, error) {
	if challenge.IsSnapshot() {
		return e.RefreshSnapshot(ctx, challenge)
	}
	return e.progress.Total(ctx, challenge.ID)
}

// TopContributors returns the leaderboard for a challenge.
func (e *ProgressEngine) TopContributors(ctx context.Context, challenge *models.Challenge, limit int) ([]*models.ChallengeProgress, error) {
	return e.progress.TopContributors(ctx, challenge.ID, limit)
}

package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/challengedex/challenge-bot/challengedex/database/models"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

var ErrInvalidContribution = errors.New("contribution delta must be a positive integer")

// incrementMaxRetries bounds the internal retry on transient serialization
// conflicts; callers never see those errors.
const incrementMaxRetries = 3

// ProgressRepository is the contribution store: one row per (challenge, player)
// with an atomic increment-and-read-total operation.
type ProgressRepository interface {
	// Increment atomically adds delta to the player's entry (creating it on
	// first contribution) and returns the new community-wide total for the
	// challenge. Delta must be positive.
	Increment(ctx context.Context, challengeID int64, playerID string, delta int64) (int64, error)
	// Total returns the current aggregate without mutating anything.
	Total(ctx context.Context, challengeID int64) (int64, error)
	// TopContributors returns entries ordered by amount descending, ties broken
	// by player id for a stable order.
	TopContributors(ctx context.Context, challengeID int64, limit int) ([]*models.ChallengeProgress, error)
	// Contributors returns every entry with amount > 0, for reward fan-out.
	Contributors(ctx context.Context, challengeID int64) ([]*models.ChallengeProgress, error)
}

type progressRepository struct {
	db *bun.DB
}

func NewProgressRepository(db *bun.DB) ProgressRepository {
	return &progressRepository{db: db}
}

func (r *progressRepository) Increment(ctx context.Context, challengeID int64, playerID string, delta int64) (int64, error) {
	if delta <= 0 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidContribution, delta)
	}

	var total int64
	var err error
	for attempt := 0; attempt < incrementMaxRetries; attempt++ {
		total, err = r.incrementTx(ctx, challengeID, playerID, delta)
		if err == nil || !isSerializationError(err) {
			return total, err
		}
		time.Sleep(time.Duration(attempt+1) * 10 * time.Millisecond)
	}
	return 0, fmt.Errorf("increment failed after %d attempts: %w", incrementMaxRetries, err)
}

func (r *progressRepository) incrementTx(ctx context.Context, challengeID int64, playerID string, delta int64) (int64, error) {
	var total int64
	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		entry := &models.ChallengeProgress{
			ChallengeID: challengeID,
			PlayerID:    playerID,
			Amount:      delta,
			LastUpdated: time.Now(),
		}

		// The row-level lock taken by the conflict update serializes concurrent
		// increments on the same pair; different pairs proceed in parallel.
		_, err := tx.NewInsert().
			Model(entry).
			On("CONFLICT (challenge_id, player_id) DO UPDATE").
			Set("amount = cp.amount + EXCLUDED.amount").
			Set("last_updated = EXCLUDED.last_updated").
			Exec(ctx)
		if err != nil {
			return err
		}

		return tx.NewSelect().
			Model((*models.ChallengeProgress)(nil)).
			ColumnExpr("COALESCE(SUM(amount), 0)").
			Where("challenge_id = ?", challengeID).
			Scan(ctx, &total)
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *progressRepository) Total(ctx context.Context, challengeID int64) (int64, error) {
	var total int64
	err := r.db.NewSelect().
		Model((*models.ChallengeProgress)(nil)).
		ColumnExpr("COALESCE(SUM(amount), 0)").
		Where("challenge_id = ?", challengeID).
		Scan(ctx, &total)

	return total, err
}

func (r *progressRepository) TopContributors(ctx context.Context, challengeID int64, limit int) ([]*models.ChallengeProgress, error) {
	var entries []*models.ChallengeProgress
	err := r.db.NewSelect().
		Model(&entries).
		Where("challenge_id = ?", challengeID).
		Where("amount > 0").
		Order("amount DESC", "player_id ASC").
		Limit(limit).
		Scan(ctx)

	return entries, err
}

func (r *progressRepository) Contributors(ctx context.Context, challengeID int64) ([]*models.ChallengeProgress, error) {
	var entries []*models.ChallengeProgress
	err := r.db.NewSelect().
		Model(&entries).
		Where("challenge_id = ?", challengeID).
		Where("amount > 0").
		Scan(ctx)

	return entries, err
}

// isSerializationError reports whether the error is transient write contention
// worth retrying (serialization failure or deadlock).
func isSerializationError(err error) bool {
	var pgErr pgdriver.Error
	if !errors.As(err, &pgErr) {
		return false
	}
	code := pgErr.Field('C')
	return code == "40001" || code == "40P01"
}

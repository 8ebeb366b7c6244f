package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/challengedex/challenge-bot/challengedex/database/models"
	"github.com/uptrace/bun"
)

// DexRepository reads the dex bot's own tables. The bot shares the dex
// database but never writes to these tables: they are counted (ownership
// challenges) and looked up (ball name resolution), nothing else.
type DexRepository interface {
	// LiveCount counts owned ball instances, optionally restricted to one ball.
	LiveCount(ctx context.Context, ballID *int64) (int64, error)
	// BallIDByName resolves a ball display name scraped from a catch message.
	// Returns nil without error when the name is unknown.
	BallIDByName(ctx context.Context, name string) (*int64, error)
}

type dexRepository struct {
	db *bun.DB
}

func NewDexRepository(db *bun.DB) DexRepository {
	return &dexRepository{db: db}
}

func (r *dexRepository) LiveCount(ctx context.Context, ballID *int64) (int64, error) {
	query := r.db.NewSelect().
		Model((*models.BallInstance)(nil))

	if ballID != nil {
		query = query.Where("ball_id = ?", *ballID)
	}

	count, err := query.Count(ctx)
	return int64(count), err
}

func (r *dexRepository) BallIDByName(ctx context.Context, name string) (*int64, error) {
	ball := new(models.Ball)
	err := r.db.NewSelect().
		Model(ball).
		Where("LOWER(country) = ?", strings.ToLower(strings.TrimSpace(name))).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &ball.ID, nil
}

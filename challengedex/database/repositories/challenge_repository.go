package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/challengedex/challenge-bot/challengedex/database/models"
	"github.com/uptrace/bun"
)

var ErrChallengeNotFound = errors.New("challenge not found")

// ChallengeRepository is the challenge registry. GetActive serves a cached
// snapshot for the hot event path; GetByID always reads fresh and is what the
// completion path relies on for the authoritative completed flag.
type ChallengeRepository interface {
	Create(ctx context.Context, challenge *models.Challenge) error
	GetByID(ctx context.Context, id int64) (*models.Challenge, error)
	GetAll(ctx context.Context) ([]*models.Challenge, error)
	GetActive(ctx context.Context) ([]*models.Challenge, error)
	// Matching resolves which active challenges the event applies to.
	Matching(ctx context.Context, ev models.ContributionEvent) ([]*models.Challenge, error)
	// InvalidateActive drops the cached snapshot. Must be called after every
	// completion or admin mutation so a just-completed challenge is not handed
	// out as still active.
	InvalidateActive()
	SetEnabled(ctx context.Context, id int64, enabled bool) error
	// MarkCompleted flips completed=false to true in a single conditional
	// update and reports whether this caller won the transition. This is the
	// cross-process safety net: a losing racer gets false, not an error.
	MarkCompleted(ctx context.Context, id int64) (bool, error)
	// Reopen resets the completed flag so the challenge can run again. The
	// reward ledger is untouched here; clearing it is a separate, explicit
	// decision (RewardRepository.ClearForChallenge).
	Reopen(ctx context.Context, id int64) error
}

type challengeRepository struct {
	db       *bun.DB
	cacheTTL time.Duration

	mu          sync.Mutex
	cachedList  []*models.Challenge
	cacheExpiry time.Time
}

func NewChallengeRepository(db *bun.DB, cacheTTL time.Duration) ChallengeRepository {
	if cacheTTL <= 0 {
		cacheTTL = 15 * time.Second
	}
	return &challengeRepository{db: db, cacheTTL: cacheTTL}
}

func (r *challengeRepository) Create(ctx context.Context, challenge *models.Challenge) error {
	challenge.CreatedAt = time.Now()
	_, err := r.db.NewInsert().Model(challenge).Exec(ctx)
	if err != nil {
		return err
	}

	r.InvalidateActive()
	return nil
}

func (r *challengeRepository) GetByID(ctx context.Context, id int64) (*models.Challenge, error) {
	challenge := new(models.Challenge)
	err := r.db.NewSelect().
		Model(challenge).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %d", ErrChallengeNotFound, id)
		}
		return nil, err
	}

	return challenge, nil
}

func (r *challengeRepository) GetAll(ctx context.Context) ([]*models.Challenge, error) {
	var challenges []*models.Challenge
	err := r.db.NewSelect().
		Model(&challenges).
		Order("created_at DESC").
		Scan(ctx)

	return challenges, err
}

func (r *challengeRepository) GetActive(ctx context.Context) ([]*models.Challenge, error) {
	r.mu.Lock()
	if r.cachedList != nil && time.Now().Before(r.cacheExpiry) {
		cached := r.cachedList
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	var challenges []*models.Challenge
	err := r.db.NewSelect().
		Model(&challenges).
		Where("enabled = ?", true).
		Where("completed = ?", false).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cachedList = challenges
	r.cacheExpiry = time.Now().Add(r.cacheTTL)
	r.mu.Unlock()

	return challenges, nil
}

func (r *challengeRepository) Matching(ctx context.Context, ev models.ContributionEvent) ([]*models.Challenge, error) {
	active, err := r.GetActive(ctx)
	if err != nil {
		return nil, err
	}

	var matched []*models.Challenge
	for _, c := range active {
		if c.Matches(ev) {
			matched = append(matched, c)
		}
	}
	return matched, nil
}

func (r *challengeRepository) InvalidateActive() {
	r.mu.Lock()
	r.cachedList = nil
	r.cacheExpiry = time.Time{}
	r.mu.Unlock()
}

func (r *challengeRepository) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	result, err := r.db.NewUpdate().
		Model((*models.Challenge)(nil)).
		Set("enabled = ?", enabled).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}

	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("%w: id %d", ErrChallengeNotFound, id)
	}

	r.InvalidateActive()
	return nil
}

func (r *challengeRepository) MarkCompleted(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.NewUpdate().
		Model((*models.Challenge)(nil)).
		Set("completed = ?", true).
		Set("completed_at = ?", time.Now()).
		Where("id = ?", id).
		Where("completed = ?", false).
		Exec(ctx)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	if rows > 0 {
		r.InvalidateActive()
	}
	return rows > 0, nil
}

func (r *challengeRepository) Reopen(ctx context.Context, id int64) error {
	result, err := r.db.NewUpdate().
		Model((*models.Challenge)(nil)).
		Set("completed = ?", false).
		Set("completed_at = NULL").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}

	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("%w: id %d", ErrChallengeNotFound, id)
	}

	r.InvalidateActive()
	return nil
}

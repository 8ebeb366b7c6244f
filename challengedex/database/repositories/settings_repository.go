package repositories

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/challengedex/challenge-bot/challengedex/database/models"
	"github.com/disgoorg/snowflake/v2"
	"github.com/uptrace/bun"
)

// SettingsRepository manages the singleton settings row with load-or-create
// semantics. The row is read on every inbound event, so it is cached briefly.
type SettingsRepository interface {
	Load(ctx context.Context) (*models.ChallengeSettings, error)
	SetEnabled(ctx context.Context, enabled bool) error
	SetAnnouncementChannel(ctx context.Context, channelID snowflake.ID) error
}

type settingsRepository struct {
	db             *bun.DB
	defaultChannel snowflake.ID
	cacheTTL       time.Duration

	mu          sync.Mutex
	cached      *models.ChallengeSettings
	cacheExpiry time.Time
}

func NewSettingsRepository(db *bun.DB, defaultChannel snowflake.ID) SettingsRepository {
	return &settingsRepository{
		db:             db,
		defaultChannel: defaultChannel,
		cacheTTL:       30 * time.Second,
	}
}

func (r *settingsRepository) Load(ctx context.Context) (*models.ChallengeSettings, error) {
	r.mu.Lock()
	if r.cached != nil && time.Now().Before(r.cacheExpiry) {
		cached := r.cached
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	settings, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cached = settings
	r.cacheExpiry = time.Now().Add(r.cacheTTL)
	r.mu.Unlock()

	return settings, nil
}

func (r *settingsRepository) load(ctx context.Context) (*models.ChallengeSettings, error) {
	settings := new(models.ChallengeSettings)
	err := r.db.NewSelect().
		Model(settings).
		Where("id = ?", models.SettingsRowID).
		Scan(ctx)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	// First start: seed defaults. DO NOTHING keeps a concurrent seeder from
	// failing; whoever loses just re-reads.
	settings = &models.ChallengeSettings{
		ID:                    models.SettingsRowID,
		Enabled:               true,
		AnnouncementChannelID: r.defaultChannel,
	}
	_, err = r.db.NewInsert().
		Model(settings).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	err = r.db.NewSelect().
		Model(settings).
		Where("id = ?", models.SettingsRowID).
		Scan(ctx)
	return settings, err
}

func (r *settingsRepository) SetEnabled(ctx context.Context, enabled bool) error {
	_, err := r.db.NewUpdate().
		Model((*models.ChallengeSettings)(nil)).
		Set("enabled = ?", enabled).
		Where("id = ?", models.SettingsRowID).
		Exec(ctx)
	if err != nil {
		return err
	}

	r.invalidate()
	return nil
}

func (r *settingsRepository) SetAnnouncementChannel(ctx context.Context, channelID snowflake.ID) error {
	_, err := r.db.NewUpdate().
		Model((*models.ChallengeSettings)(nil)).
		Set("announcement_channel_id = ?", channelID).
		Where("id = ?", models.SettingsRowID).
		Exec(ctx)
	if err != nil {
		return err
	}

	r.invalidate()
	return nil
}

func (r *settingsRepository) invalidate() {
	r.mu.Lock()
	r.cached = nil
	r.mu.Unlock()
}

package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/challengedex/challenge-bot/challengedex/database/models"
	"github.com/disgoorg/snowflake/v2"
)

type fakeChallengeRepo struct {
	mu         sync.Mutex
	challenges map[int64]*models.Challenge
}

func newFakeChallengeRepo(challenges ...*models.Challenge) *fakeChallengeRepo {
	repo := &fakeChallengeRepo{challenges: make(map[int64]*models.Challenge)}
	for _, c := range challenges {
		repo.challenges[c.ID] = c
	}
	return repo
}

func (r *fakeChallengeRepo) Create(_ context.Context, challenge *models.Challenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	challenge.ID = int64(len(r.challenges) + 1)
	r.challenges[challenge.ID] = challenge
	return nil
}

func (r *fakeChallengeRepo) GetByID(_ context.Context, id int64) (*models.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	challenge, ok := r.challenges[id]
	if !ok {
		return nil, fmt.Errorf("challenge %d missing", id)
	}
	copied := *challenge
	return &copied, nil
}

func (r *fakeChallengeRepo) GetAll(_ context.Context) ([]*models.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*models.Challenge
	for _, c := range r.challenges {
		all = append(all, c)
	}
	return all, nil
}

func (r *fakeChallengeRepo) GetActive(_ context.Context) ([]*models.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var active []*models.Challenge
	for _, c := range r.challenges {
		if c.Active() {
			copied := *c
			active = append(active, &copied)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].ID < active[j].ID })
	return active, nil
}

func (r *fakeChallengeRepo) Matching(ctx context.Context, ev models.ContributionEvent) ([]*models.Challenge, error) {
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

func (r *fakeChallengeRepo) InvalidateActive() {}

func (r *fakeChallengeRepo) SetEnabled(_ context.Context, id int64, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.challenges[id].Enabled = enabled
	return nil
}

func (r *fakeChallengeRepo) MarkCompleted(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	challenge, ok := r.challenges[id]
	if !ok || challenge.Completed {
		return false, nil
	}
	challenge.Completed = true
	return true, nil
}

func (r *fakeChallengeRepo) Reopen(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.challenges[id].Completed = false
	return nil
}

type fakeProgressRepo struct {
	mu      sync.Mutex
	entries map[int64]map[string]int64
	// failFor injects a storage failure for a specific challenge id.
	failFor map[int64]error
}

func newFakeProgressRepo() *fakeProgressRepo {
	return &fakeProgressRepo{
		entries: make(map[int64]map[string]int64),
		failFor: make(map[int64]error),
	}
}

func (r *fakeProgressRepo) seed(challengeID int64, playerID string, amount int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries[challengeID] == nil {
		r.entries[challengeID] = make(map[string]int64)
	}
	r.entries[challengeID][playerID] += amount
}

func (r *fakeProgressRepo) Increment(_ context.Context, challengeID int64, playerID string, delta int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failFor[challengeID]; err != nil {
		return 0, err
	}
	if r.entries[challengeID] == nil {
		r.entries[challengeID] = make(map[string]int64)
	}
	r.entries[challengeID][playerID] += delta

	var total int64
	for _, amount := range r.entries[challengeID] {
		total += amount
	}
	return total, nil
}

func (r *fakeProgressRepo) Total(_ context.Context, challengeID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total int64
	for _, amount := range r.entries[challengeID] {
		total += amount
	}
	return total, nil
}

func (r *fakeProgressRepo) TopContributors(ctx context.Context, challengeID int64, limit int) ([]*models.ChallengeProgress, error) {
	entries, err := r.Contributors(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Amount != entries[j].Amount {
			return entries[i].Amount > entries[j].Amount
		}
		return entries[i].PlayerID < entries[j].PlayerID
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (r *fakeProgressRepo) Contributors(_ context.Context, challengeID int64) ([]*models.ChallengeProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var entries []*models.ChallengeProgress
	for playerID, amount := range r.entries[challengeID] {
		if amount > 0 {
			entries = append(entries, &models.ChallengeProgress{
				ChallengeID: challengeID,
				PlayerID:    playerID,
				Amount:      amount,
			})
		}
	}
	return entries, nil
}

type fakeRewardRepo struct {
	mu     sync.Mutex
	issued map[string]*models.ChallengeReward
}

func newFakeRewardRepo() *fakeRewardRepo {
	return &fakeRewardRepo{issued: make(map[string]*models.ChallengeReward)}
}

func rewardKey(challengeID int64, playerID string) string {
	return fmt.Sprintf("%d/%s", challengeID, playerID)
}

func (r *fakeRewardRepo) Issue(_ context.Context, reward *models.ChallengeReward) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := rewardKey(reward.ChallengeID, reward.PlayerID)
	if _, exists := r.issued[key]; exists {
		return false, nil
	}
	r.issued[key] = reward
	return true, nil
}

func (r *fakeRewardRepo) GetForChallenge(_ context.Context, challengeID int64) ([]*models.ChallengeReward, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rewards []*models.ChallengeReward
	for _, reward := range r.issued {
		if reward.ChallengeID == challengeID {
			rewards = append(rewards, reward)
		}
	}
	return rewards, nil
}

func (r *fakeRewardRepo) CountForChallenge(ctx context.Context, challengeID int64) (int, error) {
	rewards, _ := r.GetForChallenge(ctx, challengeID)
	return len(rewards), nil
}

func (r *fakeRewardRepo) ClearForChallenge(_ context.Context, challengeID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var cleared int64
	for key, reward := range r.issued {
		if reward.ChallengeID == challengeID {
			delete(r.issued, key)
			cleared++
		}
	}
	return cleared, nil
}

type fakeSettingsRepo struct {
	mu       sync.Mutex
	settings models.ChallengeSettings
}

func newFakeSettingsRepo(enabled bool) *fakeSettingsRepo {
	return &fakeSettingsRepo{settings: models.ChallengeSettings{ID: models.SettingsRowID, Enabled: enabled}}
}

func (r *fakeSettingsRepo) Load(_ context.Context) (*models.ChallengeSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := r.settings
	return &copied, nil
}

func (r *fakeSettingsRepo) SetEnabled(_ context.Context, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings.Enabled = enabled
	return nil
}

func (r *fakeSettingsRepo) SetAnnouncementChannel(_ context.Context, channelID snowflake.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings.AnnouncementChannelID = channelID
	return nil
}

type fakeDexRepo struct {
	count int64
	names map[string]int64
}

func (r *fakeDexRepo) LiveCount(_ context.Context, _ *int64) (int64, error) {
	return r.count, nil
}

func (r *fakeDexRepo) BallIDByName(_ context.Context, name string) (*int64, error) {
	if id, ok := r.names[name]; ok {
		return &id, nil
	}
	return nil, nil
}

type countingAnnouncer struct {
	calls atomic.Int64
	err   error
}

func (a *countingAnnouncer) ChallengeCompleted(_ context.Context, _ *models.Challenge, _ int) error {
	a.calls.Add(1)
	return a.err
}

type countingFulfiller struct {
	calls atomic.Int64
}

func (f *countingFulfiller) Fulfill(_ context.Context, _ *models.ChallengeReward) error {
	f.calls.Add(1)
	return nil
}

package services

import (
	"context"
	"errors"
	"testing"

	"github.com/challengedex/challenge-bot/challengedex/database/models"
)

func ballID(id int64) *int64 { return &id }

func newTestEngine(challenges *fakeChallengeRepo, progress *fakeProgressRepo, settings *fakeSettingsRepo, dex *fakeDexRepo) (*ProgressEngine, *countingAnnouncer) {
	announcer := &countingAnnouncer{}
	coordinator := NewCompletionCoordinator(challenges, progress, newFakeRewardRepo(), announcer, &countingFulfiller{})
	engine := NewProgressEngine(challenges, progress, settings, dex, coordinator)
	return engine, announcer
}

func Test_ProgressEngine_Apply_matching(t *testing.T) {
	anyCatch := &models.Challenge{
		ID: 1, Type: models.ChallengeTypeCatch, TargetAmount: 100, Enabled: true,
	}
	filteredCatch := &models.Challenge{
		ID: 2, Type: models.ChallengeTypeCatch, BallID: ballID(5), TargetAmount: 100, Enabled: true,
	}
	trades := &models.Challenge{
		ID: 3, Type: models.ChallengeTypeTrade, TargetAmount: 100, Enabled: true,
	}
	disabled := &models.Challenge{
		ID: 4, Type: models.ChallengeTypeCatch, TargetAmount: 100, Enabled: false,
	}

	tests := []struct {
		name       string
		ev         models.ContributionEvent
		wantTotals map[int64]int64
	}{
		{
			name:       "catch of the filtered ball counts for both catch challenges",
			ev:         models.ContributionEvent{PlayerID: "alice", Kind: models.ChallengeTypeCatch, BallID: ballID(5), Amount: 1},
			wantTotals: map[int64]int64{1: 1, 2: 1, 3: 0, 4: 0},
		},
		{
			name:       "catch of another ball only counts for the unfiltered challenge",
			ev:         models.ContributionEvent{PlayerID: "alice", Kind: models.ChallengeTypeCatch, BallID: ballID(9), Amount: 1},
			wantTotals: map[int64]int64{1: 1, 2: 0, 3: 0, 4: 0},
		},
		{
			name:       "unresolved ball does not satisfy a ball filter",
			ev:         models.ContributionEvent{PlayerID: "alice", Kind: models.ChallengeTypeCatch, Amount: 1},
			wantTotals: map[int64]int64{1: 1, 2: 0, 3: 0, 4: 0},
		},
		{
			name:       "trade only counts for the trade challenge",
			ev:         models.ContributionEvent{PlayerID: "bob", Kind: models.ChallengeTypeTrade, Amount: 1},
			wantTotals: map[int64]int64{1: 0, 2: 0, 3: 1, 4: 0},
		},
		{
			name:       "zero amount defaults to one",
			ev:         models.ContributionEvent{PlayerID: "bob", Kind: models.ChallengeTypeTrade},
			wantTotals: map[int64]int64{1: 0, 2: 0, 3: 1, 4: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, f, tr, d := *anyCatch, *filteredCatch, *trades, *disabled
			challengeRepo := newFakeChallengeRepo(&a, &f, &tr, &d)
			progressRepo := newFakeProgressRepo()
			engine, _ := newTestEngine(challengeRepo, progressRepo, newFakeSettingsRepo(true), &fakeDexRepo{})

			if err := engine.Apply(context.Background(), tt.ev); err != nil {
				t.Fatalf("Apply() error = %v", err)
			}

			for challengeID, want := range tt.wantTotals {
				got, _ := progressRepo.Total(context.Background(), challengeID)
				if got != want {
					t.Errorf("challenge %d total = %d, want %d", challengeID, got, want)
				}
			}
		})
	}
}

func Test_ProgressEngine_Apply_masterSwitchOff(t *testing.T) {
	challenge := &models.Challenge{
		ID: 1, Type: models.ChallengeTypeCatch, TargetAmount: 100, Enabled: true,
	}
	challengeRepo := newFakeChallengeRepo(challenge)
	progressRepo := newFakeProgressRepo()
	engine, _ := newTestEngine(challengeRepo, progressRepo, newFakeSettingsRepo(false), &fakeDexRepo{})

	ev := models.ContributionEvent{PlayerID: "alice", Kind: models.ChallengeTypeCatch, Amount: 1}
	if err := engine.Apply(context.Background(), ev); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	total, _ := progressRepo.Total(context.Background(), 1)
	if total != 0 {
		t.Errorf("total = %d, want 0 when the system is disabled", total)
	}
}

func Test_ProgressEngine_Apply_missingPlayer(t *testing.T) {
	engine, _ := newTestEngine(newFakeChallengeRepo(), newFakeProgressRepo(), newFakeSettingsRepo(true), &fakeDexRepo{})

	err := engine.Apply(context.Background(), models.ContributionEvent{Kind: models.ChallengeTypeCatch})
	if err == nil {
		t.Error("Apply() should reject an event without a player id")
	}
}

func Test_ProgressEngine_Apply_failOpen(t *testing.T) {
	broken := &models.Challenge{
		ID: 1, Type: models.ChallengeTypeCatch, TargetAmount: 100, Enabled: true,
	}
	healthy := &models.Challenge{
		ID: 2, Type: models.ChallengeTypeCatch, TargetAmount: 100, Enabled: true,
	}
	challengeRepo := newFakeChallengeRepo(broken, healthy)
	progressRepo := newFakeProgressRepo()
	progressRepo.failFor[1] = errors.New("connection reset")
	engine, _ := newTestEngine(challengeRepo, progressRepo, newFakeSettingsRepo(true), &fakeDexRepo{})

	ev := models.ContributionEvent{PlayerID: "alice", Kind: models.ChallengeTypeCatch, Amount: 1}
	err := engine.Apply(context.Background(), ev)
	if err == nil {
		t.Error("Apply() should surface the broken challenge's error")
	}

	total, _ := progressRepo.Total(context.Background(), 2)
	if total != 1 {
		t.Errorf("healthy challenge total = %d, want 1 despite the other failing", total)
	}
}

func Test_ProgressEngine_Apply_completesOnThreshold(t *testing.T) {
	challenge := &models.Challenge{
		ID: 1, Type: models.ChallengeTypeCatch, TargetAmount: 3, Enabled: true,
	}
	challengeRepo := newFakeChallengeRepo(challenge)
	progressRepo := newFakeProgressRepo()
	engine, announcer := newTestEngine(challengeRepo, progressRepo, newFakeSettingsRepo(true), &fakeDexRepo{})

	ev := models.ContributionEvent{PlayerID: "alice", Kind: models.ChallengeTypeCatch, Amount: 1}
	for i := 0; i < 3; i++ {
		if err := engine.Apply(context.Background(), ev); err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
	}

	if got := announcer.calls.Load(); got != 1 {
		t.Errorf("announcer calls = %d, want 1", got)
	}

	// Completed challenges no longer match, so further events change nothing.
	if err := engine.Apply(context.Background(), ev); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	total, _ := progressRepo.Total(context.Background(), 1)
	if total != 3 {
		t.Errorf("total = %d, want 3 after completion", total)
	}
}

func Test_ProgressEngine_snapshot(t *testing.T) {
	ownership := &models.Challenge{
		ID: 1, Type: models.ChallengeTypeOwnership, BallID: ballID(5), TargetAmount: 10, Enabled: true,
	}
	challengeRepo := newFakeChallengeRepo(ownership)
	progressRepo := newFakeProgressRepo()
	dex := &fakeDexRepo{count: 9}
	engine, announcer := newTestEngine(challengeRepo, progressRepo, newFakeSettingsRepo(true), dex)

	// Catch events still record leaderboard entries but never complete a
	// snapshot challenge.
	ev := models.ContributionEvent{PlayerID: "alice", Kind: models.ChallengeTypeCatch, BallID: ballID(5), Amount: 1}
	for i := 0; i < 20; i++ {
		if err := engine.Apply(context.Background(), ev); err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
	}
	if got := announcer.calls.Load(); got != 0 {
		t.Errorf("announcer calls = %d, want 0 before the live count reaches the target", got)
	}

	total, err := engine.RefreshSnapshot(context.Background(), ownership)
	if err != nil {
		t.Fatalf("RefreshSnapshot() error = %v", err)
	}
	if total != 9 {
		t.Errorf("RefreshSnapshot() total = %d, want 9", total)
	}
	if got := announcer.calls.Load(); got != 0 {
		t.Errorf("announcer calls = %d, want 0 below target", got)
	}

	dex.count = 10
	if _, err := engine.RefreshSnapshot(context.Background(), ownership); err != nil {
		t.Fatalf("RefreshSnapshot() error = %v", err)
	}
	if got := announcer.calls.Load(); got != 1 {
		t.Errorf("announcer calls = %d, want 1 once the live count reaches the target", got)
	}
}

func Test_ProgressEngine_RefreshSnapshot_wrongKind(t *testing.T) {
	catch := &models.Challenge{
		ID: 1, Type: models.ChallengeTypeCatch, TargetAmount: 10, Enabled: true,
	}
	engine, _ := newTestEngine(newFakeChallengeRepo(catch), newFakeProgressRepo(), newFakeSettingsRepo(true), &fakeDexRepo{})

	if _, err := engine.RefreshSnapshot(context.Background(), catch); err == nil {
		t.Error("RefreshSnapshot() should reject accumulated challenges")
	}
}

func Test_ProgressEngine_CurrentTotal(t *testing.T) {
	accumulated := &models.Challenge{
		ID: 1, Type: models.ChallengeTypeCatch, TargetAmount: 100, Enabled: true,
	}
	snapshot := &models.Challenge{
		ID: 2, Type: models.ChallengeTypeOwnership, TargetAmount: 100, Enabled: true,
	}
	challengeRepo := newFakeChallengeRepo(accumulated, snapshot)
	progressRepo := newFakeProgressRepo()
	progressRepo.seed(1, "alice", 42)
	engine, _ := newTestEngine(challengeRepo, progressRepo, newFakeSettingsRepo(true), &fakeDexRepo{count: 7})

	got, err := engine.CurrentTotal(context.Background(), accumulated)
	if err != nil {
		t.Fatalf("CurrentTotal() error = %v", err)
	}
	if got != 42 {
		t.Errorf("accumulated total = %d, want 42", got)
	}

	got, err = engine.CurrentTotal(context.Background(), snapshot)
	if err != nil {
		t.Fatalf("CurrentTotal() error = %v", err)
	}
	if got != 7 {
		t.Errorf("snapshot total = %d, want 7", got)
	}
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/challengedex/challenge-bot/challengedex/database/models"
	"github.com/challengedex/challenge-bot/challengedex/database/repositories"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
)

// Announcer is notified once per successful completion. Implementations may
// fail; the coordinator logs and moves on, completion is never rolled back.
type Announcer interface {
	ChallengeCompleted(ctx context.Context, challenge *models.Challenge, rewardedCount int) error
}

// RewardFulfiller is the hook invoked for every newly created ledger row. The
// ledger entry is the contract; actual granting of balls lives with the dex bot.
type RewardFulfiller interface {
	Fulfill(ctx context.Context, reward *models.ChallengeReward) error
}

// DiscordAnnouncer posts a completion embed to the configured channel.
type DiscordAnnouncer struct {
	client   bot.Client
	settings repositories.SettingsRepository
}

func NewDiscordAnnouncer(settings repositories.SettingsRepository) *DiscordAnnouncer {
	return &DiscordAnnouncer{settings: settings}
}

// SetClient is called once the gateway client exists; the announcer is wired
// into the coordinator before the client is built.
func (a *DiscordAnnouncer) SetClient(client bot.Client) {
	a.client = client
}

func (a *DiscordAnnouncer) ChallengeCompleted(ctx context.Context, challenge *models.Challenge, rewardedCount int) error {
	if a.client == nil {
		return fmt.Errorf("announcer has no client")
	}

	settings, err := a.settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load announcement settings: %w", err)
	}

	if settings.AnnouncementChannelID == 0 {
		slog.Debug("No announcement channel configured, skipping completion announcement",
			slog.Int64("challenge_id", challenge.ID))
		return nil
	}

	description := fmt.Sprintf("The community has completed **%s**!\n\n", challenge.Name)
	if challenge.Description != "" {
		description += challenge.Description + "\n\n"
	}
	description += fmt.Sprintf("🎯 Target reached: **%d**\n", challenge.TargetAmount)
	if challenge.RewardBalls > 0 {
		description += fmt.Sprintf("🎁 **%d** contributor%s rewarded with **%d** ball%s each!",
			rewardedCount, pluralize(rewardedCount),
			challenge.RewardBalls, pluralize(challenge.RewardBalls))
	}

	embed := discord.NewEmbedBuilder().
		SetTitle("🏆 Community Challenge Complete!").
		SetDescription(description).
		SetColor(0xf1c40f).
		SetTimestamp(time.Now()).
		Build()

	_, err = a.client.Rest().CreateMessage(settings.AnnouncementChannelID, discord.MessageCreate{
		Embeds: []discord.Embed{embed},
	})
	return err
}

// LogFulfiller is the default fulfillment hook: it only records the issuance.
type LogFulfiller struct{}

func (LogFulfiller) Fulfill(_ context.Context, reward *models.ChallengeReward) error {
	slog.Info("Reward issued",
		slog.String("type", "engine"),
		slog.Int64("challenge_id", reward.ChallengeID),
		slog.String("player_id", reward.PlayerID),
		slog.Int("balls", reward.BallsGiven))
	return nil
}

func pluralize(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

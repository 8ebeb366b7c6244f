package challengedex

import (
	"context"
	"log/slog"
	"time"

	"github.com/challengedex/challenge-bot/challengedex/classifier"
	"github.com/challengedex/challenge-bot/challengedex/database"
	"github.com/challengedex/challenge-bot/challengedex/database/repositories"
	"github.com/challengedex/challenge-bot/challengedex/services"
	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/cache"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/paginator"
)

func New(cfg Config, version string, commit string) *Bot {
	return &Bot{
		Cfg:       cfg,
		Paginator: paginator.New(),
		Version:   version,
		Commit:    commit,
	}
}

type Bot struct {
	Cfg                 Config
	Client              bot.Client
	Paginator           *paginator.Manager
	Version             string
	Commit              string
	DB                  *database.DB
	ChallengeRepository repositories.ChallengeRepository
	ProgressRepository  repositories.ProgressRepository
	RewardRepository    repositories.RewardRepository
	SettingsRepository  repositories.SettingsRepository
	DexRepository       repositories.DexRepository
	Classifier          classifier.EventClassifier
	ProgressEngine      *services.ProgressEngine
	Coordinator         *services.CompletionCoordinator
}

func (b *Bot) SetupBot(listeners ...bot.EventListener) error {
	client, err := disgo.New(b.Cfg.Bot.Token,
		bot.WithGatewayConfigOpts(gateway.WithIntents(gateway.IntentGuilds, gateway.IntentGuildMessages, gateway.IntentMessageContent)),
		bot.WithCacheConfigOpts(cache.WithCaches(cache.FlagGuilds)),
		bot.WithEventListeners(b.Paginator),
		bot.WithEventListeners(listeners...),
	)
	if err != nil {
		return err
	}

	b.Client = client
	return nil
}

func (b *Bot) OnReady(_ *events.Ready) {
	slog.Info("ChallengeDex is now ready",
		slog.String("version", b.Version),
		slog.String("commit", b.Commit))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := b.Client.SetPresence(ctx,
		gateway.WithWatchingActivity("the community catch 'em all"),
		gateway.WithOnlineStatus(discord.OnlineStatusOnline)); err != nil {
		slog.Error("Failed to set presence", slog.Any("error", err))
	}
}

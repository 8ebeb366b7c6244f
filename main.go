package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/challengedex/challenge-bot/challengedex"
	"github.com/challengedex/challenge-bot/challengedex/classifier"
	"github.com/challengedex/challenge-bot/challengedex/commands"
	"github.com/challengedex/challenge-bot/challengedex/commands/admin"
	"github.com/challengedex/challenge-bot/challengedex/database"
	"github.com/challengedex/challenge-bot/challengedex/database/repositories"
	"github.com/challengedex/challenge-bot/challengedex/handlers"
	"github.com/challengedex/challenge-bot/challengedex/logger"
	"github.com/challengedex/challenge-bot/challengedex/services"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/handler"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	customHandler := logger.NewHandler()
	slog.SetDefault(slog.New(customHandler))

	slog.Info("Starting ChallengeDex Discord Bot",
		slog.String("version", version),
		slog.String("commit", commit))

	shouldSyncCommands := flag.Bool("sync-commands", false, "Whether to sync commands to discord")
	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	cfg, err := challengedex.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}
	slog.Info("Configuration loaded successfully")

	slog.Info("Initializing database connection...")
	dbStartTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	dbConfig := database.DBConfig{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		Database: cfg.DB.Database,
		PoolSize: cfg.DB.PoolSize,
	}

	db, err := database.New(ctx, dbConfig)
	if err != nil {
		slog.Error("Database connection failed",
			slog.String("error", err.Error()),
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}

	slog.Info("Database connected successfully",
		slog.String("database", cfg.DB.Database),
		slog.Duration("took", time.Since(dbStartTime)))

	slog.Info("Initializing database schema...")
	if err := db.InitializeSchema(ctx); err != nil {
		slog.Error("Failed to initialize database schema",
			slog.String("error", err.Error()),
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}
	slog.Info("Database schema initialized successfully")

	defer db.Close()

	b := challengedex.New(*cfg, version, commit)
	b.DB = db

	// Repositories
	activeCacheTTL := time.Duration(cfg.Challenges.ActiveCacheSeconds) * time.Second
	b.ChallengeRepository = repositories.NewChallengeRepository(db.BunDB(), activeCacheTTL)
	b.ProgressRepository = repositories.NewProgressRepository(db.BunDB())
	b.RewardRepository = repositories.NewRewardRepository(db.BunDB())
	b.SettingsRepository = repositories.NewSettingsRepository(db.BunDB(), cfg.Challenges.AnnouncementChannelID)
	b.DexRepository = repositories.NewDexRepository(db.BunDB())

	// Challenge engine
	announcer := services.NewDiscordAnnouncer(b.SettingsRepository)
	b.Coordinator = services.NewCompletionCoordinator(
		b.ChallengeRepository,
		b.ProgressRepository,
		b.RewardRepository,
		announcer,
		services.LogFulfiller{},
	)
	b.ProgressEngine = services.NewProgressEngine(
		b.ChallengeRepository,
		b.ProgressRepository,
		b.SettingsRepository,
		b.DexRepository,
		b.Coordinator,
	)
	b.Classifier = classifier.NewDexMessageClassifier(cfg.Challenges.DexBotID, b.DexRepository)

	slog.Info("Challenge engine initialized",
		slog.String("type", "engine"),
		slog.String("dex_bot_id", cfg.Challenges.DexBotID.String()))

	h := handler.New()

	// Player commands
	h.Command("/challenges", handlers.WrapWithLogging("challenges", commands.ChallengesHandler(b)))
	h.Command("/contributors", handlers.WrapWithLogging("contributors", commands.ContributorsHandler(b)))
	h.Autocomplete("/contributors", commands.ChallengeAutocomplete(b))
	h.Command("/version", commands.VersionHandler(b))

	// Admin commands
	h.Command("/challenge-admin", handlers.WrapWithLogging("challenge-admin", admin.ChallengeAdminHandler(b)))
	h.Autocomplete("/challenge-admin", commands.ChallengeAutocomplete(b))

	if err = b.SetupBot(h, bot.NewListenerFunc(b.OnReady), handlers.NewMessageHandler(b)); err != nil {
		slog.Error("Failed to setup bot",
			slog.String("type", "sys"),
			slog.Any("error", err),
			slog.String("error_details", fmt.Sprintf("%+v", err)),
			slog.String("component", "bot_setup"),
			slog.String("status", "failed"),
		)
		os.Exit(-1)
	}
	announcer.SetClient(b.Client)

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		b.Client.Close(ctx)
	}()

	if *shouldSyncCommands {
		slog.Info("Syncing commands",
			slog.String("type", "sys"),
			slog.Any("guild_ids", cfg.Bot.DevGuilds),
		)
		if err = handler.SyncCommands(b.Client, commands.Commands, cfg.Bot.DevGuilds); err != nil {
			slog.Error("Failed to sync commands",
				slog.String("type", "sys"),
				slog.Any("error", err),
				slog.String("error_details", fmt.Sprintf("%+v", err)),
				slog.String("component", "command_sync"),
				slog.String("status", "failed"),
			)
		}
	}

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = b.Client.OpenGateway(ctx); err != nil {
		slog.Error("Failed to open gateway",
			slog.String("type", "sys"),
			slog.Any("error", err),
			slog.String("error_details", fmt.Sprintf("%+v", err)),
			slog.String("component", "gateway"),
			slog.String("status", "failed"),
		)
		os.Exit(-1)
	}

	slog.Info("Bot is running. Press CTRL-C to exit.")
	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)
	<-s
	slog.Info("Shutting down bot...")
}

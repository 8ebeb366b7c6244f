package admin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/challengedex/challenge-bot/challengedex"
	"github.com/challengedex/challenge-bot/challengedex/database/models"
	"github.com/challengedex/challenge-bot/challengedex/utils"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/json"
)

var ChallengeAdmin = discord.SlashCommandCreate{
	Name:                     "challenge-admin",
	Description:              "Manage community challenges",
	DefaultMemberPermissions: json.NewNullablePtr(discord.PermissionManageGuild),
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        "create",
			Description: "Create a new challenge",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "name",
					Description: "Challenge name",
					Required:    true,
				},
				discord.ApplicationCommandOptionString{
					Name:        "type",
					Description: "What kind of action counts toward the target",
					Required:    true,
					Choices: []discord.ApplicationCommandOptionChoiceString{
						{Name: "🎯 Catches", Value: models.ChallengeTypeCatch},
						{Name: "🔄 Trades", Value: models.ChallengeTypeTrade},
						{Name: "❌ Wrong guesses", Value: models.ChallengeTypeWrongGuess},
						{Name: "📦 Total owned (live count)", Value: models.ChallengeTypeOwnership},
					},
				},
				discord.ApplicationCommandOptionInt{
					Name:        "target",
					Description: "The shared amount the community must reach",
					Required:    true,
					MinValue:    utils.Ptr(1),
				},
				discord.ApplicationCommandOptionString{
					Name:        "description",
					Description: "Shown in the challenge list",
					Required:    false,
				},
				discord.ApplicationCommandOptionInt{
					Name:        "ball",
					Description: "Restrict to a single ball id (omit to count them all)",
					Required:    false,
				},
				discord.ApplicationCommandOptionInt{
					Name:        "reward",
					Description: "Balls given to every contributor on completion",
					Required:    false,
					MinValue:    utils.Ptr(0),
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "enable",
			Description: "Enable a challenge",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionInt{
					Name:         "challenge",
					Description:  "The challenge to enable",
					Required:     true,
					Autocomplete: true,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "disable",
			Description: "Disable a challenge without deleting its progress",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionInt{
					Name:         "challenge",
					Description:  "The challenge to disable",
					Required:     true,
					Autocomplete: true,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "reopen",
			Description: "Reopen a completed challenge",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionInt{
					Name:         "challenge",
					Description:  "The challenge to reopen",
					Required:     true,
					Autocomplete: true,
				},
				discord.ApplicationCommandOptionBool{
					Name:        "clear_ledger",
					Description: "Also clear the reward ledger so contributors can be rewarded again",
					Required:    true,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "channel",
			Description: "Set the completion announcement channel",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionChannel{
					Name:        "channel",
					Description: "Where completion announcements are posted",
					Required:    true,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "toggle",
			Description: "Turn the whole challenge system on or off",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionBool{
					Name:        "enabled",
					Description: "Whether contribution events are processed",
					Required:    true,
				},
			},
		},
	},
}

func ChallengeAdminHandler(b *challengedex.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		data := e.SlashCommandInteractionData()
		if data.SubCommandName == nil {
			return utils.EH.CreateErrorEmbed(e, "Missing subcommand.")
		}

		switch *data.SubCommandName {
		case "create":
			return handleCreate(ctx, b, e)
		case "enable":
			return handleSetEnabled(ctx, b, e, true)
		case "disable":
			return handleSetEnabled(ctx, b, e, false)
		case "reopen":
			return handleReopen(ctx, b, e)
		case "channel":
			return handleChannel(ctx, b, e)
		case "toggle":
			return handleToggle(ctx, b, e)
		default:
			return utils.EH.CreateErrorEmbed(e, "Unknown subcommand.")
		}
	}
}

func handleCreate(ctx context.Context, b *challengedex.Bot, e *handler.CommandEvent) error {
	data := e.SlashCommandInteractionData()

	challenge := &models.Challenge{
		Name:         data.String("name"),
		Description:  data.String("description"),
		Type:         data.String("type"),
		TargetAmount: int64(data.Int("target")),
		RewardBalls:  data.Int("reward"),
		Enabled:      true,
	}
	if ballID, ok := data.OptInt("ball"); ok {
		id := int64(ballID)
		challenge.BallID = &id
	}

	if challenge.IsSnapshot() && challenge.BallID == nil {
		// An unfiltered live count spans every ball in the dex, which makes the
		// target meaningless for most servers. Allowed, but worth flagging.
		slog.Warn("Ownership challenge created without a ball filter",
			slog.String("type", "cmd"),
			slog.String("name", challenge.Name))
	}

	if err := b.ChallengeRepository.Create(ctx, challenge); err != nil {
		slog.Error("Failed to create challenge",
			slog.String("type", "db"),
			slog.String("name", challenge.Name),
			slog.Any("error", err))
		return utils.EH.CreateErrorEmbed(e, "Failed to create the challenge. Please try again.")
	}

	return e.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Title: "✅ Challenge Created",
			Description: fmt.Sprintf("**%s** `#%d`\nType: `%s` • Target: **%s**",
				challenge.Name, challenge.ID, challenge.Type, utils.FormatNumber(challenge.TargetAmount)),
			Color: utils.SuccessColor,
		}},
	})
}

func handleSetEnabled(ctx context.Context, b *challengedex.Bot, e *handler.CommandEvent, enabled bool) error {
	challengeID := int64(e.SlashCommandInteractionData().Int("challenge"))

	if err := b.ChallengeRepository.SetEnabled(ctx, challengeID, enabled); err != nil {
		return utils.EH.CreateErrorEmbed(e, fmt.Sprintf("Failed to update challenge `#%d`: %v", challengeID, err))
	}

	verb := "enabled"
	if !enabled {
		verb = "disabled"
	}
	return utils.EH.CreateSuccessEmbed(e, fmt.Sprintf("Challenge `#%d` is now %s.", challengeID, verb))
}

func handleReopen(ctx context.Context, b *challengedex.Bot, e *handler.CommandEvent) error {
	data := e.SlashCommandInteractionData()
	challengeID := int64(data.Int("challenge"))
	clearLedger := data.Bool("clear_ledger")

	if err := b.ChallengeRepository.Reopen(ctx, challengeID); err != nil {
		return utils.EH.CreateErrorEmbed(e, fmt.Sprintf("Failed to reopen challenge `#%d`: %v", challengeID, err))
	}

	message := fmt.Sprintf("Challenge `#%d` reopened. Past contributors keep their reward and won't be paid again.", challengeID)
	if clearLedger {
		cleared, err := b.RewardRepository.ClearForChallenge(ctx, challengeID)
		if err != nil {
			slog.Error("Failed to clear reward ledger",
				slog.String("type", "db"),
				slog.Int64("challenge_id", challengeID),
				slog.Any("error", err))
			return utils.EH.CreateErrorEmbed(e, "Challenge reopened, but clearing the reward ledger failed.")
		}
		message = fmt.Sprintf("Challenge `#%d` reopened and %d ledger entries cleared. Contributors will be rewarded again on the next completion.", challengeID, cleared)
	}

	slog.Info("Challenge reopened",
		slog.String("type", "cmd"),
		slog.String("admin_id", e.User().ID.String()),
		slog.Int64("challenge_id", challengeID),
		slog.Bool("clear_ledger", clearLedger))

	return utils.EH.CreateSuccessEmbed(e, message)
}

func handleChannel(ctx context.Context, b *challengedex.Bot, e *handler.CommandEvent) error {
	channel := e.SlashCommandInteractionData().Channel("channel")

	if err := b.SettingsRepository.SetAnnouncementChannel(ctx, channel.ID); err != nil {
		return utils.EH.CreateErrorEmbed(e, "Failed to update the announcement channel.")
	}

	return utils.EH.CreateSuccessEmbed(e, fmt.Sprintf("Completion announcements will be posted in <#%s>.", channel.ID))
}

func handleToggle(ctx context.Context, b *challengedex.Bot, e *handler.CommandEvent) error {
	enabled := e.SlashCommandInteractionData().Bool("enabled")

	if err := b.SettingsRepository.SetEnabled(ctx, enabled); err != nil {
		return utils.EH.CreateErrorEmbed(e, "Failed to update the challenge system switch.")
	}

	if enabled {
		return utils.EH.CreateSuccessEmbed(e, "Challenge system enabled. Contribution events are being processed.")
	}
	return utils.EH.CreateSuccessEmbed(e, "Challenge system disabled. Incoming events will be ignored.")
}

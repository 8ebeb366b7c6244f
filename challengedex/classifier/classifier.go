package classifier

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/challengedex/challenge-bot/challengedex/database/models"
	"github.com/challengedex/challenge-bot/challengedex/database/repositories"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
)

// EventClassifier turns raw Discord messages into contribution events. A
// message can yield zero events (irrelevant chatter) or several (a trade
// credits both parties).
type EventClassifier interface {
	Classify(ctx context.Context, message discord.Message) []models.ContributionEvent
}

var (
	// "<@123456> You caught **Wolfie!** (`#1A2B`)"
	catchPattern = regexp.MustCompile(`<@!?(\d+)> You caught \*\*(.+?)!\*\*`)
	// "<@123456> Wrong name!"
	wrongGuessPattern = regexp.MustCompile(`<@!?(\d+)> Wrong name!`)
	// "Trade concluded between <@123> and <@456>"
	tradePattern = regexp.MustCompile(`Trade concluded between <@!?(\d+)> and <@!?(\d+)>`)
)

// DexMessageClassifier scrapes the watched dex bot's public messages. The dex
// bot offers no event API, so its human-readable catch, wrong-guess and trade
// messages are the only signal available.
type DexMessageClassifier struct {
	dexBotID snowflake.ID
	dex      repositories.DexRepository
}

func NewDexMessageClassifier(dexBotID snowflake.ID, dex repositories.DexRepository) *DexMessageClassifier {
	return &DexMessageClassifier{
		dexBotID: dexBotID,
		dex:      dex,
	}
}

func (c *DexMessageClassifier) Classify(ctx context.Context, message discord.Message) []models.ContributionEvent {
	if message.Author.ID != c.dexBotID {
		return nil
	}

	content := messageText(message)
	if content == "" {
		return nil
	}

	if m := catchPattern.FindStringSubmatch(content); m != nil {
		return []models.ContributionEvent{{
			PlayerID: m[1],
			Kind:     models.ChallengeTypeCatch,
			BallID:   c.resolveBall(ctx, m[2]),
			Amount:   1,
		}}
	}

	if m := wrongGuessPattern.FindStringSubmatch(content); m != nil {
		return []models.ContributionEvent{{
			PlayerID: m[1],
			Kind:     models.ChallengeTypeWrongGuess,
			Amount:   1,
		}}
	}

	if m := tradePattern.FindStringSubmatch(content); m != nil {
		events := []models.ContributionEvent{{
			PlayerID: m[1],
			Kind:     models.ChallengeTypeTrade,
			Amount:   1,
		}}
		if m[2] != m[1] {
			events = append(events, models.ContributionEvent{
				PlayerID: m[2],
				Kind:     models.ChallengeTypeTrade,
				Amount:   1,
			})
		}
		return events
	}

	return nil
}

// resolveBall maps the scraped display name onto a ball id. Resolution
// failures degrade the event to an unfiltered one rather than dropping it;
// ball-filtered challenges simply won't match it.
func (c *DexMessageClassifier) resolveBall(ctx context.Context, name string) *int64 {
	if c.dex == nil {
		return nil
	}

	id, err := c.dex.BallIDByName(ctx, name)
	if err != nil {
		slog.Warn("Ball name resolution failed",
			slog.String("type", "engine"),
			slog.String("name", name),
			slog.Any("error", err))
		return nil
	}
	return id
}

// messageText flattens content plus embed titles and descriptions, since the
// dex bot moves some notices into embeds.
func messageText(message discord.Message) string {
	parts := make([]string, 0, 1+2*len(message.Embeds))
	if message.Content != "" {
		parts = append(parts, message.Content)
	}
	for _, embed := range message.Embeds {
		if embed.Title != "" {
			parts = append(parts, embed.Title)
		}
		if embed.Description != "" {
			parts = append(parts, embed.Description)
		}
	}
	return strings.Join(parts, "\n")
}

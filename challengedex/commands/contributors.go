package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/challengedex/challenge-bot/challengedex"
	"github.com/challengedex/challenge-bot/challengedex/database/models"
	"github.com/challengedex/challenge-bot/challengedex/utils"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/paginator"
	"github.com/sahilm/fuzzy"
)

const contributorFetchLimit = 100

var Contributors = discord.SlashCommandCreate{
	Name:        "contributors",
	Description: "📊 View the top contributors of a challenge",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionInt{
			Name:         "challenge",
			Description:  "The challenge to show the leaderboard for",
			Required:     true,
			Autocomplete: true,
		},
	},
}

func ContributorsHandler(b *challengedex.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		challengeID := int64(e.SlashCommandInteractionData().Int("challenge"))

		challenge, err := b.ChallengeRepository.GetByID(ctx, challengeID)
		if err != nil {
			return utils.EH.CreateErrorEmbed(e, fmt.Sprintf("Challenge `#%d` was not found.", challengeID))
		}

		entries, err := b.ProgressEngine.TopContributors(ctx, challenge, contributorFetchLimit)
		if err != nil {
			return utils.EH.CreateErrorEmbed(e, "Failed to load the leaderboard. Please try again.")
		}

		if len(entries) == 0 {
			return utils.EH.CreateInfoEmbed(e, fmt.Sprintf("Nobody has contributed to **%s** yet. Be the first!", challenge.Name))
		}

		total, err := b.ProgressEngine.CurrentTotal(ctx, challenge)
		if err != nil {
			total = 0
		}

		totalPages := int(math.Ceil(float64(len(entries)) / float64(utils.ContributorsPerPage)))

		return b.Paginator.Create(e.Respond, paginator.Pages{
			ID:      e.ID().String(),
			Creator: e.User().ID,
			PageFunc: func(page int, embed *discord.EmbedBuilder) {
				startIdx := page * utils.ContributorsPerPage
				endIdx := min(startIdx+utils.ContributorsPerPage, len(entries))

				var description strings.Builder
				description.WriteString(fmt.Sprintf("%s %s/%s (%d%%)\n\n",
					utils.ProgressBar(challenge.ProgressPercent(total)),
					utils.FormatNumber(total),
					utils.FormatNumber(challenge.TargetAmount),
					challenge.ProgressPercent(total)))

				for i, entry := range entries[startIdx:endIdx] {
					rank := startIdx + i + 1
					description.WriteString(fmt.Sprintf("%s <@%s> • **%s**\n",
						utils.MedalForRank(rank),
						entry.PlayerID,
						utils.FormatNumber(entry.Amount)))
				}

				embed.SetTitle(fmt.Sprintf("📊 %s", challenge.Name)).
					SetDescription(description.String()).
					SetColor(utils.InfoColor).
					SetFooter(fmt.Sprintf("Page %d/%d • %d contributor(s)", page+1, totalPages, len(entries)), "")
			},
			Pages:      totalPages,
			ExpireMode: paginator.ExpireModeAfterLastUsage,
		}, false)
	}
}

// challengeSource adapts a challenge list for fuzzy matching by name.
type challengeSource []*models.Challenge

func (s challengeSource) String(i int) string { return s[i].Name }
func (s challengeSource) Len() int            { return len(s) }

// ChallengeAutocomplete suggests challenges by fuzzy name match. Shared by
// every command with a "challenge" option.
func ChallengeAutocomplete(b *challengedex.Bot) handler.AutocompleteHandler {
	return func(e *handler.AutocompleteEvent) error {
		focused := e.Data.Focused()
		if focused.Name != "challenge" {
			return nil
		}

		searchTerm := ""
		if focused.Value != nil {
			var s string
			if err := json.Unmarshal(focused.Value, &s); err == nil {
				searchTerm = strings.TrimSpace(s)
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		challenges, err := b.ChallengeRepository.GetAll(ctx)
		if err != nil {
			slog.Error("Failed to load challenges for autocomplete",
				slog.String("type", "cmd"),
				slog.Any("error", err))
			return e.AutocompleteResult([]discord.AutocompleteChoice{})
		}

		if searchTerm != "" {
			matches := fuzzy.FindFrom(searchTerm, challengeSource(challenges))
			matched := make([]*models.Challenge, 0, len(matches))
			for _, match := range matches {
				matched = append(matched, challenges[match.Index])
			}
			challenges = matched
		}

		choices := make([]discord.AutocompleteChoice, 0, min(len(challenges), 25))
		for _, challenge := range challenges {
			if len(choices) == 25 {
				break
			}
			name := challenge.Name
			if challenge.Completed {
				name += " (completed)"
			}
			choices = append(choices, discord.AutocompleteChoiceInt{
				Name:  name,
				Value: int(challenge.ID),
			})
		}

		return e.AutocompleteResult(choices)
	}
}

package commands

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/challengedex/challenge-bot/challengedex"
	"github.com/challengedex/challenge-bot/challengedex/database/models"
	"github.com/challengedex/challenge-bot/challengedex/utils"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/paginator"
)

var Challenges = discord.SlashCommandCreate{
	Name:        "challenges",
	Description: "🏆 View the community challenges and their progress",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionBool{
			Name:        "all",
			Description: "Include disabled and completed challenges",
			Required:    false,
		},
	},
}

// challengeView pairs a challenge with the total resolved for display, so the
// paginator page function stays free of queries.
type challengeView struct {
	challenge *models.Challenge
	total     int64
}

func ChallengesHandler(b *challengedex.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		includeAll := e.SlashCommandInteractionData().Bool("all")

		var (
			challenges []*models.Challenge
			err        error
		)
		if includeAll {
			challenges, err = b.ChallengeRepository.GetAll(ctx)
		} else {
			challenges, err = b.ChallengeRepository.GetActive(ctx)
		}
		if err != nil {
			return utils.EH.CreateErrorEmbed(e, "Failed to load challenges. Please try again.")
		}

		if len(challenges) == 0 {
			return utils.EH.CreateInfoEmbed(e, "No challenges are running right now. Check back later!")
		}

		views := make([]challengeView, 0, len(challenges))
		for _, challenge := range challenges {
			total, err := b.ProgressEngine.CurrentTotal(ctx, challenge)
			if err != nil {
				// A broken total should not hide the whole list.
				total = 0
			}
			views = append(views, challengeView{challenge: challenge, total: total})
		}

		totalPages := int(math.Ceil(float64(len(views)) / float64(utils.ChallengesPerPage)))

		return b.Paginator.Create(e.Respond, paginator.Pages{
			ID:      e.ID().String(),
			Creator: e.User().ID,
			PageFunc: func(page int, embed *discord.EmbedBuilder) {
				startIdx := page * utils.ChallengesPerPage
				endIdx := min(startIdx+utils.ChallengesPerPage, len(views))

				var description strings.Builder
				for _, view := range views[startIdx:endIdx] {
					description.WriteString(formatChallengeEntry(view))
					description.WriteString("\n")
				}

				embed.SetTitle("🏆 Community Challenges").
					SetDescription(description.String()).
					SetColor(utils.InfoColor).
					SetFooter(fmt.Sprintf("Page %d/%d • %d challenge(s)", page+1, totalPages, len(views)), "")
			},
			Pages:      totalPages,
			ExpireMode: paginator.ExpireModeAfterLastUsage,
		}, false)
	}
}

func formatChallengeEntry(view challengeView) string {
	challenge := view.challenge

	status := "🟢"
	switch {
	case challenge.Completed:
		status = "✅"
	case !challenge.Enabled:
		status = "⏸️"
	}

	var entry strings.Builder
	entry.WriteString(fmt.Sprintf("%s **%s** `#%d`\n", status, challenge.Name, challenge.ID))
	if challenge.Description != "" {
		entry.WriteString(fmt.Sprintf("└ %s\n", challenge.Description))
	}

	percent := challenge.ProgressPercent(view.total)
	entry.WriteString(fmt.Sprintf("└ %s %s/%s (%d%%)\n",
		utils.ProgressBar(percent),
		utils.FormatNumber(view.total),
		utils.FormatNumber(challenge.TargetAmount),
		percent))

	if challenge.RewardBalls > 0 {
		entry.WriteString(fmt.Sprintf("└ Reward: 🎁 %d ball(s) per contributor\n", challenge.RewardBalls))
	}
	if challenge.Completed && challenge.CompletedAt != nil {
		entry.WriteString(fmt.Sprintf("└ Completed <t:%d:R>\n", challenge.CompletedAt.Unix()))
	}

	return entry.String()
}

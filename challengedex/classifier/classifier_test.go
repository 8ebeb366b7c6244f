package classifier

import (
	"context"
	"reflect"
	"testing"

	"github.com/challengedex/challenge-bot/challengedex/database/models"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
)

const dexBotID = snowflake.ID(111)

type fakeResolver struct {
	names map[string]int64
}

func (r *fakeResolver) LiveCount(_ context.Context, _ *int64) (int64, error) {
	return 0, nil
}

func (r *fakeResolver) BallIDByName(_ context.Context, name string) (*int64, error) {
	if id, ok := r.names[name]; ok {
		return &id, nil
	}
	return nil, nil
}

func ballID(id int64) *int64 { return &id }

func dexMessage(content string) discord.Message {
	return discord.Message{
		Author:  discord.User{ID: dexBotID},
		Content: content,
	}
}

func Test_DexMessageClassifier_Classify(t *testing.T) {
	c := NewDexMessageClassifier(dexBotID, &fakeResolver{names: map[string]int64{"Wolfie": 7}})

	tests := []struct {
		name    string
		message discord.Message
		want    []models.ContributionEvent
	}{
		{
			name:    "catch with known ball",
			message: dexMessage("<@123> You caught **Wolfie!** (`#1A2B`)"),
			want: []models.ContributionEvent{
				{PlayerID: "123", Kind: models.ChallengeTypeCatch, BallID: ballID(7), Amount: 1},
			},
		},
		{
			name:    "catch with unknown ball degrades to unfiltered",
			message: dexMessage("<@123> You caught **Mystery!** (`#0000`)"),
			want: []models.ContributionEvent{
				{PlayerID: "123", Kind: models.ChallengeTypeCatch, Amount: 1},
			},
		},
		{
			name:    "catch with nickname mention form",
			message: dexMessage("<@!123> You caught **Wolfie!**"),
			want: []models.ContributionEvent{
				{PlayerID: "123", Kind: models.ChallengeTypeCatch, BallID: ballID(7), Amount: 1},
			},
		},
		{
			name:    "wrong guess",
			message: dexMessage("<@456> Wrong name!"),
			want: []models.ContributionEvent{
				{PlayerID: "456", Kind: models.ChallengeTypeWrongGuess, Amount: 1},
			},
		},
		{
			name:    "trade credits both parties",
			message: dexMessage("Trade concluded between <@123> and <@456>"),
			want: []models.ContributionEvent{
				{PlayerID: "123", Kind: models.ChallengeTypeTrade, Amount: 1},
				{PlayerID: "456", Kind: models.ChallengeTypeTrade, Amount: 1},
			},
		},
		{
			name:    "trade with same player on both sides counts once",
			message: dexMessage("Trade concluded between <@123> and <@123>"),
			want: []models.ContributionEvent{
				{PlayerID: "123", Kind: models.ChallengeTypeTrade, Amount: 1},
			},
		},
		{
			name: "trade notice inside an embed",
			message: discord.Message{
				Author: discord.User{ID: dexBotID},
				Embeds: []discord.Embed{{
					Title:       "Trade",
					Description: "Trade concluded between <@123> and <@456>",
				}},
			},
			want: []models.ContributionEvent{
				{PlayerID: "123", Kind: models.ChallengeTypeTrade, Amount: 1},
				{PlayerID: "456", Kind: models.ChallengeTypeTrade, Amount: 1},
			},
		},
		{
			name:    "unrelated chatter",
			message: dexMessage("A wild ball appeared!"),
			want:    nil,
		},
		{
			name: "other author is ignored",
			message: discord.Message{
				Author:  discord.User{ID: snowflake.ID(999)},
				Content: "<@123> You caught **Wolfie!**",
			},
			want: nil,
		},
		{
			name:    "empty message",
			message: dexMessage(""),
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(context.Background(), tt.message)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Classify() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

package models

import "testing"

func ballID(id int64) *int64 { return &id }

func Test_Challenge_Matches(t *testing.T) {
	tests := []struct {
		name      string
		challenge Challenge
		ev        ContributionEvent
		want      bool
	}{
		{
			name:      "same kind without filter",
			challenge: Challenge{Type: ChallengeTypeCatch},
			ev:        ContributionEvent{Kind: ChallengeTypeCatch, BallID: ballID(3)},
			want:      true,
		},
		{
			name:      "different kind",
			challenge: Challenge{Type: ChallengeTypeTrade},
			ev:        ContributionEvent{Kind: ChallengeTypeCatch},
			want:      false,
		},
		{
			name:      "ball filter matches exact ball",
			challenge: Challenge{Type: ChallengeTypeCatch, BallID: ballID(3)},
			ev:        ContributionEvent{Kind: ChallengeTypeCatch, BallID: ballID(3)},
			want:      true,
		},
		{
			name:      "ball filter rejects other ball",
			challenge: Challenge{Type: ChallengeTypeCatch, BallID: ballID(3)},
			ev:        ContributionEvent{Kind: ChallengeTypeCatch, BallID: ballID(4)},
			want:      false,
		},
		{
			name:      "ball filter rejects unresolved ball",
			challenge: Challenge{Type: ChallengeTypeCatch, BallID: ballID(3)},
			ev:        ContributionEvent{Kind: ChallengeTypeCatch},
			want:      false,
		},
		{
			name:      "ownership challenge records catch events",
			challenge: Challenge{Type: ChallengeTypeOwnership, BallID: ballID(3)},
			ev:        ContributionEvent{Kind: ChallengeTypeCatch, BallID: ballID(3)},
			want:      true,
		},
		{
			name:      "ownership challenge ignores trades",
			challenge: Challenge{Type: ChallengeTypeOwnership},
			ev:        ContributionEvent{Kind: ChallengeTypeTrade},
			want:      false,
		},
		{
			name:      "wrong guess kind",
			challenge: Challenge{Type: ChallengeTypeWrongGuess},
			ev:        ContributionEvent{Kind: ChallengeTypeWrongGuess},
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.challenge.Matches(tt.ev); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_Challenge_TargetReached(t *testing.T) {
	tests := []struct {
		name   string
		target int64
		total  int64
		want   bool
	}{
		{name: "below", target: 100, total: 99, want: false},
		{name: "exact", target: 100, total: 100, want: true},
		{name: "above", target: 100, total: 101, want: true},
		{name: "zero target needs any contribution", target: 0, total: 0, want: false},
		{name: "zero target reached by one", target: 0, total: 1, want: true},
		{name: "negative target treated like zero", target: -5, total: 1, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Challenge{TargetAmount: tt.target}
			if got := c.TargetReached(tt.total); got != tt.want {
				t.Errorf("TargetReached(%d) = %v, want %v", tt.total, got, tt.want)
			}
		})
	}
}

func Test_Challenge_ProgressPercent(t *testing.T) {
	tests := []struct {
		name   string
		target int64
		total  int64
		want   int
	}{
		{name: "empty", target: 200, total: 0, want: 0},
		{name: "half", target: 200, total: 100, want: 50},
		{name: "full", target: 200, total: 200, want: 100},
		{name: "clamped above", target: 200, total: 500, want: 100},
		{name: "zero target untouched", target: 0, total: 0, want: 0},
		{name: "zero target with progress", target: 0, total: 3, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Challenge{TargetAmount: tt.target}
			if got := c.ProgressPercent(tt.total); got != tt.want {
				t.Errorf("ProgressPercent(%d) = %d, want %d", tt.total, got, tt.want)
			}
		})
	}
}

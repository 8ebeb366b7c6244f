package utils

import (
	"strconv"
	"strings"
)

func FormatNumber(n int64) string {
	str := strconv.FormatInt(n, 10)
	if n < 0 {
		str = str[1:]
	}

	var result []byte
	for i := len(str) - 1; i >= 0; i-- {
		if (len(str)-i-1)%3 == 0 && i != len(str)-1 {
			result = append([]byte{','}, result...)
		}
		result = append([]byte{str[i]}, result...)
	}

	if n < 0 {
		return "-" + string(result)
	}
	return string(result)
}

const progressBarSegments = 10

// ProgressBar renders a 10-segment bar for a 0-100 percentage.
func ProgressBar(percent int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	filled := percent * progressBarSegments / 100
	var bar strings.Builder
	for i := 0; i < progressBarSegments; i++ {
		if i < filled {
			bar.WriteString("█")
		} else {
			bar.WriteString("░")
		}
	}
	return bar.String()
}

// MedalForRank returns the leaderboard prefix for a 1-based rank.
func MedalForRank(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return "`#" + strconv.Itoa(rank) + "`"
	}
}

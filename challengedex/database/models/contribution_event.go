package models

// ContributionEvent is a single typed player action flowing into the progress
// engine. It is transient: classifiers produce it, the engine consumes it, and
// nothing persists it directly.
type ContributionEvent struct {
	PlayerID string
	Kind     string
	// BallID is the optional sub-category of the action (which collectible was
	// caught/traded). Nil means the classifier could not or did not resolve one.
	BallID *int64
	Amount int64
}

// Matches reports whether this challenge counts the given event. A challenge
// with a ball filter only matches events for that exact ball; without a filter
// any event of its kind counts.
func (c *Challenge) Matches(ev ContributionEvent) bool {
	kind := c.Type
	if kind == ChallengeTypeOwnership {
		// Ownership totals come from a live count, but each catch still
		// records a per-player entry for the leaderboard.
		kind = ChallengeTypeCatch
	}
	if kind != ev.Kind {
		return false
	}
	if c.BallID == nil {
		return true
	}
	return ev.BallID != nil && *ev.BallID == *c.BallID
}

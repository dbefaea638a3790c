package game

// Default rule constants. Config overrides them per engine instance.
const (
	DefaultMaxPlayers        = 4
	DefaultMaxTimelineLength = 10
	DefaultReplayPenalty     = 1
	PerfectPoints            = 5
)

// GuessSubmission is a single turn's guess input.
type GuessSubmission struct {
	Title      string
	Artist     string
	RangeValue string
	PlayCount  int
}

// TurnScore is the outcome of scoring one guess.
type TurnScore struct {
	Points           int
	TitleCorrect     bool
	ArtistCorrect    bool
	PlacementCorrect bool
	Perfect          bool
	// Insert is true when the track belongs on the player's timeline.
	Insert bool
	// TimelineFull is true when placement was correct but the timeline is
	// already at capacity, so no insertion happened. Callers must surface
	// this rather than treating the turn as a silent success.
	TimelineFull bool
}

// ScoreRules carry the tunables the scoring policy depends on.
type ScoreRules struct {
	Tolerance         int
	ReplayPenalty     int
	MaxTimelineLength int
}

// DefaultScoreRules returns the standard rule set.
func DefaultScoreRules() ScoreRules {
	return ScoreRules{
		Tolerance:         DefaultTolerance,
		ReplayPenalty:     DefaultReplayPenalty,
		MaxTimelineLength: DefaultMaxTimelineLength,
	}
}

// ScoreTurn computes the points for a guess against the current track and
// the acting player's timeline.
//
// Each of title, artist, and placement earns one point independently; a
// perfect guess (all three) earns a flat five instead. Every replay beyond
// the first play subtracts ReplayPenalty, and the final total never goes
// below zero. An unparseable range value counts as incorrect placement.
func ScoreTurn(sub GuessSubmission, track Track, timeline []Track, rules ScoreRules) TurnScore {
	var result TurnScore

	result.TitleCorrect = Matches(sub.Title, track.Title, rules.Tolerance)
	result.ArtistCorrect = Matches(sub.Artist, track.Artist, rules.Tolerance)

	if r, err := ParseRangeValue(sub.RangeValue); err == nil {
		result.PlacementCorrect = r.Contains(track.Year)
	}

	if result.TitleCorrect && result.ArtistCorrect && result.PlacementCorrect {
		result.Perfect = true
		result.Points = PerfectPoints
	} else {
		for _, correct := range []bool{result.TitleCorrect, result.ArtistCorrect, result.PlacementCorrect} {
			if correct {
				result.Points++
			}
		}
	}

	if sub.PlayCount > 1 {
		result.Points -= (sub.PlayCount - 1) * rules.ReplayPenalty
	}
	if result.Points < 0 {
		result.Points = 0
	}

	if result.PlacementCorrect {
		if len(timeline) >= rules.MaxTimelineLength {
			result.TimelineFull = true
		} else {
			result.Insert = true
		}
	}

	return result
}

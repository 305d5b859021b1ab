package scorer

// MatchLevel is the coarse rating shown next to a match score.
type MatchLevel string

// Match levels, worst to best.
const (
	LevelPoor      MatchLevel = "poor"
	LevelFair      MatchLevel = "fair"
	LevelGood      MatchLevel = "good"
	LevelExcellent MatchLevel = "excellent"
)

// Threshold is the lowest score that still earns Level.
type Threshold struct {
	Level MatchLevel
	Min   int
}

// LevelThresholds are checked best first; the first threshold the score reaches wins.
//
//nolint:gochecknoglobals // Scoring configuration constants
var LevelThresholds = []Threshold{
	{Level: LevelExcellent, Min: 80},
	{Level: LevelGood, Min: 60},
	{Level: LevelFair, Min: 40},
	{Level: LevelPoor, Min: 0},
}

const (
	// MinScore is the lowest valid match score.
	MinScore = 0
	// MaxScore is the highest valid match score.
	MaxScore = 100
)

package domain

// levelBands maps permanent-score upper bounds to level names. Scores above the
// last band are Master.
var levelBands = []struct {
	max   int
	level string
}{
	{10, "Beginner"},
	{20, "Medium"},
	{30, "Good"},
	{40, "Very good"},
	{50, "Impressive"},
	{60, "Fighting for the top"},
}

// LevelForScore returns the display level for a permanent score.
func LevelForScore(score int) string {
	if score < 0 {
		return "Noob"
	}
	for _, band := range levelBands {
		if score <= band.max {
			return band.level
		}
	}
	return "Master"
}

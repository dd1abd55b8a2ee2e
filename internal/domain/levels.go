package domain

// levelThresholds maps the minimum points for each level, highest first.
var levelThresholds = []struct {
	level  Level
	points int
}{
	{LevelN1, 6000},
	{LevelN2, 3000},
	{LevelN3, 1500},
	{LevelN4, 500},
	{LevelN5, 0},
}

// LevelForPoints returns the highest level whose threshold does not exceed points.
func LevelForPoints(points int) Level {
	for _, t := range levelThresholds {
		if points >= t.points {
			return t.level
		}
	}
	return LevelN5
}

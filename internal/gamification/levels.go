package gamification

import "math"

// LevelThresholds are the point totals at which each level starts
var LevelThresholds = []int{0, 100, 300, 600, 1000, 1500, 2200, 3000, 4000, 5500}

var levelTitles = []string{
	"Newcomer",
	"Learner",
	"Student",
	"Scholar",
	"Civics Enthusiast",
	"History Buff",
	"Constitution Expert",
	"Civics Master",
	"Citizenship Champion",
	"Civics Legend",
}

// MaxLevel is the highest reachable level
func MaxLevel() int {
	return len(LevelThresholds)
}

// Level maps a point total to a 1-indexed level. Negative totals are level 1.
func Level(points int) int {
	level := 1
	for i, threshold := range LevelThresholds {
		if points >= threshold {
			level = i + 1
		}
	}
	return level
}

// LevelTitle returns the display title of level
func LevelTitle(level int) string {
	if level < 1 {
		level = 1
	}
	if level > len(levelTitles) {
		level = len(levelTitles)
	}
	return levelTitles[level-1]
}

// LevelProgress describes the way to the next level
type LevelProgress struct {
	Current    int `json:"current"`
	Needed     int `json:"needed"`
	Percentage int `json:"percentage"`
}

// PointsToNextLevel reports progress inside the current level
func PointsToNextLevel(points int) LevelProgress {
	level := Level(points)
	if level >= MaxLevel() {
		return LevelProgress{Current: 0, Needed: 0, Percentage: 100}
	}
	if points < 0 {
		points = 0
	}

	floor := LevelThresholds[level-1]
	ceiling := LevelThresholds[level]
	current := points - floor
	needed := ceiling - floor
	return LevelProgress{
		Current:    current,
		Needed:     needed,
		Percentage: int(math.Round(float64(current) / float64(needed) * 100)),
	}
}

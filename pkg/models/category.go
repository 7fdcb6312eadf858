package models

// CategoryStats aggregates answers for one civics topic
type CategoryStats struct {
	Attempted int     `json:"attempted" db:"attempted"`
	Correct   int     `json:"correct" db:"correct"`
	Accuracy  float64 `json:"accuracy" db:"accuracy"` // correct/attempted, 0..1
}

// Record adds one graded answer and refreshes the accuracy
func (c CategoryStats) Record(correct bool) CategoryStats {
	c.Attempted++
	if correct {
		c.Correct++
	}
	c.Accuracy = float64(c.Correct) / float64(c.Attempted)
	return c
}

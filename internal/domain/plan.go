package domain

import "time"

// SessionOffsets are the fixed spaced-repetition offsets, in days from the
// plan start date.
var SessionOffsets = []int{1, 7, 14, 30}

// PlanSession is one scheduled review session of a study plan.
type PlanSession struct {
	Kind        string `json:"kind"` // "D+1", "D+7", "D+14", "D+30"
	Date        string `json:"date"` // YYYY-MM-DD
	Description string `json:"description"`
}

// StudyPlan is a spaced-repetition review plan for a topic.
type StudyPlan struct {
	Topic        string        `json:"topic"`
	StartDate    string        `json:"start_date"`
	Origin       string        `json:"origin"`
	OriginDetail string        `json:"origin_detail"`
	Sources      []ScoredMatch `json:"sources"`
	Sessions     []PlanSession `json:"sessions"`
}

// SessionDate computes the date of a session at the given day offset.
func SessionDate(start time.Time, offsetDays int) string {
	return start.AddDate(0, 0, offsetDays).Format("2006-01-02")
}

// Answer origins, shared by answers and plans.
const (
	OriginRetrieval = "retrieval"
	OriginModel     = "model"
)

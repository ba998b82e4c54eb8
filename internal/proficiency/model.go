// Package proficiency tracks how well a learner handles each pattern kind
// and turns that history into scores and mastery levels.
package proficiency

import "time"

// Mastery levels returned by Calculator.Mastery.
const (
	MasteryBeginner     = 1
	MasteryIntermediate = 2
	MasteryExpert       = 3
)

// MinHintLevel and MaxHintLevel bound the hint scale.
const (
	MinHintLevel = 1
	MaxHintLevel = 4
)

// PatternStats accumulates a learner's attempts at one pattern kind.
// Attempts, Successes and TotalTime never decrease; HintLevelReached is a
// running maximum.
type PatternStats struct {
	PatternType      string  `json:"patternType"`
	Attempts         int     `json:"attempts"`
	Successes        int     `json:"successes"`
	TotalTime        float64 `json:"totalTime"` // seconds
	HintLevelReached int     `json:"hintLevelReached"`
}

// NewPatternStats returns empty stats for a pattern.
func NewPatternStats(patternType string) PatternStats {
	return PatternStats{PatternType: patternType, HintLevelReached: MinHintLevel}
}

// StudentProfile is a learner's full history.
type StudentProfile struct {
	StudentID    string                  `json:"studentId"`
	PatternStats map[string]PatternStats `json:"patternStats"`
	OverallScore float64                 `json:"overallScore"`
	MasteryLevel int                     `json:"masteryLevel"`
	LastUpdated  time.Time               `json:"lastUpdated"`
}

// NewProfile returns an empty beginner profile.
func NewProfile(studentID string, now time.Time) StudentProfile {
	return StudentProfile{
		StudentID:    studentID,
		PatternStats: map[string]PatternStats{},
		MasteryLevel: MasteryBeginner,
		LastUpdated:  now,
	}
}

// Stats returns the stats recorded for patternType.
func (p StudentProfile) Stats(patternType string) (PatternStats, bool) {
	s, ok := p.PatternStats[patternType]
	return s, ok
}

// ProfileUpdate is the outcome of one attempt.
type ProfileUpdate struct {
	PatternType string  `json:"patternType"`
	Success     bool    `json:"success"`
	TimeTaken   float64 `json:"timeTaken"` // seconds
	HintLevel   int     `json:"hintLevel"`
}

package proficiency

import (
	"math"
	"time"
)

const (
	successWeight          = 0.4
	timeWeight             = 0.3
	hintWeight             = 0.3
	beginnerThreshold      = 0.4
	intermediateThreshold  = 0.7
	optimalSecondsPerTrial = 60.0
)

// Calculator scores pattern stats. Implementations must be pure.
type Calculator interface {
	Score(stats PatternStats) float64
	Mastery(stats PatternStats) int
	UpdateStats(stats PatternStats, update ProfileUpdate) PatternStats
	OverallScore(stats map[string]PatternStats) float64
}

var _ Calculator = SimpleCalculator{}

// SimpleCalculator weighs success rate, speed and hint reliance.
type SimpleCalculator struct{}

// Score is 0 without attempts, otherwise
// 0.4*successRate + 0.3*timeScore + 0.3*hintScore.
func (SimpleCalculator) Score(stats PatternStats) float64 {
	if stats.Attempts == 0 {
		return 0
	}
	attempts := float64(stats.Attempts)
	successRate := float64(stats.Successes) / attempts
	return successWeight*successRate +
		timeWeight*timeScore(stats.TotalTime/attempts) +
		hintWeight*hintScore(stats.HintLevelReached)
}

// Mastery maps the score onto beginner, intermediate or expert.
func (c SimpleCalculator) Mastery(stats PatternStats) int {
	return masteryFor(c.Score(stats))
}

// UpdateStats returns a new value; stats is not modified.
func (SimpleCalculator) UpdateStats(stats PatternStats, update ProfileUpdate) PatternStats {
	next := stats
	next.Attempts++
	if update.Success {
		next.Successes++
	}
	next.TotalTime += update.TimeTaken
	if update.HintLevel > next.HintLevelReached {
		next.HintLevelReached = update.HintLevel
	}
	return next
}

// OverallScore is the mean per-pattern score, 0 for no patterns.
func (c SimpleCalculator) OverallScore(stats map[string]PatternStats) float64 {
	if len(stats) == 0 {
		return 0
	}
	var sum float64
	for _, s := range stats {
		sum += c.Score(s)
	}
	return sum / float64(len(stats))
}

func timeScore(avg float64) float64 {
	if avg <= 0 {
		return 0
	}
	return math.Min(1, optimalSecondsPerTrial/avg)
}

func hintScore(level int) float64 {
	return math.Max(0, float64(MaxHintLevel-level)/float64(MaxHintLevel-1))
}

func masteryFor(score float64) int {
	switch {
	case score >= intermediateThreshold:
		return MasteryExpert
	case score >= beginnerThreshold:
		return MasteryIntermediate
	default:
		return MasteryBeginner
	}
}

// Apply folds an update into a profile and recomputes the overall score and
// mastery. The input profile is left untouched.
func Apply(c Calculator, p StudentProfile, update ProfileUpdate, now time.Time) StudentProfile {
	current, ok := p.PatternStats[update.PatternType]
	if !ok {
		current = NewPatternStats(update.PatternType)
	}

	stats := make(map[string]PatternStats, len(p.PatternStats)+1)
	for k, v := range p.PatternStats {
		stats[k] = v
	}
	stats[update.PatternType] = c.UpdateStats(current, update)

	overall := c.OverallScore(stats)
	return StudentProfile{
		StudentID:    p.StudentID,
		PatternStats: stats,
		OverallScore: overall,
		MasteryLevel: masteryFor(overall),
		LastUpdated:  now,
	}
}

package proficiency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	calc := SimpleCalculator{}

	tests := []struct {
		name  string
		stats PatternStats
		want  float64
	}{
		{"no attempts", PatternStats{HintLevelReached: 1}, 0},
		{"perfect", PatternStats{Attempts: 2, Successes: 2, TotalTime: 60, HintLevelReached: 1}, 1.0},
		{"slow", PatternStats{Attempts: 1, Successes: 1, TotalTime: 120, HintLevelReached: 1}, 0.4 + 0.15 + 0.3},
		{"max hints", PatternStats{Attempts: 1, Successes: 1, TotalTime: 30, HintLevelReached: 4}, 0.7},
		{"failed with hints", PatternStats{Attempts: 2, Successes: 0, TotalTime: 240, HintLevelReached: 3}, 0.3*0.5 + 0.3*(1.0/3)},
		{"zero time", PatternStats{Attempts: 1, Successes: 1, TotalTime: 0, HintLevelReached: 2}, 0.4 + 0.3*(2.0/3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, calc.Score(tt.stats), 1e-9)
		})
	}
}

func TestMastery(t *testing.T) {
	calc := SimpleCalculator{}
	assert.Equal(t, MasteryExpert, calc.Mastery(PatternStats{Attempts: 1, Successes: 1, TotalTime: 30, HintLevelReached: 4}))
	assert.Equal(t, MasteryIntermediate, calc.Mastery(PatternStats{Attempts: 1, Successes: 1, TotalTime: 0, HintLevelReached: 4}))
	assert.Equal(t, MasteryBeginner, calc.Mastery(PatternStats{Attempts: 1, Successes: 0, TotalTime: 600, HintLevelReached: 4}))
	assert.Equal(t, MasteryBeginner, calc.Mastery(NewPatternStats("loops")))
}

func TestUpdateStats_Pure(t *testing.T) {
	calc := SimpleCalculator{}
	before := PatternStats{PatternType: "loops", Attempts: 1, Successes: 1, TotalTime: 10, HintLevelReached: 3}

	after := calc.UpdateStats(before, ProfileUpdate{PatternType: "loops", Success: false, TimeTaken: 5, HintLevel: 2})

	assert.Equal(t, PatternStats{PatternType: "loops", Attempts: 1, Successes: 1, TotalTime: 10, HintLevelReached: 3}, before)
	assert.Equal(t, PatternStats{PatternType: "loops", Attempts: 2, Successes: 1, TotalTime: 15, HintLevelReached: 3}, after)
}

func TestUpdateStats_Monotonic(t *testing.T) {
	calc := SimpleCalculator{}
	stats := NewPatternStats("loops")
	outcomes := []ProfileUpdate{
		{Success: true, TimeTaken: 12, HintLevel: 1},
		{Success: false, TimeTaken: 40, HintLevel: 3},
		{Success: true, TimeTaken: 0, HintLevel: 2},
		{Success: false, TimeTaken: 8, HintLevel: 4},
		{Success: true, TimeTaken: 3, HintLevel: 1},
	}

	for i, o := range outcomes {
		prev := stats
		stats = calc.UpdateStats(stats, o)
		assert.Equal(t, i+1, stats.Attempts)
		assert.LessOrEqual(t, stats.Successes, stats.Attempts)
		assert.GreaterOrEqual(t, stats.Successes, prev.Successes)
		assert.GreaterOrEqual(t, stats.TotalTime, prev.TotalTime)
		assert.GreaterOrEqual(t, stats.HintLevelReached, prev.HintLevelReached)
	}
	assert.Equal(t, 3, stats.Successes)
	assert.Equal(t, 4, stats.HintLevelReached)
}

func TestOverallScore(t *testing.T) {
	calc := SimpleCalculator{}
	assert.Equal(t, 0.0, calc.OverallScore(nil))
	assert.Equal(t, 0.0, calc.OverallScore(map[string]PatternStats{}))

	stats := map[string]PatternStats{
		"loops":     {Attempts: 2, Successes: 2, TotalTime: 60, HintLevelReached: 1},
		"functions": {Attempts: 1, Successes: 1, TotalTime: 30, HintLevelReached: 4},
	}
	assert.InDelta(t, (1.0+0.7)/2, calc.OverallScore(stats), 1e-9)
}

func TestApply(t *testing.T) {
	calc := SimpleCalculator{}
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	later := start.Add(time.Hour)

	p := NewProfile("student-1", start)
	next := Apply(calc, p, ProfileUpdate{PatternType: "loops", Success: true, TimeTaken: 30, HintLevel: 1}, later)

	assert.Empty(t, p.PatternStats, "input profile is not modified")
	require.Contains(t, next.PatternStats, "loops")
	assert.Equal(t, 1, next.PatternStats["loops"].Attempts)
	assert.InDelta(t, 1.0, next.OverallScore, 1e-9)
	assert.Equal(t, MasteryExpert, next.MasteryLevel)
	assert.Equal(t, later, next.LastUpdated)
	assert.Equal(t, "student-1", next.StudentID)

	failed := Apply(calc, next, ProfileUpdate{PatternType: "classes", Success: false, TimeTaken: 300, HintLevel: 4}, later)
	assert.Len(t, failed.PatternStats, 2)
	assert.Equal(t, MasteryBeginner, calc.Mastery(failed.PatternStats["classes"]))
	assert.InDelta(t, (1.0+0.3*0.2)/2, failed.OverallScore, 1e-9)
}

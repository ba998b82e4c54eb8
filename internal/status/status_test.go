package status

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/learnwatch/internal/proficiency"
	"github.com/dusk-indust/learnwatch/internal/session"
)

func sampleProfile() proficiency.StudentProfile {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	calc := proficiency.SimpleCalculator{}
	p := proficiency.NewProfile("alice", now)
	p = proficiency.Apply(calc, p, proficiency.ProfileUpdate{PatternType: "loops", Success: true, TimeTaken: 30, HintLevel: 1}, now)
	p = proficiency.Apply(calc, p, proficiency.ProfileUpdate{PatternType: "classes", Success: false, TimeTaken: 600, HintLevel: 4}, now)
	return p
}

func TestBuild(t *testing.T) {
	sessions := []session.LearningSession{
		{ID: "a", TaskCompleted: true, HintsShown: []string{"x", "y"}},
		{ID: "b", HintsShown: []string{"z"}},
	}
	r := Build(proficiency.SimpleCalculator{}, sampleProfile(), sessions)

	assert.Equal(t, "alice", r.StudentID)
	assert.Equal(t, 2, r.Sessions)
	assert.Equal(t, 1, r.CompletedSessions)
	assert.Equal(t, 3, r.HintsShown)

	require.Len(t, r.Patterns, 2)
	assert.Equal(t, "classes", r.Patterns[0].Pattern, "weakest first")
	assert.Equal(t, "beginner", r.Patterns[0].MasteryLabel)
	assert.Equal(t, "loops", r.Patterns[1].Pattern)
	assert.Equal(t, "expert", r.Patterns[1].MasteryLabel)
	assert.InDelta(t, 1.0, r.Patterns[1].SuccessRate, 1e-9)
	assert.InDelta(t, 30.0, r.Patterns[1].AvgSeconds, 1e-9)

	assert.Equal(t, []string{"conditionals", "functions", "comprehensions", "context-managers", "error-handling"}, r.Untried)
}

func TestBuild_EmptyProfile(t *testing.T) {
	r := Build(proficiency.SimpleCalculator{}, proficiency.NewProfile("bob", time.Now()), nil)
	assert.Empty(t, r.Patterns)
	assert.NotNil(t, r.Patterns)
	assert.Len(t, r.Untried, 7)
	assert.Contains(t, Format(r), "No attempts recorded yet.")
}

func TestMasteryLabel(t *testing.T) {
	assert.Equal(t, "beginner", MasteryLabel(1))
	assert.Equal(t, "intermediate", MasteryLabel(2))
	assert.Equal(t, "expert", MasteryLabel(3))
	assert.Equal(t, "beginner", MasteryLabel(0))
}

func TestFormat(t *testing.T) {
	out := Format(Build(proficiency.SimpleCalculator{}, sampleProfile(), nil))
	assert.Contains(t, out, "Student alice")
	assert.Contains(t, out, "loops")
	assert.Contains(t, out, "100%")
	assert.Contains(t, out, "Not practiced yet: conditionals")
}

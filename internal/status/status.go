// Package status summarizes a learner's progress per pattern kind.
package status

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dusk-indust/learnwatch/internal/analyzer"
	"github.com/dusk-indust/learnwatch/internal/proficiency"
	"github.com/dusk-indust/learnwatch/internal/session"
)

// PatternStatus describes progress on one pattern kind.
type PatternStatus struct {
	Pattern          string  `json:"pattern"`
	Attempts         int     `json:"attempts"`
	Successes        int     `json:"successes"`
	SuccessRate      float64 `json:"successRate"`
	AvgSeconds       float64 `json:"avgSeconds"`
	HintLevelReached int     `json:"hintLevelReached"`
	Score            float64 `json:"score"`
	Mastery          int     `json:"mastery"`
	MasteryLabel     string  `json:"masteryLabel"`
}

// Report is the full progress summary of one learner.
type Report struct {
	StudentID         string          `json:"studentId"`
	OverallScore      float64         `json:"overallScore"`
	Mastery           int             `json:"mastery"`
	MasteryLabel      string          `json:"masteryLabel"`
	Patterns          []PatternStatus `json:"patterns"`
	Sessions          int             `json:"sessions"`
	CompletedSessions int             `json:"completedSessions"`
	HintsShown        int             `json:"hintsShown"`
	// Untried lists pattern kinds with no attempts yet.
	Untried []string `json:"untried,omitempty"`
}

// MasteryLabel names a mastery level.
func MasteryLabel(level int) string {
	switch level {
	case proficiency.MasteryExpert:
		return "expert"
	case proficiency.MasteryIntermediate:
		return "intermediate"
	default:
		return "beginner"
	}
}

// Build computes a Report. Patterns are ordered weakest first, then by name.
func Build(calc proficiency.Calculator, profile proficiency.StudentProfile, sessions []session.LearningSession) Report {
	r := Report{
		StudentID:    profile.StudentID,
		OverallScore: profile.OverallScore,
		Mastery:      profile.MasteryLevel,
		MasteryLabel: MasteryLabel(profile.MasteryLevel),
		Patterns:     []PatternStatus{},
		Sessions:     len(sessions),
	}

	for name, st := range profile.PatternStats {
		ps := PatternStatus{
			Pattern:          name,
			Attempts:         st.Attempts,
			Successes:        st.Successes,
			HintLevelReached: st.HintLevelReached,
			Score:            calc.Score(st),
			Mastery:          calc.Mastery(st),
		}
		if st.Attempts > 0 {
			ps.SuccessRate = float64(st.Successes) / float64(st.Attempts)
			ps.AvgSeconds = st.TotalTime / float64(st.Attempts)
		}
		ps.MasteryLabel = MasteryLabel(ps.Mastery)
		r.Patterns = append(r.Patterns, ps)
	}
	sort.Slice(r.Patterns, func(i, j int) bool {
		if r.Patterns[i].Score != r.Patterns[j].Score {
			return r.Patterns[i].Score < r.Patterns[j].Score
		}
		return r.Patterns[i].Pattern < r.Patterns[j].Pattern
	})

	for _, k := range analyzer.Kinds() {
		if _, ok := profile.PatternStats[string(k)]; !ok {
			r.Untried = append(r.Untried, string(k))
		}
	}

	for _, s := range sessions {
		if s.TaskCompleted {
			r.CompletedSessions++
		}
		r.HintsShown += len(s.HintsShown)
	}
	return r
}

// Format renders r as plain text.
func Format(r Report) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Student %s: %s (score %.2f)\n", r.StudentID, r.MasteryLabel, r.OverallScore)
	fmt.Fprintf(&sb, "Sessions: %d (%d completed), hints shown: %d\n", r.Sessions, r.CompletedSessions, r.HintsShown)

	if len(r.Patterns) == 0 {
		sb.WriteString("\nNo attempts recorded yet.\n")
	} else {
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "  %-18s %8s %8s %8s %6s  %s\n", "pattern", "attempts", "success", "avg", "hint", "mastery")
		for _, p := range r.Patterns {
			fmt.Fprintf(&sb, "  %-18s %8d %7.0f%% %7.0fs %6d  %s\n",
				p.Pattern, p.Attempts, p.SuccessRate*100, p.AvgSeconds, p.HintLevelReached, p.MasteryLabel)
		}
	}
	if len(r.Untried) > 0 {
		fmt.Fprintf(&sb, "\nNot practiced yet: %s\n", strings.Join(r.Untried, ", "))
	}
	return sb.String()
}

// Package hint picks leveled hint text for a classified deletion and decides
// when a learner has been stuck long enough to see the next level.
package hint

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/dusk-indust/learnwatch/internal/analyzer"
	"github.com/dusk-indust/learnwatch/internal/proficiency"
)

// SecondsPerLevel is how long a learner stays at a level before escalation.
const SecondsPerLevel = 30

// Hint is one piece of guidance. BestPractice is empty at level 1 and for
// patterns without tips.
type Hint struct {
	Level        int    `json:"level"`
	Content      string `json:"content"`
	BestPractice string `json:"bestPractice,omitempty"`
}

// Engine selects hints at random from fixed pools. The random source is
// injected so tests can fix the seed.
type Engine struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewEngine returns an engine drawing from rng. A nil rng uses a
// time-seeded source.
func NewEngine(rng *rand.Rand) *Engine {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return &Engine{rng: rng}
}

// NewSeededEngine returns an engine whose choices repeat for equal seeds.
func NewSeededEngine(seed uint64) *Engine {
	return NewEngine(rand.New(rand.NewPCG(seed, seed)))
}

// Generate returns a hint for the deleted pattern at level, clamped to
// [1, 4]. Levels 2 and above also carry a best-practice tip when the
// pattern has any.
func (e *Engine) Generate(cc analyzer.CodeContext, level int, _ time.Duration) Hint {
	level = ClampLevel(level)
	pattern := cc.MissingElement

	h := Hint{Level: level, Content: e.pick(Candidates(pattern, level))}
	if level >= 2 {
		if tips := Tips(pattern); len(tips) > 0 {
			h.BestPractice = e.pick(tips)
		}
	}
	return h
}

func (e *Engine) pick(options []string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return options[e.rng.IntN(len(options))]
}

// Candidates returns the pool Generate chooses from. Unknown patterns get a
// single generic text naming the pattern.
func Candidates(pattern analyzer.PatternKind, level int) []string {
	level = ClampLevel(level)
	if byLevel, ok := templates[pattern]; ok {
		if pool := byLevel[level]; len(pool) > 0 {
			return pool
		}
	}
	return []string{fmt.Sprintf(genericTemplates[level], pattern)}
}

// Tips returns the best-practice pool for a pattern, nil if it has none.
func Tips(pattern analyzer.PatternKind) []string {
	return bestPractices[pattern]
}

// ClampLevel forces level into [1, 4].
func ClampLevel(level int) int {
	switch {
	case level < proficiency.MinHintLevel:
		return proficiency.MinHintLevel
	case level > proficiency.MaxHintLevel:
		return proficiency.MaxHintLevel
	default:
		return level
	}
}

// ShouldIncreaseLevel reports whether a learner stuck for timeStuck at
// current should move up a level: 30s at level 1, 60s at 2, 90s at 3,
// never from 4.
func ShouldIncreaseLevel(timeStuck time.Duration, current int) bool {
	threshold := time.Duration(SecondsPerLevel*current) * time.Second
	return timeStuck >= threshold && current < proficiency.MaxHintLevel
}

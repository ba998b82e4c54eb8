// Package session holds the state of the active learning session: the stuck
// timer, the hint level reached, the hints shown and the task the learner is
// working on.
package session

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dusk-indust/learnwatch/internal/analyzer"
	"github.com/dusk-indust/learnwatch/internal/hint"
	"github.com/dusk-indust/learnwatch/internal/proficiency"
)

// Task is the piece of code the learner deleted and is expected to restore.
type Task struct {
	Pattern          analyzer.PatternKind `json:"pattern"`
	ExpectedPattern  string               `json:"expectedPattern,omitempty"`
	DeletedFunctions []string             `json:"deletedFunctions,omitempty"`
	DeletedLines     []string             `json:"deletedLines,omitempty"`
	OpenedAt         time.Time            `json:"openedAt"`
}

// LearningSession is one session on one file.
type LearningSession struct {
	ID               string    `json:"id"`
	FilePath         string    `json:"filePath"`
	StartedAt        time.Time `json:"startedAt"`
	EndedAt          time.Time `json:"endedAt,omitzero"`
	CurrentHintLevel int       `json:"currentHintLevel"`
	HintsShown       []string  `json:"hintsShown"`
	TaskCompleted    bool      `json:"taskCompleted"`
	Task             *Task     `json:"task,omitempty"`
}

func (s LearningSession) clone() LearningSession {
	s.HintsShown = slices.Clone(s.HintsShown)
	if s.Task != nil {
		t := *s.Task
		t.DeletedFunctions = slices.Clone(t.DeletedFunctions)
		t.DeletedLines = slices.Clone(t.DeletedLines)
		s.Task = &t
	}
	return s
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithIDGenerator replaces the uuid session id generator.
func WithIDGenerator(gen func() string) Option {
	return func(m *Manager) { m.newID = gen }
}

// Manager owns the active session and the archive of finished ones. It is
// driven by the pipeline; the mutex only guards readers such as the renderer
// and the status commands.
type Manager struct {
	mu        sync.Mutex
	now       func() time.Time
	newID     func() string
	current   *LearningSession
	history   []LearningSession
	lastReset time.Time
}

// NewManager returns a Manager with no active session.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Start begins a session on filePath and starts the stuck timer. An active
// session is archived first.
func (m *Manager) Start(filePath string) LearningSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if m.current != nil {
		m.archiveLocked(now)
	}
	m.current = &LearningSession{
		ID:               m.newID(),
		FilePath:         filePath,
		StartedAt:        now,
		CurrentHintLevel: proficiency.MinHintLevel,
		HintsShown:       []string{},
	}
	m.lastReset = now
	return m.current.clone()
}

// Current returns a copy of the active session.
func (m *Manager) Current() (LearningSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return LearningSession{}, false
	}
	return m.current.clone(), true
}

// ResetTimer restarts the stuck clock.
func (m *Manager) ResetTimer() {
	m.mu.Lock()
	m.lastReset = m.now()
	m.mu.Unlock()
}

// TimeStuck is the time since the last reset, zero before any session.
func (m *Manager) TimeStuck() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastReset.IsZero() {
		return 0
	}
	return m.now().Sub(m.lastReset)
}

// RecordHint appends the hint text and moves the session to its level.
// Without an active session it is a no-op.
func (m *Manager) RecordHint(h hint.Hint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return
	}
	m.current.HintsShown = append(m.current.HintsShown, h.Content)
	m.current.CurrentHintLevel = h.Level
}

// CurrentHintLevel is the active session's level, or the minimum level.
func (m *Manager) CurrentHintLevel() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return proficiency.MinHintLevel
	}
	return m.current.CurrentHintLevel
}

// OpenTask records what the learner removed. An open task is replaced.
func (m *Manager) OpenTask(t Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return
	}
	if t.OpenedAt.IsZero() {
		t.OpenedAt = m.now()
	}
	t.DeletedFunctions = slices.Clone(t.DeletedFunctions)
	t.DeletedLines = slices.Clone(t.DeletedLines)
	m.current.Task = &t
}

// Task returns the open task of the active session.
func (m *Manager) Task() (Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil || m.current.Task == nil {
		return Task{}, false
	}
	return *m.current.Task, true
}

// MarkCompleted flags the active session as completed, archives it and
// clears it. It reports false without an active session.
func (m *Manager) MarkCompleted() (LearningSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return LearningSession{}, false
	}
	m.current.TaskCompleted = true
	return m.archiveLocked(m.now()), true
}

// End archives and clears the active session.
func (m *Manager) End() (LearningSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return LearningSession{}, false
	}
	return m.archiveLocked(m.now()), true
}

// History returns archived sessions, oldest first.
func (m *Manager) History() []LearningSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]LearningSession, 0, len(m.history))
	for _, s := range m.history {
		out = append(out, s.clone())
	}
	return out
}

func (m *Manager) archiveLocked(now time.Time) LearningSession {
	done := *m.current
	done.EndedAt = now
	m.history = append(m.history, done)
	m.current = nil
	return done.clone()
}

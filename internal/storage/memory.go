package storage

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/dusk-indust/learnwatch/internal/proficiency"
	"github.com/dusk-indust/learnwatch/internal/result"
	"github.com/dusk-indust/learnwatch/internal/session"
)

var _ proficiency.Store = (*MemoryStore)(nil)

// MemoryStore is a map-backed store for tests and --no-persist runs.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]proficiency.StudentProfile
	sessions map[string][]session.LearningSession
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]proficiency.StudentProfile),
		sessions: make(map[string][]session.LearningSession),
	}
}

func (m *MemoryStore) Exists(_ context.Context, studentID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.profiles[studentID]
	return ok, nil
}

func (m *MemoryStore) Load(_ context.Context, studentID string) result.Result[proficiency.StudentProfile] {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[studentID]
	if !ok {
		return result.Err[proficiency.StudentProfile](result.ProfileError, "profile not found: "+studentID)
	}
	p.PatternStats = maps.Clone(p.PatternStats)
	return result.Ok(p)
}

func (m *MemoryStore) Save(_ context.Context, p proficiency.StudentProfile) result.Result[proficiency.StudentProfile] {
	if p.StudentID == "" {
		return result.Err[proficiency.StudentProfile](result.ValidationError, "profile has no student id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := p
	stored.PatternStats = maps.Clone(p.PatternStats)
	m.profiles[p.StudentID] = stored
	return result.Ok(p)
}

func (m *MemoryStore) SaveSession(_ context.Context, studentID string, ls session.LearningSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.sessions[studentID]
	for i := range list {
		if list[i].ID == ls.ID {
			list[i] = ls
			return nil
		}
	}
	m.sessions[studentID] = append(list, ls)
	return nil
}

// Sessions returns archived sessions ordered by start time.
func (m *MemoryStore) Sessions(_ context.Context, studentID string) ([]session.LearningSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := slices.Clone(m.sessions[studentID])
	if out == nil {
		out = []session.LearningSession{}
	}
	slices.SortStableFunc(out, func(a, b session.LearningSession) int {
		return a.StartedAt.Compare(b.StartedAt)
	})
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }

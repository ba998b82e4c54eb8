package storage

import (
	"context"
	"io"

	"github.com/dusk-indust/learnwatch/internal/proficiency"
	"github.com/dusk-indust/learnwatch/internal/session"
)

// Store is a profile store that also archives sessions.
type Store interface {
	proficiency.Store
	io.Closer
	SaveSession(ctx context.Context, studentID string, ls session.LearningSession) error
	Sessions(ctx context.Context, studentID string) ([]session.LearningSession, error)
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*MemoryStore)(nil)
)

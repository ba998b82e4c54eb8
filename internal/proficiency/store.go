package proficiency

import (
	"context"
	"fmt"

	"github.com/dusk-indust/learnwatch/internal/result"
)

// Store persists learner profiles. Failures carry result.ProfileError.
// Implementations live in internal/storage.
type Store interface {
	Load(ctx context.Context, studentID string) result.Result[StudentProfile]
	Save(ctx context.Context, profile StudentProfile) result.Result[StudentProfile]
	Exists(ctx context.Context, studentID string) (bool, error)
}

// LoadOrNew loads a profile, starting a fresh one when none exists yet. A
// store that cannot answer is an error, never a fresh profile.
func LoadOrNew(ctx context.Context, s Store, studentID string, newProfile func() StudentProfile) result.Result[StudentProfile] {
	ok, err := s.Exists(ctx, studentID)
	if err != nil {
		return result.Fail[StudentProfile](result.Wrap(result.ProfileError, fmt.Errorf("check profile %s: %w", studentID, err)))
	}
	if !ok {
		return result.Ok(newProfile())
	}
	return s.Load(ctx, studentID)
}

package proficiency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/learnwatch/internal/result"
)

// brokenStore fails every call, as a closed or locked database would.
type brokenStore struct {
	saves int
}

func (b *brokenStore) Exists(context.Context, string) (bool, error) {
	return false, errors.New("database is locked")
}

func (b *brokenStore) Load(context.Context, string) result.Result[StudentProfile] {
	return result.Err[StudentProfile](result.ProfileError, "database is locked")
}

func (b *brokenStore) Save(_ context.Context, p StudentProfile) result.Result[StudentProfile] {
	b.saves++
	return result.Ok(p)
}

func TestLoadOrNew_StoreFailureIsNotAFreshProfile(t *testing.T) {
	s := &brokenStore{}
	res := LoadOrNew(context.Background(), s, "alice", func() StudentProfile {
		t.Fatal("a failing store must not yield a fresh profile")
		return StudentProfile{}
	})

	require.True(t, res.IsErr())
	assert.Equal(t, result.ProfileError, res.Error().Kind)
	assert.Contains(t, res.Error().Context, "database is locked")
	assert.Zero(t, s.saves)
}

func TestLoadOrNew_FreshWhenAbsent(t *testing.T) {
	s := &emptyStore{}
	got, err := LoadOrNew(context.Background(), s, "bob", func() StudentProfile {
		return NewProfile("bob", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	}).Get()
	require.NoError(t, err)
	assert.Equal(t, "bob", got.StudentID)
	assert.False(t, s.loaded)
}

type emptyStore struct {
	loaded bool
}

func (e *emptyStore) Exists(context.Context, string) (bool, error) { return false, nil }

func (e *emptyStore) Load(_ context.Context, id string) result.Result[StudentProfile] {
	e.loaded = true
	return result.Err[StudentProfile](result.ProfileError, "profile not found: "+id)
}

func (e *emptyStore) Save(_ context.Context, p StudentProfile) result.Result[StudentProfile] {
	return result.Ok(p)
}

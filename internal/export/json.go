// Package export writes learner data and structural graphs in formats other
// tools can read: JSON for profiles and sessions, Mermaid for graphs.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dusk-indust/learnwatch/internal/proficiency"
	"github.com/dusk-indust/learnwatch/internal/session"
	"github.com/dusk-indust/learnwatch/internal/status"
	"github.com/dusk-indust/learnwatch/internal/storage"
)

// LearnerExport is the top-level JSON export structure.
type LearnerExport struct {
	StudentID  string                     `json:"studentId"`
	ExportedAt string                     `json:"exportedAt"`
	Profile    proficiency.StudentProfile `json:"profile"`
	Report     status.Report              `json:"report"`
	Sessions   []session.LearningSession  `json:"sessions"`
}

// ExportLearner gathers everything stored for studentID. A learner with no
// profile yet exports an empty one.
func ExportLearner(ctx context.Context, store storage.Store, studentID string, now time.Time) (*LearnerExport, error) {
	profile, err := proficiency.LoadOrNew(ctx, store, studentID, func() proficiency.StudentProfile {
		return proficiency.NewProfile(studentID, now)
	}).Get()
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	sessions, err := store.Sessions(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}

	return &LearnerExport{
		StudentID:  studentID,
		ExportedAt: now.UTC().Format(time.RFC3339),
		Profile:    profile,
		Report:     status.Build(proficiency.SimpleCalculator{}, profile, sessions),
		Sessions:   sessions,
	}, nil
}

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

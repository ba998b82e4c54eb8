// Package storage persists learner profiles and archived sessions.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dusk-indust/learnwatch/internal/proficiency"
	"github.com/dusk-indust/learnwatch/internal/result"
	"github.com/dusk-indust/learnwatch/internal/session"
)

// InMemory opens a database that lives only as long as the store.
const InMemory = ":memory:"

const dbFile = "learnwatch.db"

var _ proficiency.Store = (*SQLiteStore)(nil)

// SQLiteStore keeps profiles and session history in one SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) dataDir/learnwatch.db. Pass
// InMemory for a throwaway database.
func NewSQLiteStore(dataDir string) (*SQLiteStore, error) {
	dbPath := InMemory
	if dataDir != InMemory {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
		dbPath = filepath.Join(dataDir, dbFile)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// :memory: is per connection.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS profiles (
		student_id TEXT PRIMARY KEY,
		overall_score REAL NOT NULL DEFAULT 0,
		mastery_level INTEGER NOT NULL DEFAULT 1,
		last_updated TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS pattern_stats (
		student_id TEXT NOT NULL,
		pattern_type TEXT NOT NULL,
		attempts INTEGER NOT NULL DEFAULT 0,
		successes INTEGER NOT NULL DEFAULT 0,
		total_time REAL NOT NULL DEFAULT 0,     -- seconds
		hint_level_reached INTEGER NOT NULL DEFAULT 1,
		PRIMARY KEY (student_id, pattern_type),
		FOREIGN KEY (student_id) REFERENCES profiles(student_id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL,
		file_path TEXT NOT NULL,
		started_at TEXT NOT NULL,
		ended_at TEXT,
		hint_level INTEGER NOT NULL,
		hints TEXT NOT NULL,                    -- JSON array
		task TEXT,                              -- JSON object
		task_completed INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_student ON sessions(student_id, started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Exists reports whether a profile row is stored for studentID.
func (s *SQLiteStore) Exists(ctx context.Context, studentID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles WHERE student_id = ?`, studentID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count profiles: %w", err)
	}
	return n > 0, nil
}

// Load reads a profile with all its pattern stats.
func (s *SQLiteStore) Load(ctx context.Context, studentID string) result.Result[proficiency.StudentProfile] {
	p := proficiency.StudentProfile{StudentID: studentID, PatternStats: map[string]proficiency.PatternStats{}}

	var updated string
	err := s.db.QueryRowContext(ctx,
		`SELECT overall_score, mastery_level, last_updated FROM profiles WHERE student_id = ?`,
		studentID,
	).Scan(&p.OverallScore, &p.MasteryLevel, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return result.Err[proficiency.StudentProfile](result.ProfileError, "profile not found: "+studentID)
	}
	if err != nil {
		return result.Fail[proficiency.StudentProfile](result.Wrap(result.ProfileError, fmt.Errorf("load profile: %w", err)))
	}
	p.LastUpdated = parseTime(updated)

	rows, err := s.db.QueryContext(ctx, `
		SELECT pattern_type, attempts, successes, total_time, hint_level_reached
		FROM pattern_stats WHERE student_id = ? ORDER BY pattern_type`, studentID)
	if err != nil {
		return result.Fail[proficiency.StudentProfile](result.Wrap(result.ProfileError, fmt.Errorf("load pattern stats: %w", err)))
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var st proficiency.PatternStats
		if err := rows.Scan(&st.PatternType, &st.Attempts, &st.Successes, &st.TotalTime, &st.HintLevelReached); err != nil {
			return result.Fail[proficiency.StudentProfile](result.Wrap(result.ProfileError, fmt.Errorf("scan pattern stats: %w", err)))
		}
		p.PatternStats[st.PatternType] = st
	}
	if err := rows.Err(); err != nil {
		return result.Fail[proficiency.StudentProfile](result.Wrap(result.ProfileError, err))
	}
	return result.Ok(p)
}

// Save replaces the stored profile in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, p proficiency.StudentProfile) result.Result[proficiency.StudentProfile] {
	if p.StudentID == "" {
		return result.Err[proficiency.StudentProfile](result.ValidationError, "profile has no student id")
	}
	if err := s.save(ctx, p); err != nil {
		return result.Fail[proficiency.StudentProfile](result.Wrap(result.ProfileError, err))
	}
	return result.Ok(p)
}

func (s *SQLiteStore) save(ctx context.Context, p proficiency.StudentProfile) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO profiles (student_id, overall_score, mastery_level, last_updated)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(student_id) DO UPDATE SET
			overall_score = excluded.overall_score,
			mastery_level = excluded.mastery_level,
			last_updated = excluded.last_updated`,
		p.StudentID, p.OverallScore, p.MasteryLevel, formatTime(p.LastUpdated))
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM pattern_stats WHERE student_id = ?`, p.StudentID); err != nil {
		return fmt.Errorf("clear pattern stats: %w", err)
	}
	for key, st := range p.PatternStats {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO pattern_stats (student_id, pattern_type, attempts, successes, total_time, hint_level_reached)
			VALUES (?, ?, ?, ?, ?, ?)`,
			p.StudentID, key, st.Attempts, st.Successes, st.TotalTime, st.HintLevelReached)
		if err != nil {
			return fmt.Errorf("insert pattern stats %s: %w", key, err)
		}
	}
	return tx.Commit()
}

// SaveSession archives a finished session for studentID. Saving the same
// session id again overwrites it.
func (s *SQLiteStore) SaveSession(ctx context.Context, studentID string, ls session.LearningSession) error {
	hints, err := json.Marshal(ls.HintsShown)
	if err != nil {
		return fmt.Errorf("marshal hints: %w", err)
	}
	var task sql.NullString
	if ls.Task != nil {
		b, err := json.Marshal(ls.Task)
		if err != nil {
			return fmt.Errorf("marshal task: %w", err)
		}
		task = sql.NullString{String: string(b), Valid: true}
	}
	var ended sql.NullString
	if !ls.EndedAt.IsZero() {
		ended = sql.NullString{String: formatTime(ls.EndedAt), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO sessions
			(id, student_id, file_path, started_at, ended_at, hint_level, hints, task, task_completed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ls.ID, studentID, ls.FilePath, formatTime(ls.StartedAt), ended,
		ls.CurrentHintLevel, string(hints), task, ls.TaskCompleted)
	if err != nil {
		return fmt.Errorf("save session %s: %w", ls.ID, err)
	}
	return nil
}

// Sessions returns the archived sessions of studentID, oldest first.
func (s *SQLiteStore) Sessions(ctx context.Context, studentID string) ([]session.LearningSession, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, file_path, started_at, ended_at, hint_level, hints, task, task_completed
		FROM sessions WHERE student_id = ? ORDER BY started_at, id`, studentID)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []session.LearningSession{}
	for rows.Next() {
		var (
			ls             session.LearningSession
			started, hints string
			ended, task    sql.NullString
		)
		if err := rows.Scan(&ls.ID, &ls.FilePath, &started, &ended, &ls.CurrentHintLevel, &hints, &task, &ls.TaskCompleted); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		ls.StartedAt = parseTime(started)
		if ended.Valid {
			ls.EndedAt = parseTime(ended.String)
		}
		if err := json.Unmarshal([]byte(hints), &ls.HintsShown); err != nil {
			return nil, fmt.Errorf("decode hints of %s: %w", ls.ID, err)
		}
		if task.Valid {
			var t session.Task
			if err := json.Unmarshal([]byte(task.String), &t); err != nil {
				return nil, fmt.Errorf("decode task of %s: %w", ls.ID, err)
			}
			ls.Task = &t
		}
		out = append(out, ls)
	}
	return out, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

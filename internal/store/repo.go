package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/odyssey/internal/progress"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrStaleRecord is returned when a save races a concurrent writer. The
// caller must re-read the record and retry; the engine's idempotent grant
// and commitment operations make the retry safe.
var ErrStaleRecord = errors.New("stale progress record")

// User is the per-user document. Credentials are opaque to the engine.
type User struct {
	Username        string
	Credentials     []byte
	ActiveJourneyID string
	Timezone        string
	CreatedAt       time.Time
}

// CreateUser inserts a new user document.
func (s *Store) CreateUser(ctx context.Context, u User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, credentials, active_journey_id, timezone, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		u.Username, u.Credentials, u.ActiveJourneyID, u.Timezone, u.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("create user %q: %w", u.Username, err)
	}
	return nil
}

// GetUser loads a user document by username.
func (s *Store) GetUser(ctx context.Context, username string) (User, error) {
	var u User
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT username, credentials, active_journey_id, timezone, created_at
		 FROM users WHERE username = ?`, username).
		Scan(&u.Username, &u.Credentials, &u.ActiveJourneyID, &u.Timezone, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user %q: %w", username, err)
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return u, nil
}

// SetActiveJourney updates the user's active journey pointer.
func (s *Store) SetActiveJourney(ctx context.Context, username, journeyID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET active_journey_id = ? WHERE username = ?`, journeyID, username)
	if err != nil {
		return fmt.Errorf("set active journey: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveProgress writes a progress record with optimistic concurrency.
// expectedRev 0 inserts a fresh row; otherwise the update only succeeds if
// the stored revision still matches, returning ErrStaleRecord on a lost
// race. The new revision is returned.
func (s *Store) SaveProgress(ctx context.Context, rec *progress.Record, expectedRev int64) (int64, error) {
	doc, err := json.Marshal(rec)
	if err != nil {
		return 0, fmt.Errorf("marshal record: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)

	if expectedRev == 0 {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO progress (username, journey_id, record_id, state, doc, rev, updated_at)
			 VALUES (?, ?, ?, ?, ?, 1, ?)`,
			rec.User, rec.JourneyID, rec.ID, string(rec.State), string(doc), now)
		if err != nil {
			return 0, fmt.Errorf("insert progress: %w", err)
		}
		return 1, nil
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE progress SET record_id = ?, state = ?, doc = ?, rev = ?, updated_at = ?
		 WHERE username = ? AND journey_id = ? AND rev = ?`,
		rec.ID, string(rec.State), string(doc), expectedRev+1, now,
		rec.User, rec.JourneyID, expectedRev)
	if err != nil {
		return 0, fmt.Errorf("update progress: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, ErrStaleRecord
	}
	return expectedRev + 1, nil
}

// LoadProgress reads the active progress record for a user and journey,
// returning the record and its revision for a later compare-and-swap save.
func (s *Store) LoadProgress(ctx context.Context, username, journeyID string) (*progress.Record, int64, error) {
	var doc string
	var rev int64
	err := s.db.QueryRowContext(ctx,
		`SELECT doc, rev FROM progress WHERE username = ? AND journey_id = ?`,
		username, journeyID).Scan(&doc, &rev)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("load progress: %w", err)
	}

	var rec progress.Record
	if err := json.Unmarshal([]byte(doc), &rec); err != nil {
		return nil, 0, fmt.Errorf("unmarshal record: %w", err)
	}
	return &rec, rev, nil
}

// ArchivedRecord is a retired progress record kept as permanent history.
type ArchivedRecord struct {
	Record     *progress.Record
	ArchivedAt time.Time
}

// ArchiveProgress moves a retired record from the active table into the
// archive. Archived records are never deleted.
func (s *Store) ArchiveProgress(ctx context.Context, rec *progress.Record, expectedRev int64) error {
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin archive: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM progress WHERE username = ? AND journey_id = ? AND rev = ?`,
		rec.User, rec.JourneyID, expectedRev)
	if err != nil {
		return fmt.Errorf("remove active progress: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStaleRecord
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO progress_archive (record_id, username, journey_id, state, doc, archived_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.User, rec.JourneyID, string(rec.State), string(doc), now); err != nil {
		return fmt.Errorf("insert archive: %w", err)
	}

	return tx.Commit()
}

// ListArchived returns a user's retired records, most recent first.
func (s *Store) ListArchived(ctx context.Context, username string) ([]ArchivedRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT doc, archived_at FROM progress_archive
		 WHERE username = ? ORDER BY archived_at DESC`, username)
	if err != nil {
		return nil, fmt.Errorf("list archive: %w", err)
	}
	defer rows.Close()

	var out []ArchivedRecord
	for rows.Next() {
		var doc, archivedAt string
		if err := rows.Scan(&doc, &archivedAt); err != nil {
			return nil, fmt.Errorf("scan archive row: %w", err)
		}
		var rec progress.Record
		if err := json.Unmarshal([]byte(doc), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal archived record: %w", err)
		}
		at, _ := time.Parse(time.RFC3339, archivedAt)
		out = append(out, ArchivedRecord{Record: &rec, ArchivedAt: at})
	}
	return out, rows.Err()
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/unipath-ai/unipath/core"
	"github.com/unipath-ai/unipath/store"
)

// GetShortlistEntry implements store.Shortlists.
func (s *Store) GetShortlistEntry(ctx context.Context, userID, universityID string) (*core.ShortlistEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, university_id, category, reasoning, locked, created_at
		FROM shortlist_entries WHERE user_id = ? AND university_id = ?`,
		userID, universityID)

	var e core.ShortlistEntry
	err := row.Scan(&e.ID, &e.UserID, &e.UniversityID, &e.Category, &e.Reasoning, &e.Locked, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get shortlist entry: %w", err)
	}
	return &e, nil
}

// ListShortlist implements store.Shortlists. Entries come back with the
// joined university populated, oldest first.
func (s *Store) ListShortlist(ctx context.Context, userID string) ([]core.ShortlistEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.user_id, e.university_id, e.category, e.reasoning, e.locked, e.created_at,
		       u.id, u.name, u.country, u.ranking, u.tuition_min, u.tuition_max, u.acceptance_rate
		FROM shortlist_entries e
		JOIN universities u ON u.id = e.university_id
		WHERE e.user_id = ?
		ORDER BY e.created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list shortlist: %w", err)
	}
	defer rows.Close()

	var out []core.ShortlistEntry
	for rows.Next() {
		var e core.ShortlistEntry
		var u core.University
		err := rows.Scan(&e.ID, &e.UserID, &e.UniversityID, &e.Category, &e.Reasoning, &e.Locked, &e.CreatedAt,
			&u.ID, &u.Name, &u.Country, &u.Ranking, &u.TuitionMin, &u.TuitionMax, &u.AcceptanceRate)
		if err != nil {
			return nil, fmt.Errorf("list shortlist: %w", err)
		}
		e.University = &u
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpsertShortlistEntry implements store.Shortlists. On conflict the category
// and reasoning are replaced; id, lock state and creation time survive.
func (s *Store) UpsertShortlistEntry(ctx context.Context, entry *core.ShortlistEntry) error {
	id := entry.ID
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shortlist_entries (id, user_id, university_id, category, reasoning, locked, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)
		ON CONFLICT(user_id, university_id) DO UPDATE SET
			category = excluded.category,
			reasoning = excluded.reasoning`,
		id, entry.UserID, entry.UniversityID, entry.Category, entry.Reasoning, createdAt)
	if err != nil {
		return fmt.Errorf("upsert shortlist entry: %w", err)
	}
	return nil
}

// RemoveShortlistEntry implements store.Shortlists.
func (s *Store) RemoveShortlistEntry(ctx context.Context, userID, universityID string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM shortlist_entries WHERE user_id = ? AND university_id = ?",
		userID, universityID)
	if err != nil {
		return fmt.Errorf("remove shortlist entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove shortlist entry: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// SetShortlistLocked implements store.Shortlists.
func (s *Store) SetShortlistLocked(ctx context.Context, userID, universityID string, locked bool) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE shortlist_entries SET locked = ? WHERE user_id = ? AND university_id = ?",
		locked, userID, universityID)
	if err != nil {
		return fmt.Errorf("set shortlist locked: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set shortlist locked: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

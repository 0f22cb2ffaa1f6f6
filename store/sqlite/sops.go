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

const sopSelect = `
	SELECT d.id, d.user_id, d.university_id, d.title, d.content, d.is_draft, d.created_at, d.updated_at,
	       u.id, u.name, u.country
	FROM sop_documents d
	LEFT JOIN universities u ON u.id = d.university_id`

func scanSOP(scanner interface{ Scan(...any) error }) (core.SOPDocument, error) {
	var d core.SOPDocument
	var uniID, uniName, uniCountry sql.NullString
	err := scanner.Scan(&d.ID, &d.UserID, &d.UniversityID, &d.Title, &d.Content,
		&d.IsDraft, &d.CreatedAt, &d.UpdatedAt, &uniID, &uniName, &uniCountry)
	if uniID.Valid {
		d.University = &core.University{ID: uniID.String, Name: uniName.String, Country: uniCountry.String}
	}
	return d, err
}

// CreateSOP implements store.SOPs. A missing id is generated and written back
// to the passed record.
func (s *Store) CreateSOP(ctx context.Context, doc *core.SOPDocument) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = doc.CreatedAt
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sop_documents (id, user_id, university_id, title, content, is_draft, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.UserID, doc.UniversityID, doc.Title, doc.Content,
		doc.IsDraft, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create sop: %w", err)
	}
	return nil
}

// GetSOP implements store.SOPs.
func (s *Store) GetSOP(ctx context.Context, userID, id string) (*core.SOPDocument, error) {
	row := s.db.QueryRowContext(ctx,
		sopSelect+" WHERE d.id = ? AND d.user_id = ?", id, userID)
	d, err := scanSOP(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get sop: %w", err)
	}
	return &d, nil
}

// ListSOPs implements store.SOPs. Most recently updated first.
func (s *Store) ListSOPs(ctx context.Context, userID string) ([]core.SOPDocument, error) {
	rows, err := s.db.QueryContext(ctx,
		sopSelect+" WHERE d.user_id = ? ORDER BY d.updated_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("list sops: %w", err)
	}
	defer rows.Close()

	var out []core.SOPDocument
	for rows.Next() {
		d, err := scanSOP(rows)
		if err != nil {
			return nil, fmt.Errorf("list sops: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// UpdateSOP implements store.SOPs.
func (s *Store) UpdateSOP(ctx context.Context, doc *core.SOPDocument) error {
	doc.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE sop_documents
		SET title = ?, content = ?, is_draft = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		doc.Title, doc.Content, doc.IsDraft, doc.UpdatedAt, doc.ID, doc.UserID)
	if err != nil {
		return fmt.Errorf("update sop: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update sop: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteSOP implements store.SOPs.
func (s *Store) DeleteSOP(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM sop_documents WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete sop: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete sop: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

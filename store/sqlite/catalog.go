package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/unipath-ai/unipath/core"
	"github.com/unipath-ai/unipath/store"
)

const universityColumns = "id, name, country, ranking, tuition_min, tuition_max, acceptance_rate"

func scanUniversity(scanner interface{ Scan(...any) error }) (core.University, error) {
	var u core.University
	err := scanner.Scan(&u.ID, &u.Name, &u.Country, &u.Ranking, &u.TuitionMin, &u.TuitionMax, &u.AcceptanceRate)
	return u, err
}

// GetUniversity implements store.Catalog.
func (s *Store) GetUniversity(ctx context.Context, id string) (*core.University, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+universityColumns+" FROM universities WHERE id = ?", id)
	u, err := scanUniversity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get university: %w", err)
	}
	return &u, nil
}

// ListUniversities implements store.Catalog.
func (s *Store) ListUniversities(ctx context.Context) ([]core.University, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+universityColumns+" FROM universities ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list universities: %w", err)
	}
	defer rows.Close()

	var out []core.University
	for rows.Next() {
		u, err := scanUniversity(rows)
		if err != nil {
			return nil, fmt.Errorf("list universities: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// SearchUniversities implements store.Catalog. Zero-value filter fields are
// ignored; tuition filtering compares against the upper bound.
func (s *Store) SearchUniversities(ctx context.Context, filter store.SearchFilter) ([]core.University, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 5
	}
	query := "SELECT " + universityColumns + " FROM universities WHERE 1=1"
	var args []any
	if filter.Name != "" {
		query += " AND name LIKE ? COLLATE NOCASE"
		args = append(args, "%"+filter.Name+"%")
	}
	if filter.Country != "" {
		query += " AND country = ? COLLATE NOCASE"
		args = append(args, filter.Country)
	}
	if filter.MaxTuition > 0 {
		query += " AND tuition_max <= ?"
		args = append(args, filter.MaxTuition)
	}
	query += " ORDER BY ranking, name LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search universities: %w", err)
	}
	defer rows.Close()

	var out []core.University
	for rows.Next() {
		u, err := scanUniversity(rows)
		if err != nil {
			return nil, fmt.Errorf("search universities: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// AddUniversity inserts reference data. Not part of store.Store; used by
// seeding and tests.
func (s *Store) AddUniversity(ctx context.Context, u core.University) (string, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO universities (id, name, country, ranking, tuition_min, tuition_max, acceptance_rate)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Country, u.Ranking, u.TuitionMin, u.TuitionMax, u.AcceptanceRate)
	if err != nil {
		return "", fmt.Errorf("add university: %w", err)
	}
	return u.ID, nil
}

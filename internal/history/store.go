package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"home-cloud/internal/model"
)

const defaultLimit = 100

// Store persists recognition outcomes to sqlite.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append persists a recognition record and returns its row ID.
func (s *Store) Append(ctx context.Context, record model.RecognitionRecord) (int64, error) {
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO recognition_history
			(filename, guessed_title, guessed_year, matched_title, media_kind, status, stored_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.Filename, record.GuessedTitle, record.GuessedYear,
		record.MatchedTitle, record.MediaKind, record.Status, record.StoredPath,
		createdAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("insert recognition record: %w", err)
	}

	return result.LastInsertId()
}

// Recent returns the newest records first, at most limit of them.
func (s *Store) Recent(ctx context.Context, limit int) ([]model.RecognitionRecord, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, guessed_title, guessed_year, matched_title, media_kind, status, stored_path, created_at
		FROM recognition_history
		ORDER BY id DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recognition history: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]model.RecognitionRecord, error) {
	records := make([]model.RecognitionRecord, 0)
	for rows.Next() {
		var (
			record    model.RecognitionRecord
			createdAt string
		)
		if err := rows.Scan(
			&record.ID, &record.Filename, &record.GuessedTitle, &record.GuessedYear,
			&record.MatchedTitle, &record.MediaKind, &record.Status, &record.StoredPath,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan recognition record: %w", err)
		}

		if parsed, err := time.Parse(time.RFC3339, createdAt); err == nil {
			record.CreatedAt = parsed
		}

		records = append(records, record)
	}

	return records, rows.Err()
}

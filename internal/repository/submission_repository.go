// Package repository provides data access implementations
package repository

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/abelzeko/orphanage-bot/internal/entities"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// SubmissionRepository journals the outcome of creation submissions.
// Drafts themselves are never stored.
type SubmissionRepository interface {
	SaveSubmission(rec *entities.SubmissionRecord) error
	ListSubmissions(chatID int64, limit int) ([]entities.SubmissionRecord, error)
	PruneSubmissions(before time.Time) (int64, error)
	Close() error
}

// SQLiteSubmissionRepository implements SubmissionRepository using SQLite
type SQLiteSubmissionRepository struct {
	db     *sql.DB
	DBPath string
}

// NewSQLiteSubmissionRepository opens (and creates if needed) the journal database
func NewSQLiteSubmissionRepository(dbPath string) (*SQLiteSubmissionRepository, error) {
	if dbPath == "" {
		dbDir := "data"
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, errors.Wrap(err, "failed to create database directory")
		}
		dbPath = filepath.Join(dbDir, "submissions.db")
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS submissions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		chat_id INTEGER NOT NULL DEFAULT 0,
		name TEXT NOT NULL,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		image_count INTEGER NOT NULL DEFAULT 0,
		outcome TEXT NOT NULL,
		error TEXT,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_submissions_chat ON submissions(chat_id);
	CREATE INDEX IF NOT EXISTS idx_submissions_created ON submissions(created_at);`

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to create tables")
	}

	return &SQLiteSubmissionRepository{
		db:     db,
		DBPath: dbPath,
	}, nil
}

// Close closes the database connection
func (r *SQLiteSubmissionRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveSubmission inserts rec and fills in its ID
func (r *SQLiteSubmissionRepository) SaveSubmission(rec *entities.SubmissionRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	res, err := r.db.Exec(`
		INSERT INTO submissions(chat_id, name, latitude, longitude, image_count, outcome, error, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ChatID,
		rec.Name,
		rec.Latitude,
		rec.Longitude,
		rec.ImageCount,
		string(rec.Outcome),
		rec.Error,
		rec.CreatedAt.UTC(),
	)
	if err != nil {
		return errors.Wrapf(err, "failed to insert submission for %s", rec.Name)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "failed to read submission id")
	}
	rec.ID = id
	return nil
}

// ListSubmissions returns the newest submissions of a chat, newest first
func (r *SQLiteSubmissionRepository) ListSubmissions(chatID int64, limit int) ([]entities.SubmissionRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.Query(`
		SELECT id, chat_id, name, latitude, longitude, image_count, outcome, COALESCE(error, ''), created_at
		FROM submissions
		WHERE chat_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, chatID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query submissions")
	}
	defer rows.Close()

	var result []entities.SubmissionRecord
	for rows.Next() {
		var rec entities.SubmissionRecord
		var outcome string
		if err := rows.Scan(
			&rec.ID,
			&rec.ChatID,
			&rec.Name,
			&rec.Latitude,
			&rec.Longitude,
			&rec.ImageCount,
			&outcome,
			&rec.Error,
			&rec.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan row")
		}
		rec.Outcome = entities.SubmissionOutcome(outcome)
		result = append(result, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error during row iteration")
	}
	return result, nil
}

// PruneSubmissions deletes journal entries older than before
func (r *SQLiteSubmissionRepository) PruneSubmissions(before time.Time) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM submissions WHERE created_at < ?`, before.UTC())
	if err != nil {
		return 0, errors.Wrap(err, "failed to prune submissions")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "failed to count pruned submissions")
	}
	return n, nil
}

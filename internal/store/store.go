// Package store persists users, videos, and analysis results in a local
// SQLite database.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"hootqna/models"
)

// ErrNotFound is returned when a lookup or a guarded update matches no row.
var ErrNotFound = errors.New("record not found")

// Video status values. A record moves from StatusProcessing to exactly one
// of StatusReady or StatusFailed; there is no transition out of either.
const (
	StatusProcessing = "processing"
	StatusReady      = "ready"
	StatusFailed     = "failed"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	external_auth_id TEXT UNIQUE NOT NULL,
	email TEXT,
	name TEXT,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS videos (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id),
	provider_video_id TEXT UNIQUE,
	filename TEXT,
	status TEXT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS analyses (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	video_id INTEGER NOT NULL REFERENCES videos(id),
	analysis_type TEXT NOT NULL,
	result_json TEXT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(video_id, analysis_type)
);
`

// Store wraps the SQLite database holding user, video, and analysis records.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetOrCreateUser finds a user by external auth id or creates one, returning
// the internal user id either way.
func (s *Store) GetOrCreateUser(externalAuthID, email, name string) (int64, error) {
	var id int64
	err := s.db.QueryRow(`SELECT id FROM users WHERE external_auth_id = ?`, externalAuthID).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("query user: %w", err)
	}

	// DO NOTHING keeps the insert race-safe without letting a later call
	// with empty profile fields clobber what an earlier one stored.
	_, err = s.db.Exec(
		`INSERT INTO users (external_auth_id, email, name) VALUES (?, ?, ?)
		 ON CONFLICT(external_auth_id) DO NOTHING`,
		externalAuthID, email, name,
	)
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	// Re-read rather than trusting LastInsertId: the conflict path of the
	// upsert does not produce a fresh rowid.
	if err := s.db.QueryRow(`SELECT id FROM users WHERE external_auth_id = ?`, externalAuthID).Scan(&id); err != nil {
		return 0, fmt.Errorf("re-query user: %w", err)
	}
	return id, nil
}

// CreateVideo inserts a new video record and returns its internal id.
func (s *Store) CreateVideo(userID int64, filename, providerVideoID, status string) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO videos (user_id, filename, provider_video_id, status) VALUES (?, ?, ?, ?)`,
		userID, filename, nullable(providerVideoID), status,
	)
	if err != nil {
		return 0, fmt.Errorf("insert video: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert video id: %w", err)
	}
	return id, nil
}

// SetVideoStatus moves the record with the given provider video id out of
// processing. The update is guarded: records already ready or failed are
// never touched. A miss returns ErrNotFound so callers can report rather
// than fail.
func (s *Store) SetVideoStatus(providerVideoID, status string) error {
	res, err := s.db.Exec(
		`UPDATE videos SET status = ? WHERE provider_video_id = ? AND status = ?`,
		status, providerVideoID, StatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("update video status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update video status: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// VideoByID returns a single video record by internal id, or nil if absent.
func (s *Store) VideoByID(id int64) (*models.VideoRecord, error) {
	row := s.db.QueryRow(
		`SELECT id, user_id, provider_video_id, filename, status, created_at FROM videos WHERE id = ?`, id)
	return scanVideo(row)
}

// VideoByProviderID returns the record carrying the given provider video id,
// or nil if absent.
func (s *Store) VideoByProviderID(providerVideoID string) (*models.VideoRecord, error) {
	row := s.db.QueryRow(
		`SELECT id, user_id, provider_video_id, filename, status, created_at FROM videos WHERE provider_video_id = ?`,
		providerVideoID)
	return scanVideo(row)
}

// VideosForUser lists a user's videos, most recent upload first.
func (s *Store) VideosForUser(userID int64) ([]models.VideoRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, provider_video_id, filename, status, created_at
		 FROM videos WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	var videos []models.VideoRecord
	for rows.Next() {
		v, err := scanVideoRow(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, *v)
	}
	return videos, rows.Err()
}

// SaveAnalysis upserts an analysis result for (videoID, analysisType). A
// later write replaces the prior record; there is never more than one row
// per pair.
func (s *Store) SaveAnalysis(videoID int64, analysisType string, result json.RawMessage) error {
	_, err := s.db.Exec(
		`INSERT INTO analyses (video_id, analysis_type, result_json) VALUES (?, ?, ?)
		 ON CONFLICT(video_id, analysis_type) DO UPDATE
		 SET result_json = excluded.result_json, created_at = CURRENT_TIMESTAMP`,
		videoID, analysisType, string(result),
	)
	if err != nil {
		return fmt.Errorf("upsert analysis: %w", err)
	}
	return nil
}

// Analysis returns the stored result for (videoID, analysisType), or nil if
// none has been saved.
func (s *Store) Analysis(videoID int64, analysisType string) (json.RawMessage, error) {
	var result string
	err := s.db.QueryRow(
		`SELECT result_json FROM analyses WHERE video_id = ? AND analysis_type = ?`,
		videoID, analysisType).Scan(&result)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query analysis: %w", err)
	}
	return json.RawMessage(result), nil
}

// AnalysisCount reports how many analysis rows exist for the pair. Exists to
// let tests assert upsert semantics.
func (s *Store) AnalysisCount(videoID int64, analysisType string) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM analyses WHERE video_id = ? AND analysis_type = ?`,
		videoID, analysisType).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count analyses: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(row *sql.Row) (*models.VideoRecord, error) {
	v, err := scanVideoRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return v, err
}

func scanVideoRow(row rowScanner) (*models.VideoRecord, error) {
	var v models.VideoRecord
	var providerID sql.NullString
	var filename sql.NullString
	var createdAt time.Time
	if err := row.Scan(&v.ID, &v.UserID, &providerID, &filename, &v.Status, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan video: %w", err)
	}
	if providerID.Valid {
		v.ProviderVideoID = providerID.String
	}
	if filename.Valid {
		v.Filename = filename.String
	}
	v.CreatedAt = createdAt
	return &v, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Package archive persists finished analysis records to a local sqlite
// database. The pipeline emits records through the Archiver contract; only
// this package touches storage.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/jcortez/swinglab/internal/domain/model"
)

// Sentinel kinds for archive errors.
var (
	ErrSave     = errors.New("archive save failed")
	ErrNotFound = errors.New("analysis record not found")
)

// DB archives analysis records in sqlite.
type DB struct {
	db *sql.DB
}

// Open opens (and initializes) the archive at path. ":memory:" works for
// tests.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS analyses (
			attempt_id   TEXT PRIMARY KEY,
			session_id   TEXT,
			athlete_id   TEXT,
			video_ref    TEXT,
			overall      INTEGER,
			label        TEXT,
			insufficient INTEGER,
			raw_metrics  TEXT,
			per_metric   TEXT,
			cards        TEXT,
			created_at   TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_analyses_athlete ON analyses(athlete_id);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init archive schema: %w", err)
	}
	return &DB{db: db}, nil
}

// Close releases the database handle.
func (a *DB) Close() error { return a.db.Close() }

// Save writes one finished analysis record. Re-saving the same attempt id
// overwrites, which makes persistence retries idempotent.
func (a *DB) Save(ctx context.Context, record model.AnalysisRecord) error {
	rawJSON, err := json.Marshal(record.RawMetrics)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSave, err)
	}
	perMetricJSON, err := json.Marshal(record.Score.PerMetric)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSave, err)
	}
	cardsJSON, err := json.Marshal(record.Cards)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSave, err)
	}

	_, err = a.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO analyses
			(attempt_id, session_id, athlete_id, video_ref, overall, label,
			 insufficient, raw_metrics, per_metric, cards, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.AttemptID, record.SessionID, record.AthleteID, record.VideoRef,
		record.Score.Overall, record.Score.Label,
		boolToInt(record.Score.InsufficientData),
		string(rawJSON), string(perMetricJSON), string(cardsJSON),
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSave, err)
	}
	return nil
}

// Load reads one archived record by attempt id.
func (a *DB) Load(ctx context.Context, attemptID string) (model.AnalysisRecord, error) {
	row := a.db.QueryRowContext(ctx, `
		SELECT attempt_id, session_id, athlete_id, video_ref, overall, label,
		       insufficient, raw_metrics, per_metric, cards, created_at
		FROM analyses WHERE attempt_id = ?`, attemptID)

	var rec model.AnalysisRecord
	var insufficient int
	var rawJSON, perMetricJSON, cardsJSON string
	err := row.Scan(&rec.AttemptID, &rec.SessionID, &rec.AthleteID, &rec.VideoRef,
		&rec.Score.Overall, &rec.Score.Label, &insufficient,
		&rawJSON, &perMetricJSON, &cardsJSON, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.AnalysisRecord{}, ErrNotFound
	}
	if err != nil {
		return model.AnalysisRecord{}, fmt.Errorf("load record: %w", err)
	}
	rec.Score.InsufficientData = insufficient != 0
	if err := json.Unmarshal([]byte(rawJSON), &rec.RawMetrics); err != nil {
		return model.AnalysisRecord{}, fmt.Errorf("load record: %w", err)
	}
	if err := json.Unmarshal([]byte(perMetricJSON), &rec.Score.PerMetric); err != nil {
		return model.AnalysisRecord{}, fmt.Errorf("load record: %w", err)
	}
	if err := json.Unmarshal([]byte(cardsJSON), &rec.Cards); err != nil {
		return model.AnalysisRecord{}, fmt.Errorf("load record: %w", err)
	}
	return rec, nil
}

// CountForAthlete returns how many analyses an athlete has archived.
func (a *DB) CountForAthlete(ctx context.Context, athleteID string) (int, error) {
	var n int
	err := a.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM analyses WHERE athlete_id = ?`, athleteID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

package drills

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/jcortez/swinglab/internal/domain/model"
)

// SQLCatalog serves drills from a sqlite database maintained outside the
// service.
type SQLCatalog struct {
	db *sql.DB
}

// OpenSQL opens the drill catalog at path, creating and seeding the schema
// when empty so a fresh file is immediately usable.
func OpenSQL(path string) (*SQLCatalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open drill catalog: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS drills (
			metric       TEXT PRIMARY KEY,
			key          TEXT,
			name         TEXT,
			instructions TEXT,
			equipment    TEXT
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init drill schema: %w", err)
	}

	c := &SQLCatalog{db: db}
	if err := c.seedIfEmpty(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// Close releases the database handle.
func (c *SQLCatalog) Close() error { return c.db.Close() }

// Lookup resolves the drill for a metric. A missing drill is ok=false, not
// an error.
func (c *SQLCatalog) Lookup(ctx context.Context, metric string) (model.Drill, bool, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT key, name, instructions, equipment FROM drills WHERE metric = ?`, metric)

	var d model.Drill
	err := row.Scan(&d.Key, &d.Name, &d.Instructions, &d.Equipment)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Drill{}, false, nil
	}
	if err != nil {
		return model.Drill{}, false, fmt.Errorf("drill lookup: %w", err)
	}
	return d, true, nil
}

func (c *SQLCatalog) seedIfEmpty() error {
	var n int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM drills`).Scan(&n); err != nil {
		return fmt.Errorf("count drills: %w", err)
	}
	if n > 0 {
		return nil
	}
	for metric, d := range seedDrills() {
		_, err := c.db.Exec(
			`INSERT INTO drills (metric, key, name, instructions, equipment) VALUES (?, ?, ?, ?, ?)`,
			metric, d.Key, d.Name, d.Instructions, d.Equipment)
		if err != nil {
			return fmt.Errorf("seed drills: %w", err)
		}
	}
	return nil
}

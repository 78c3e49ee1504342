package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"hockeyscraper/pkg/models"
)

const createPlayersTable = `CREATE TABLE IF NOT EXISTS players (
	id integer not null primary key,
	name text not null,
	position text,
	nationality text,
	age text,
	dob text,
	jersey text,
	height text,
	weight text,
	team text,
	profile_url text,
	scraped_at datetime not null
);`

const insertPlayer = `INSERT INTO players
	(name, position, nationality, age, dob, jersey, height, weight, team, profile_url, scraped_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`

// SQLiteSink mirrors every record into a players table
type SQLiteSink struct {
	db  *sql.DB
	now func() time.Time
	mu  sync.Mutex
}

// OpenSQLite opens (or creates) the database at path and ensures the schema
func OpenSQLite(ctx context.Context, path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// The driver does not allow concurrent writers
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, createPlayersTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create players table: %w", err)
	}

	return &SQLiteSink{db: db, now: time.Now}, nil
}

// Write inserts one record
func (s *SQLiteSink) Write(ctx context.Context, rec models.PlayerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, insertPlayer,
		rec.Name, rec.Position, rec.Nationality, rec.Age, rec.DateOfBirth,
		rec.JerseyNumber, rec.Height, rec.Weight, rec.Team, rec.ProfileURL,
		s.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert player %q: %w", rec.Name, err)
	}
	return nil
}

// Count returns the number of mirrored records
func (s *SQLiteSink) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM players;").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count players: %w", err)
	}
	return n, nil
}

// Close closes the database
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/swwwjjw/barometer-pulkovo/internal/headhunter"
)

const schema = `
CREATE TABLE IF NOT EXISTS fetches (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	fetched_at TEXT    NOT NULL,
	total      INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS vacancies (
	fetch_id   INTEGER NOT NULL REFERENCES fetches(id) ON DELETE CASCADE,
	vacancy_id TEXT    NOT NULL,
	payload    TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS vacancies_fetch_id ON vacancies(fetch_id);
`

// SQLiteStore keeps every fetch as a row in fetches plus its raw items in
// vacancies. Load returns the items of the latest fetch.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	// modernc sqlite uses DSN like: file:foo.db?_pragma=busy_timeout(5000)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// sqlite wants a single writer
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite schema: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, items []headhunter.Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		`INSERT INTO fetches (fetched_at, total) VALUES (?, ?);`,
		s.now().UTC().Format(time.RFC3339), len(items),
	)
	if err != nil {
		return fmt.Errorf("insert fetch: %w", err)
	}
	fetchID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO vacancies (fetch_id, vacancy_id, payload) VALUES (?, ?, ?);`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, item := range items {
		payload, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("encode vacancy: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, fetchID, headhunter.ItemID(item), string(payload)); err != nil {
			return fmt.Errorf("insert vacancy: %w", err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) Load(ctx context.Context) ([]headhunter.Item, error) {
	var fetchID int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM fetches ORDER BY id DESC LIMIT 1;`).Scan(&fetchID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("query latest fetch: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM vacancies WHERE fetch_id = ? ORDER BY rowid;`, fetchID)
	if err != nil {
		return nil, fmt.Errorf("query vacancies: %w", err)
	}
	defer rows.Close()

	items := []headhunter.Item{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}

		var item headhunter.Item
		if err := json.Unmarshal([]byte(payload), &item); err != nil {
			return nil, fmt.Errorf("decode vacancy payload: %w", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

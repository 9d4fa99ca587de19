package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // sqlite driver
)

// SQLite is a storage that uses SQLite as a backend.
type SQLite struct {
	db *sqlx.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	chat_id    TEXT PRIMARY KEY,
	username   TEXT NOT NULL DEFAULT '',
	authorized BOOLEAN NOT NULL DEFAULT FALSE,
	subscribed BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS feeds (
	category   TEXT PRIMARY KEY,
	articles   TEXT NOT NULL,
	fetched_at DATETIME NOT NULL
);`

// NewSQLite creates new SQLite storage in the given directory.
func NewSQLite(dir string) (*SQLite, error) {
	dsn := fmt.Sprintf("%s?_journal=WAL&_synchronous=NORMAL&_busy_timeout=5000",
		path.Join(dir, "feedcache.sqlite"))

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite in %s: %w", dir, err)
	}

	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if _, err = db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Put puts user to storage.
func (s *SQLite) Put(ctx context.Context, u User) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO users (chat_id, username, authorized, subscribed)
		VALUES (:chat_id, :username, :authorized, :subscribed)
		ON CONFLICT(chat_id) DO UPDATE SET
			username = excluded.username,
			authorized = excluded.authorized,
			subscribed = excluded.subscribed`, u)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// Get returns user from storage.
func (s *SQLite) Get(ctx context.Context, chatID string) (User, error) {
	var u User
	err := s.db.GetContext(ctx, &u, `SELECT chat_id, username, authorized, subscribed
		FROM users WHERE chat_id = ?`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}

// List returns users from storage.
func (s *SQLite) List(ctx context.Context, req ListRequest) ([]User, error) {
	query := `SELECT chat_id, username, authorized, subscribed FROM users`
	if req.OnlySubscribed {
		query += ` WHERE subscribed AND authorized`
	}
	query += ` ORDER BY chat_id`

	var users []User
	if err := s.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	return users, nil
}

// Delete removes user from storage.
func (s *SQLite) Delete(ctx context.Context, chatID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE chat_id = ?`, chatID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

type feedRow struct {
	Category  string    `db:"category"`
	Articles  string    `db:"articles"`
	FetchedAt time.Time `db:"fetched_at"`
}

// Load returns the persisted snapshot of the feed category.
func (s *SQLite) Load(ctx context.Context, category string) (Snapshot, error) {
	var row feedRow
	err := s.db.GetContext(ctx, &row, `SELECT category, articles, fetched_at
		FROM feeds WHERE category = ?`, category)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("select feed %s: %w", category, err)
	}

	snap := Snapshot{FetchedAt: row.FetchedAt}
	if err = json.Unmarshal([]byte(row.Articles), &snap.Articles); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal articles of %s: %w", category, err)
	}
	return snap, nil
}

// Save persists the snapshot of the feed category.
func (s *SQLite) Save(ctx context.Context, category string, snap Snapshot) error {
	bts, err := json.Marshal(snap.Articles)
	if err != nil {
		return fmt.Errorf("marshal articles of %s: %w", category, err)
	}

	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO feeds (category, articles, fetched_at)
		VALUES (:category, :articles, :fetched_at)
		ON CONFLICT(category) DO UPDATE SET
			articles = excluded.articles,
			fetched_at = excluded.fetched_at`,
		feedRow{Category: category, Articles: string(bts), FetchedAt: snap.FetchedAt.UTC()})
	if err != nil {
		return fmt.Errorf("upsert feed %s: %w", category, err)
	}
	return nil
}

// Clear removes the persisted snapshot of the feed category.
func (s *SQLite) Clear(ctx context.Context, category string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM feeds WHERE category = ?`, category); err != nil {
		return fmt.Errorf("delete feed %s: %w", category, err)
	}
	return nil
}

// ClearAll removes snapshots of all feed categories.
func (s *SQLite) ClearAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM feeds`); err != nil {
		return fmt.Errorf("delete feeds: %w", err)
	}
	return nil
}

// Close closes the storage.
func (s *SQLite) Close() error { return s.db.Close() }

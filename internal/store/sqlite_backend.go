package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/gnomegl/iceslurp/internal/models"
)

// SQLiteFile is the database file name inside the state directory.
const SQLiteFile = "iceslurp.db"

// SQLiteBackend keeps all three stores in one database so a checkpoint is a
// single transaction instead of three file replacements.
type SQLiteBackend struct {
	db     *sql.DB
	dbPath string
}

func OpenSQLite(dir string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	dbPath := filepath.Join(dir, SQLiteFile)

	db, err := sql.Open("sqlite", dbPath+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	b := &SQLiteBackend{db: db, dbPath: dbPath}

	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptState, dbPath, err)
	}
	if err := b.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return b, nil
}

func (b *SQLiteBackend) String() string {
	return "sqlite:" + b.dbPath
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

func (b *SQLiteBackend) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS followers (
		account_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		follower_id TEXT NOT NULL,
		PRIMARY KEY (account_id, seq)
	);

	CREATE TABLE IF NOT EXISTS identities (
		id TEXT PRIMARY KEY,
		handle TEXT NOT NULL,
		position INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS foreigners (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL
	);
	`
	_, err := b.db.ExecContext(context.Background(), schema)
	return err
}

func (b *SQLiteBackend) Load(ctx context.Context) (*State, error) {
	state := NewState()

	err := b.queryEach(ctx, "SELECT id FROM accounts ORDER BY position", func(rows *sql.Rows) error {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		state.Relationships.Add(models.AccountID(id))
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = b.queryEach(ctx, "SELECT account_id, follower_id FROM followers ORDER BY account_id, seq", func(rows *sql.Rows) error {
		var account, follower string
		if err := rows.Scan(&account, &follower); err != nil {
			return err
		}
		if !state.Relationships.Has(models.AccountID(account)) {
			return fmt.Errorf("follower row references unknown account %s", account)
		}
		state.Relationships.Append(models.AccountID(account), models.AccountID(follower))
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = b.queryEach(ctx, "SELECT id, handle FROM identities ORDER BY position", func(rows *sql.Rows) error {
		var id, handle string
		if err := rows.Scan(&id, &handle); err != nil {
			return err
		}
		state.Identities.Set(models.AccountID(id), handle)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = b.queryEach(ctx, "SELECT id FROM foreigners ORDER BY position", func(rows *sql.Rows) error {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		state.Foreigners.Insert(models.AccountID(id))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return state, nil
}

func (b *SQLiteBackend) queryEach(ctx context.Context, query string, fn func(*sql.Rows) error) error {
	rows, err := b.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorruptState, b.dbPath, err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := fn(rows); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrCorruptState, b.dbPath, err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorruptState, b.dbPath, err)
	}
	return nil
}

// Save replaces the stored snapshot inside one transaction.
func (b *SQLiteBackend) Save(ctx context.Context, state *State) (err error) {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"accounts", "followers", "identities", "foreigners"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for i, id := range state.Relationships.IDs() {
		if _, err = tx.ExecContext(ctx, "INSERT INTO accounts (id, position) VALUES (?, ?)", string(id), i); err != nil {
			return fmt.Errorf("failed to insert account %s: %w", id, err)
		}
		for seq, follower := range state.Relationships.Followers(id) {
			if _, err = tx.ExecContext(ctx,
				"INSERT INTO followers (account_id, seq, follower_id) VALUES (?, ?, ?)",
				string(id), seq, string(follower)); err != nil {
				return fmt.Errorf("failed to insert follower of %s: %w", id, err)
			}
		}
	}

	for i, id := range state.Identities.IDs() {
		handle, _ := state.Identities.Handle(id)
		if _, err = tx.ExecContext(ctx, "INSERT INTO identities (id, handle, position) VALUES (?, ?, ?)", string(id), handle, i); err != nil {
			return fmt.Errorf("failed to insert identity %s: %w", id, err)
		}
	}

	for i, id := range state.Foreigners.IDs() {
		if _, err = tx.ExecContext(ctx, "INSERT INTO foreigners (id, position) VALUES (?, ?)", string(id), i); err != nil {
			return fmt.Errorf("failed to insert foreigner %s: %w", id, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

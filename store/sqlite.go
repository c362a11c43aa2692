package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteBackend keeps the store in an SQLite table. The position column
// preserves the store order.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend opens (or creates) the database at dbPath.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	backend := &SQLiteBackend{db: db}
	if err := backend.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return backend, nil
}

// initSchema creates the items table if it doesn't exist.
func (sb *SQLiteBackend) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS items (
		position INTEGER PRIMARY KEY,
		id TEXT NOT NULL,
		title TEXT NOT NULL UNIQUE,
		link TEXT NOT NULL,
		discovered_date TEXT NOT NULL,
		category TEXT,
		tier TEXT
	);
	`

	_, err := sb.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (sb *SQLiteBackend) Close() error {
	return sb.db.Close()
}

// Load returns every row in position order. A row that cannot be parsed
// fails the whole load.
func (sb *SQLiteBackend) Load(ctx context.Context) ([]Item, error) {
	query := `
		SELECT id, title, link, discovered_date, category, tier
		FROM items
		ORDER BY position
	`

	rows, err := sb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var idStr, title, link, discoveredDate string
		var category, tier sql.NullString

		if err := rows.Scan(&idStr, &title, &link, &discoveredDate, &category, &tier); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}

		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse item ID %q: %w", idStr, err)
		}
		if _, err := time.Parse(DateLayout, discoveredDate); err != nil {
			return nil, fmt.Errorf("failed to parse discovered date %q: %w", discoveredDate, err)
		}

		items = append(items, Item{
			ID:             id,
			Title:          title,
			Link:           link,
			DiscoveredDate: discoveredDate,
			Category:       category.String,
			Tier:           tier.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read items: %w", err)
	}

	return items, nil
}

// Save replaces the table contents in a single transaction.
func (sb *SQLiteBackend) Save(ctx context.Context, items []Item) error {
	tx, err := sb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op after Commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM items"); err != nil {
		return fmt.Errorf("failed to clear items: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO items (
			position, id, title, link, discovered_date, category, tier
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, item := range items {
		_, err := stmt.ExecContext(ctx,
			i,
			item.ID.String(),
			item.Title,
			item.Link,
			item.DiscoveredDate,
			nullString(item.Category),
			nullString(item.Tier),
		)
		if err != nil {
			return fmt.Errorf("failed to insert item %q: %w", item.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit items: %w", err)
	}

	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

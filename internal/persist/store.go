// Package persist keeps unpublished local edits durable across restarts.
// A SQLite-backed item store holds serialized values and relations; the
// Bridge watches the event stream and writes them down on a debounce.
package persist

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/geobrowser/geogenesis-sub006/internal/graph"
)

//go:embed schema.sql
var schemaSQL string

const currentSchemaVersion = 1

// Kind tags what an Item's payload decodes to.
type Kind string

const (
	KindValue    Kind = "value"
	KindRelation Kind = "relation"
)

// Item is one durable record: exactly one of Value or Relation is set,
// matching Kind.
type Item struct {
	ID       string
	Kind     Kind
	EntityID string
	SpaceID  string
	Value    *graph.Value
	Relation *graph.Relation
}

// ValueItem wraps a value as a durable item.
func ValueItem(v graph.Value) Item {
	return Item{ID: v.ID, Kind: KindValue, EntityID: v.EntityID, SpaceID: v.SpaceID, Value: &v}
}

// RelationItem wraps a relation as a durable item.
func RelationItem(r graph.Relation) Item {
	return Item{ID: r.ID, Kind: KindRelation, EntityID: r.FromEntity.ID, SpaceID: r.SpaceID, Relation: &r}
}

// Store provides durable storage for local items.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path, applying
// pragmas and the schema. Idempotent - safe to call on an existing file.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// BulkPut upserts all items in one transaction. Existing ids are replaced
// wholesale.
func (s *Store) BulkPut(ctx context.Context, items []Item) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("bulk put: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO local_items (id, kind, entity_id, space_id, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			entity_id = excluded.entity_id,
			space_id = excluded.space_id,
			payload = excluded.payload
	`)
	if err != nil {
		return fmt.Errorf("bulk put: prepare: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		payload, err := marshalPayload(item)
		if err != nil {
			return fmt.Errorf("bulk put %s: %w", item.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, item.ID, string(item.Kind), item.EntityID, item.SpaceID, payload); err != nil {
			return fmt.Errorf("bulk put %s: %w", item.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("bulk put: commit: %w", err)
	}
	return nil
}

// BulkDelete removes the rows with the given ids. Unknown ids are ignored.
func (s *Store) BulkDelete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("bulk delete: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `DELETE FROM local_items WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("bulk delete: prepare: %w", err)
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("bulk delete %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("bulk delete: commit: %w", err)
	}
	return nil
}

// DeleteWhereSpace removes every row scoped to the given space.
func (s *Store) DeleteWhereSpace(ctx context.Context, spaceID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM local_items WHERE space_id = ?`, spaceID); err != nil {
		return fmt.Errorf("delete space %s: %w", spaceID, err)
	}
	return nil
}

// All returns every stored item, ordered by id for determinism.
func (s *Store) All(ctx context.Context) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, entity_id, space_id, payload
		FROM local_items
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var (
			item    Item
			kind    string
			payload string
		)
		if err := rows.Scan(&item.ID, &kind, &item.EntityID, &item.SpaceID, &payload); err != nil {
			return nil, fmt.Errorf("read items: scan: %w", err)
		}
		item.Kind = Kind(kind)
		if err := unmarshalPayload(&item, payload); err != nil {
			return nil, fmt.Errorf("read item %s: %w", item.ID, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}
	return items, nil
}

// Count returns the number of stored items.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM local_items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return n, nil
}

// marshalPayload serializes the item's record as canonical JSON so two
// writes of the same record produce byte-identical rows.
func marshalPayload(item Item) (string, error) {
	switch item.Kind {
	case KindValue:
		if item.Value == nil {
			return "", fmt.Errorf("value item without value")
		}
		data, err := graph.MarshalCanonical(item.Value)
		if err != nil {
			return "", err
		}
		return string(data), nil
	case KindRelation:
		if item.Relation == nil {
			return "", fmt.Errorf("relation item without relation")
		}
		data, err := graph.MarshalCanonical(item.Relation)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unknown item kind %q", item.Kind)
	}
}

func unmarshalPayload(item *Item, payload string) error {
	switch item.Kind {
	case KindValue:
		var v graph.Value
		if err := json.Unmarshal([]byte(payload), &v); err != nil {
			return fmt.Errorf("decode value payload: %w", err)
		}
		item.Value = &v
	case KindRelation:
		var r graph.Relation
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			return fmt.Errorf("decode relation payload: %w", err)
		}
		item.Relation = &r
	default:
		return fmt.Errorf("unknown item kind %q", item.Kind)
	}
	return nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// applySchema creates tables if they don't exist. Idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

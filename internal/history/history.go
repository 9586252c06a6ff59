package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hearthlabs/hearthctl/internal/infrastructure/database"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// Entry is one recorded state change.
type Entry struct {
	ID         int64
	EntityID   string
	Domain     string
	State      string
	OldState   string
	Attributes map[string]any
	RecordedAt time.Time
}

// Repository persists state changes to the local SQLite history store.
type Repository struct {
	db *database.DB
}

// NewRepository wraps an open, migrated database.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// Record appends one state change.
//
// Parameters:
//   - ctx: cancellation and timeout
//   - entityID: full entity id, e.g. "light.kitchen"
//   - state: new state string
//   - oldState: previous state, empty when unknown
//   - attributes: attribute map, stored as JSON; may be nil
//
// Returns:
//   - error: nil on success, otherwise the underlying database error
func (r *Repository) Record(ctx context.Context, entityID, state, oldState string, attributes map[string]any) error {
	if entityID == "" {
		return fmt.Errorf("entity id is required")
	}

	var attrJSON string
	if len(attributes) > 0 {
		encoded, err := json.Marshal(attributes)
		if err != nil {
			return fmt.Errorf("marshalling attributes: %w", err)
		}
		attrJSON = string(encoded)
	}

	domain := entityID
	if i := strings.IndexByte(entityID, '.'); i >= 0 {
		domain = entityID[:i]
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO state_history
		   (entity_id, domain, state, old_state, attributes, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entityID, domain, state, oldState, attrJSON,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting state history: %w", err)
	}
	return nil
}

// ForEntity returns recent entries for one entity, newest first.
// limit defaults to 50 and caps at 500.
func (r *Repository) ForEntity(ctx context.Context, entityID string, limit int) ([]Entry, error) {
	if entityID == "" {
		return nil, fmt.Errorf("entity id is required")
	}
	limit = clampLimit(limit)

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, entity_id, domain, state, old_state, attributes, recorded_at
		 FROM state_history
		 WHERE entity_id = ?
		 ORDER BY recorded_at DESC, id DESC
		 LIMIT ?`,
		entityID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying state history: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows, limit)
}

// Recent returns the most recent entries across all entities, newest
// first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]Entry, error) {
	limit = clampLimit(limit)

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, entity_id, domain, state, old_state, attributes, recorded_at
		 FROM state_history
		 ORDER BY recorded_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying state history: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows, limit)
}

// Prune deletes entries older than the cutoff and reports how many rows
// went away.
func (r *Repository) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM state_history WHERE recorded_at < ?",
		olderThan.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("pruning state history: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting pruned rows: %w", err)
	}
	return deleted, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

func scanEntries(rows *sql.Rows, capacity int) ([]Entry, error) {
	entries := make([]Entry, 0, capacity)
	for rows.Next() {
		var entry Entry
		var oldState, attrJSON sql.NullString
		var recordedAt string

		if err := rows.Scan(&entry.ID, &entry.EntityID, &entry.Domain,
			&entry.State, &oldState, &attrJSON, &recordedAt); err != nil {
			return nil, fmt.Errorf("scanning state history: %w", err)
		}
		entry.OldState = oldState.String
		if attrJSON.String != "" {
			if err := json.Unmarshal([]byte(attrJSON.String), &entry.Attributes); err != nil {
				return nil, fmt.Errorf("unmarshalling attributes: %w", err)
			}
		}
		entry.RecordedAt, _ = time.Parse(time.RFC3339Nano, recordedAt)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating state history: %w", err)
	}
	return entries, nil
}

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Inova117/mamapanic/internal/audit"
)

// AppendAuditEntry writes one audit record. The audit_log table is
// append-only. Satisfies audit.Store.
func (db *DB) AppendAuditEntry(ctx context.Context, entry audit.Entry) error {
	metadata := entry.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("storage: marshal audit metadata: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO audit_log (id, user_id, action, resource, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.UserID, string(entry.Action), string(entry.Resource), metaJSON, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("storage: append audit entry: %w", err)
	}
	return nil
}

// ListAuditEntries returns recent audit records for admin review,
// newest first, optionally filtered by user.
func (db *DB) ListAuditEntries(ctx context.Context, userID *uuid.UUID, limit int) ([]audit.Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := `SELECT id, user_id, action, resource, metadata, created_at FROM audit_log`
	args := []any{}
	if userID != nil {
		query += ` WHERE user_id = $1`
		args = append(args, userID.String())
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d`, limit)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var e audit.Entry
		var action, resource string
		var metaJSON []byte
		if err := rows.Scan(&e.ID, &e.UserID, &action, &resource, &metaJSON, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan audit entry: %w", err)
		}
		e.Action = audit.Action(action)
		e.Resource = audit.Resource(resource)
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &e.Metadata); err != nil {
				return nil, fmt.Errorf("storage: unmarshal audit metadata: %w", err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// PruneAuditLog deletes audit records older than the retention window
// and returns how many were removed.
func (db *DB) PruneAuditLog(ctx context.Context, retention time.Duration) (int64, error) {
	tag, err := db.pool.Exec(ctx,
		`DELETE FROM audit_log WHERE created_at < $1`,
		time.Now().UTC().Add(-retention),
	)
	if err != nil {
		return 0, fmt.Errorf("storage: prune audit log: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Package repository persists dashboard state in SQLite: the warm-start
// snapshot of the in-memory store and the encrypted settings table.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Freakandi/ha-pp-reader-sub007/internal/apperrors"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/store"
)

// SnapshotRepository stores the latest store snapshot so a restart can
// serve cached data before the first upstream refresh completes.
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a snapshot repository.
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Save replaces the persisted snapshot.
func (r *SnapshotRepository) Save(ctx context.Context, snap store.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrFailedToPersistSnapshot, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO snapshots (id, payload, saved_at)
		VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at
	`, string(payload), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrFailedToPersistSnapshot, err)
	}
	return nil
}

// Load returns the persisted snapshot and when it was saved.
func (r *SnapshotRepository) Load(ctx context.Context) (store.Snapshot, time.Time, error) {
	var payload, savedAtRaw string
	err := r.db.QueryRowContext(ctx, `SELECT payload, saved_at FROM snapshots WHERE id = 1`).
		Scan(&payload, &savedAtRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Snapshot{}, time.Time{}, apperrors.ErrSnapshotNotFound
	}
	if err != nil {
		return store.Snapshot{}, time.Time{}, fmt.Errorf("%w: %v", apperrors.ErrFailedToLoadSnapshot, err)
	}

	var snap store.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return store.Snapshot{}, time.Time{}, fmt.Errorf("%w: %v", apperrors.ErrFailedToLoadSnapshot, err)
	}
	savedAt, err := time.Parse(time.RFC3339Nano, savedAtRaw)
	if err != nil {
		savedAt = time.Time{}
	}
	return snap, savedAt, nil
}

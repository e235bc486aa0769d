package storage

import (
	"context"
	"time"

	"github.com/poiesic/recommendit/core"
)

// SnapshotInfo describes a stored catalog snapshot.
type SnapshotInfo struct {
	Count     int       `json:"count"`
	Dimension int       `json:"dimension"`
	Model     string    `json:"model,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SnapshotRepository persists one complete catalog snapshot.
// A snapshot is replaced wholesale; records are never updated in place.
type SnapshotRepository interface {
	// SaveSnapshot replaces the stored snapshot with records, in order.
	// Records must form a valid catalog (see catalog.New).
	// The snapshot metadata is written last, so an interrupted save
	// leaves no loadable snapshot rather than a partial one.
	SaveSnapshot(ctx context.Context, records []*core.CatalogRecord, model string) (*SnapshotInfo, error)

	// LoadRecords returns every record of the snapshot in row order.
	// Returns ErrSnapshotNotFound when nothing has been saved and
	// ErrCorruptSnapshot when rows and metadata disagree.
	LoadRecords(ctx context.Context) ([]*core.CatalogRecord, error)

	// GetRecord retrieves a single record by ID.
	// Returns ErrNotFound if the record doesn't exist.
	GetRecord(ctx context.Context, id core.ID) (*core.CatalogRecord, error)

	// Info returns the snapshot metadata.
	// Returns ErrSnapshotNotFound when nothing has been saved.
	Info(ctx context.Context) (*SnapshotInfo, error)

	// Close closes the storage backend and releases resources.
	Close() error
}

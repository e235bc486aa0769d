// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/recommendit/catalog"
	"github.com/poiesic/recommendit/core"
	"github.com/poiesic/recommendit/storage"
)

// SnapshotRepository implements storage.SnapshotRepository for BadgerDB.
type SnapshotRepository struct {
	backend *Backend
	owned   bool
}

var _ storage.SnapshotRepository = (*SnapshotRepository)(nil)

// NewSnapshotRepository creates a SnapshotRepository on an open backend.
// The caller keeps ownership of the backend.
func NewSnapshotRepository(backend *Backend) *SnapshotRepository {
	return &SnapshotRepository{backend: backend}
}

// Close closes the backend when the repository owns it.
func (r *SnapshotRepository) Close() error {
	if r.owned && !r.backend.IsClosed() {
		return r.backend.Close()
	}
	return nil
}

func (r *SnapshotRepository) checkOpen() error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return nil
}

// SaveSnapshot replaces the stored snapshot.
func (r *SnapshotRepository) SaveSnapshot(ctx context.Context, records []*core.CatalogRecord, model string) (*storage.SnapshotInfo, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	// Validate before touching the stored snapshot
	cat, err := catalog.New(records)
	if err != nil {
		return nil, err
	}

	// Remove the metadata first so a failed save leaves nothing loadable
	if err := r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete([]byte(snapshotMetaKey)); err != nil {
			return err
		}
		return tx.Commit()
	}, true); err != nil {
		return nil, err
	}
	if err := r.backend.DropPrefix([]byte(catalogRowPrefix), []byte(catalogIDPrefix)); err != nil {
		return nil, err
	}

	err = r.backend.WriteBatch(func(wb *badger.WriteBatch) error {
		for row, rec := range cat.Records() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := wb.Set(makeRowKey(row), storage.MarshalCatalogRecord(rec)); err != nil {
				return err
			}
			if err := wb.Set(makeIDKey(rec.ID), storage.MarshalRow(row)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	info := &storage.SnapshotInfo{
		Count:     cat.RowCount(),
		Dimension: cat.Dimension(),
		Model:     model,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	value := storage.MarshalSnapshotInfo(info)
	err = r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set([]byte(snapshotMetaKey), value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	r.backend.logger.Debug("saved snapshot", "count", info.Count, "dimension", info.Dimension)
	return info, nil
}

// Info returns the snapshot metadata.
func (r *SnapshotRepository) Info(ctx context.Context) (*storage.SnapshotInfo, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	var info *storage.SnapshotInfo
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		info, err = readInfo(tx)
		return err
	}, false)
	return info, err
}

// LoadRecords returns every record in row order.
func (r *SnapshotRepository) LoadRecords(ctx context.Context) ([]*core.CatalogRecord, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	var records []*core.CatalogRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		info, err := readInfo(tx)
		if err != nil {
			return err
		}
		records = make([]*core.CatalogRecord, 0, info.Count)

		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(catalogRowPrefix)
		it := tx.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			row, ok := rowFromKey(item.Key())
			if !ok || row != len(records) {
				return fmt.Errorf("%w: unexpected row key %x", storage.ErrCorruptSnapshot, item.Key())
			}
			var rec *core.CatalogRecord
			err := item.Value(func(val []byte) error {
				var err error
				rec, err = storage.UnmarshalCatalogRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			records = append(records, rec)
		}
		if len(records) != info.Count {
			return fmt.Errorf("%w: found %d rows, metadata says %d", storage.ErrCorruptSnapshot, len(records), info.Count)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// GetRecord retrieves a single record by ID.
func (r *SnapshotRepository) GetRecord(ctx context.Context, id core.ID) (*core.CatalogRecord, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	var rec *core.CatalogRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeIDKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		var row int
		err = item.Value(func(val []byte) error {
			row, err = storage.UnmarshalRow(val)
			return err
		})
		if err != nil {
			return err
		}
		item, err = tx.Get(makeRowKey(row))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: id %s points at missing row %d", storage.ErrCorruptSnapshot, id, row)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			rec, err = storage.UnmarshalCatalogRecord(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func readInfo(tx *badger.Txn) (*storage.SnapshotInfo, error) {
	item, err := tx.Get([]byte(snapshotMetaKey))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, storage.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	var info *storage.SnapshotInfo
	err = item.Value(func(val []byte) error {
		info, err = storage.UnmarshalSnapshotInfo(val)
		return err
	})
	return info, err
}

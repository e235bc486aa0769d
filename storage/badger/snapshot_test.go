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
	"fmt"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/recommendit/core"
	"github.com/poiesic/recommendit/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecords(n int) []*core.CatalogRecord {
	records := make([]*core.CatalogRecord, n)
	for i := range records {
		records[i] = &core.CatalogRecord{
			Name:            fmt.Sprintf("Assessment %d", i),
			URL:             fmt.Sprintf("https://example.com/product/%d", i),
			Description:     "Measures something useful.",
			DurationMinutes: 10 + i,
			RemoteSupport:   core.SupportYes,
			TestTypes:       []string{"Knowledge & Skills"},
			Vector:          []float32{float32(i + 1), 1, 0},
		}
	}
	return records
}

func newTestRepo(t *testing.T) (*SnapshotRepository, *Backend) {
	t.Helper()
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return NewSnapshotRepository(backend), backend
}

func TestSnapshot_SaveAndLoad(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	records := testRecords(12)
	info, err := repo.SaveSnapshot(ctx, records, "text-embedding-3-small")
	require.NoError(t, err)
	assert.Equal(t, 12, info.Count)
	assert.Equal(t, 3, info.Dimension)
	assert.Equal(t, "text-embedding-3-small", info.Model)
	assert.False(t, info.CreatedAt.IsZero())

	loaded, err := repo.LoadRecords(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 12)
	for i, rec := range loaded {
		assert.Equal(t, records[i].Name, rec.Name)
		assert.Equal(t, records[i].URL, rec.URL)
		assert.Equal(t, core.IDFromContent(records[i].URL), rec.ID)
		assert.Equal(t, records[i].DurationMinutes, rec.DurationMinutes)
		assert.Equal(t, core.SupportYes, rec.RemoteSupport)
		assert.Equal(t, core.SupportNo, rec.AdaptiveSupport)
		assert.Equal(t, records[i].TestTypes, rec.TestTypes)
		assert.Equal(t, records[i].Vector, rec.Vector)
	}

	stored, err := repo.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, info.Count, stored.Count)
	assert.Equal(t, info.Model, stored.Model)
	assert.Equal(t, info.CreatedAt, stored.CreatedAt)
}

func TestSnapshot_SaveDoesNotModifyInput(t *testing.T) {
	repo, _ := newTestRepo(t)
	records := testRecords(2)

	_, err := repo.SaveSnapshot(context.Background(), records, "")
	require.NoError(t, err)
	assert.Equal(t, core.ID(0), records[0].ID)
}

func TestSnapshot_ReplaceShrinks(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.SaveSnapshot(ctx, testRecords(10), "")
	require.NoError(t, err)

	smaller := testRecords(3)
	_, err = repo.SaveSnapshot(ctx, smaller, "")
	require.NoError(t, err)

	loaded, err := repo.LoadRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, 3)

	// IDs from the old snapshot are gone
	_, err = repo.GetRecord(ctx, core.IDFromContent(testRecords(10)[7].URL))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSnapshot_InvalidRecordsRejected(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.SaveSnapshot(ctx, testRecords(2), "")
	require.NoError(t, err)

	bad := testRecords(3)
	bad[2].Vector = []float32{1}
	_, err = repo.SaveSnapshot(ctx, bad, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrCatalogLoad)

	// The previous snapshot survives a rejected save
	loaded, err := repo.LoadRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, 2)

	_, err = repo.SaveSnapshot(ctx, nil, "")
	assert.ErrorIs(t, err, core.ErrCatalogLoad)
}

func TestSnapshot_Empty(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.LoadRecords(ctx)
	assert.ErrorIs(t, err, storage.ErrSnapshotNotFound)

	_, err = repo.Info(ctx)
	assert.ErrorIs(t, err, storage.ErrSnapshotNotFound)

	_, err = repo.GetRecord(ctx, core.ID(1))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSnapshot_GetRecord(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	records := testRecords(5)
	_, err := repo.SaveSnapshot(ctx, records, "")
	require.NoError(t, err)

	rec, err := repo.GetRecord(ctx, core.IDFromContent(records[3].URL))
	require.NoError(t, err)
	assert.Equal(t, records[3].Name, rec.Name)
}

func TestSnapshot_Corrupt(t *testing.T) {
	repo, backend := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.SaveSnapshot(ctx, testRecords(4), "")
	require.NoError(t, err)

	err = backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeRowKey(1)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	require.NoError(t, err)

	_, err = repo.LoadRecords(ctx)
	assert.ErrorIs(t, err, storage.ErrCorruptSnapshot)
}

func TestSnapshot_Closed(t *testing.T) {
	repo, err := NewMemoryRepository()
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	_, err = repo.LoadRecords(context.Background())
	assert.ErrorIs(t, err, storage.ErrStorageClosed)

	// Closing twice is harmless
	assert.NoError(t, repo.Close())
}

func TestSnapshot_Persistent(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	repo, err := NewRepository(dir, false)
	require.NoError(t, err)
	_, err = repo.SaveSnapshot(ctx, testRecords(3), "m")
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	repo, err = NewRepository(dir, false)
	require.NoError(t, err)
	defer repo.Close()

	loaded, err := repo.LoadRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, 3)
}

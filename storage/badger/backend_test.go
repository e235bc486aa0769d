package badger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), "snapshot")
	backend, err := OpenBackend(tmpDir, false)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	info, err := os.Stat(tmpDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOpenBackend_NotADirectory(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(tmpFile, []byte("x"), 0644))

	backend, err := OpenBackend(tmpFile, false)
	require.Error(t, err)
	assert.Nil(t, backend)
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	assert.False(t, backend.IsClosed())
	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())
}

func TestBackend_WriteBatchAndDropPrefix(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	err = backend.WriteBatch(func(wb *badger.WriteBatch) error {
		for _, k := range []string{"a:1", "a:2", "b:1"} {
			if err := wb.Set([]byte(k), []byte("v")); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, backend.DropPrefix([]byte("a:")))

	err = backend.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get([]byte("a:1"))
		assert.ErrorIs(t, err, badger.ErrKeyNotFound)
		_, err = tx.Get([]byte("b:1"))
		return err
	}, false)
	require.NoError(t, err)
}

func TestBackend_WriteBatchError(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	boom := errors.New("boom")
	err = backend.WriteBatch(func(wb *badger.WriteBatch) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestKeys(t *testing.T) {
	key := makeRowKey(42)
	row, ok := rowFromKey(key)
	require.True(t, ok)
	assert.Equal(t, 42, row)

	_, ok = rowFromKey([]byte("catrow:short"))
	assert.False(t, ok)

	// Big-endian rows sort in row order
	assert.Less(t, string(makeRowKey(2)), string(makeRowKey(10)))
}

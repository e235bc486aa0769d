package badger

import (
	"encoding/binary"

	"github.com/poiesic/recommendit/core"
)

const (
	catalogRowPrefix = "catrow:"
	catalogIDPrefix  = "catid:"
	snapshotMetaKey  = "catmeta"
)

// makeRowKey generates a key for a catalog record by row.
// Format: prefix + row (BigEndian so iteration is in row order)
func makeRowKey(row int) []byte {
	buf := make([]byte, len(catalogRowPrefix)+8)
	offset := copy(buf, catalogRowPrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(row))
	return buf
}

// rowFromKey extracts the row from a key built by makeRowKey.
func rowFromKey(key []byte) (int, bool) {
	if len(key) != len(catalogRowPrefix)+8 {
		return 0, false
	}
	return int(binary.BigEndian.Uint64(key[len(catalogRowPrefix):])), true
}

// makeIDKey generates a key for the record ID index.
// Format: prefix + id
func makeIDKey(id core.ID) []byte {
	buf := make([]byte, len(catalogIDPrefix)+8)
	offset := copy(buf, catalogIDPrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

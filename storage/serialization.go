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

package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/recommendit/core"
)

// MarshalRow serializes a row number.
func MarshalRow(row int) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(row)))
	varint.Uint64.Marshal(uint64(row), buf)
	return buf
}

// UnmarshalRow deserializes a row number.
func UnmarshalRow(data []byte) (int, error) {
	row, _, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrTruncatedData, err)
	}
	return int(row), nil
}

// MarshalCatalogRecord serializes a CatalogRecord to bytes.
func MarshalCatalogRecord(record *core.CatalogRecord) []byte {
	buf := make([]byte, CatalogRecordMUS.Size(*record))
	CatalogRecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalCatalogRecord deserializes a CatalogRecord from bytes.
func UnmarshalCatalogRecord(data []byte) (*core.CatalogRecord, error) {
	record, _, err := CatalogRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &record, nil
}

// MarshalSnapshotInfo serializes SnapshotInfo to bytes.
func MarshalSnapshotInfo(info *SnapshotInfo) []byte {
	buf := make([]byte, SnapshotInfoMUS.Size(*info))
	SnapshotInfoMUS.Marshal(*info, buf)
	return buf
}

// UnmarshalSnapshotInfo deserializes SnapshotInfo from bytes.
func UnmarshalSnapshotInfo(data []byte) (*SnapshotInfo, error) {
	info, _, err := SnapshotInfoMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &info, nil
}

var (
	testTypesMUS = ord.NewSliceSer[string](ord.String)
	vectorMUS    = ord.NewSliceSer[float32](raw.Float32)
)

// CatalogRecordMUS is the MUS serializer for core.CatalogRecord.
var CatalogRecordMUS = catalogRecordMUS{}

type catalogRecordMUS struct{}

func (s catalogRecordMUS) Marshal(v core.CatalogRecord, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(v.ID), bs)
	n += ord.String.Marshal(v.Name, bs[n:])
	n += ord.String.Marshal(v.URL, bs[n:])
	n += ord.String.Marshal(v.Description, bs[n:])
	n += varint.Int.Marshal(v.DurationMinutes, bs[n:])
	n += varint.Int.Marshal(int(v.RemoteSupport), bs[n:])
	n += varint.Int.Marshal(int(v.AdaptiveSupport), bs[n:])
	n += testTypesMUS.Marshal(v.TestTypes, bs[n:])
	return n + vectorMUS.Marshal(v.Vector, bs[n:])
}

func (s catalogRecordMUS) Unmarshal(bs []byte) (v core.CatalogRecord, n int, err error) {
	var (
		id       uint64
		remote   int
		adaptive int
		n1       int
	)
	id, n, err = varint.Uint64.Unmarshal(bs)
	if err != nil {
		return
	}
	v.ID = core.ID(id)
	v.Name, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.URL, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Description, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.DurationMinutes, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	remote, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.RemoteSupport = core.Support(remote)
	adaptive, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.AdaptiveSupport = core.Support(adaptive)
	v.TestTypes, n1, err = testTypesMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Vector, n1, err = vectorMUS.Unmarshal(bs[n:])
	n += n1
	if len(v.Vector) == 0 {
		v.Vector = nil
	}
	return
}

func (s catalogRecordMUS) Size(v core.CatalogRecord) (size int) {
	size = varint.Uint64.Size(uint64(v.ID))
	size += ord.String.Size(v.Name)
	size += ord.String.Size(v.URL)
	size += ord.String.Size(v.Description)
	size += varint.Int.Size(v.DurationMinutes)
	size += varint.Int.Size(int(v.RemoteSupport))
	size += varint.Int.Size(int(v.AdaptiveSupport))
	size += testTypesMUS.Size(v.TestTypes)
	return size + vectorMUS.Size(v.Vector)
}

func (s catalogRecordMUS) Skip(bs []byte) (n int, err error) {
	n, err = varint.Uint64.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	for _, skip := range []func([]byte) (int, error){
		ord.String.Skip, ord.String.Skip, ord.String.Skip,
		varint.Int.Skip, varint.Int.Skip, varint.Int.Skip,
		testTypesMUS.Skip, vectorMUS.Skip,
	} {
		n1, err = skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

// SnapshotInfoMUS is the MUS serializer for SnapshotInfo.
// CreatedAt is stored with microsecond precision and read back in UTC.
var SnapshotInfoMUS = snapshotInfoMUS{}

type snapshotInfoMUS struct{}

func (s snapshotInfoMUS) Marshal(v SnapshotInfo, bs []byte) (n int) {
	n = varint.Int.Marshal(v.Count, bs)
	n += varint.Int.Marshal(v.Dimension, bs[n:])
	n += ord.String.Marshal(v.Model, bs[n:])
	return n + raw.TimeUnixMicro.Marshal(v.CreatedAt, bs[n:])
}

func (s snapshotInfoMUS) Unmarshal(bs []byte) (v SnapshotInfo, n int, err error) {
	var (
		created time.Time
		n1      int
	)
	v.Count, n, err = varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Dimension, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Model, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	created, n1, err = raw.TimeUnixMicro.Unmarshal(bs[n:])
	n += n1
	v.CreatedAt = created.UTC()
	return
}

func (s snapshotInfoMUS) Size(v SnapshotInfo) (size int) {
	size = varint.Int.Size(v.Count)
	size += varint.Int.Size(v.Dimension)
	size += ord.String.Size(v.Model)
	return size + raw.TimeUnixMicro.Size(v.CreatedAt)
}

func (s snapshotInfoMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	for _, skip := range []func([]byte) (int, error){
		varint.Int.Skip, varint.Int.Skip, ord.String.Skip, raw.TimeUnixMicro.Skip,
	} {
		n1, err = skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

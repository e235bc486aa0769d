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

// Package storage provides the persistence abstraction for catalog snapshots.
//
// A snapshot is the finalized, embedded catalog produced by the offline
// build. It is written once and read at startup (or on reload) to build the
// in-memory catalog and vector index; serving never touches storage.
//
// # Constructor Return Type Pattern
//
// Public constructors return the interface to keep callers decoupled from
// BadgerDB:
//
//	repo, err := badger.NewRepository(path, false)  // returns storage.SnapshotRepository
//
// Internal constructors may return concrete types since they're only used
// within the implementation package.
//
// Stored values use the MUS binary format (CatalogRecordMUS, SnapshotInfoMUS).
//
// # Usage
//
//	repo, err := badger.NewRepository("/var/lib/recommendit/snapshot", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repo.Close()
//
//	info, err := repo.SaveSnapshot(ctx, records, "text-embedding-3-small")
//	cat, err := catalog.Load(ctx, repo)
//
// Use in tests with in-memory storage:
//
//	repo, err := badger.NewMemoryRepository()
//
// # Thread Safety
//
// Repository implementations are safe for concurrent use.
package storage

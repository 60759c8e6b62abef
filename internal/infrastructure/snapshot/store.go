// Package snapshot persists historical Compute results to a local
// pebble database, the "local persistent store used only to record
// historical result snapshots" that spec §1 places out of scope for
// business logic. Grounded on
// nhiwentwest-local-recovery-and-partial-snapshot/internal/state/pebble_store.go's
// open/get/set/iterate shape, repurposed from that repo's
// delta-reconciliation records to one-shot run snapshots keyed by run
// id.
//
// No error here is ever allowed to affect a calculation result: per
// spec §7, "No error condition corrupts or partially writes the
// optional local snapshot store," so every write is a single pebble
// Set and every record read a single pebble Get — there is no partial,
// multi-key snapshot to corrupt.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/cockroachdb/pebble"

	"github.com/vsinha/mrp/internal/domain/entities"
)

// Record is one historical calculation result, keyed by RunId.
type Record struct {
	RunId      string               `json:"run_id"`
	ComputedAt time.Time            `json:"computed_at"`
	Demands    []entities.Demand    `json:"demands"`
	OrderLines []entities.OrderLine `json:"order_lines"`
	BuildLines []entities.BuildLine `json:"build_lines"`
}

// Store wraps a pebble database of run snapshots.
type Store struct {
	db *pebble.DB
}

// Open opens (creating if absent) the pebble database at dir.
func Open(dir string) (*Store, error) {
	db, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("opening snapshot store at %s: %w", dir, err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Save writes one run's record, keyed by its RunId. Uses pebble.Sync
// so a snapshot a caller believes was saved really was, trading some
// write latency for that guarantee since these writes are infrequent
// (one per Compute call, not a hot path).
func (s *Store) Save(rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling snapshot %s: %w", rec.RunId, err)
	}
	if err := s.db.Set([]byte(rec.RunId), data, pebble.Sync); err != nil {
		return fmt.Errorf("writing snapshot %s: %w", rec.RunId, err)
	}
	return nil
}

// Get returns the record for a run id, or ok=false if none was saved.
func (s *Store) Get(runId string) (Record, bool, error) {
	val, closer, err := s.db.Get([]byte(runId))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return Record{}, false, nil
		}
		return Record{}, false, fmt.Errorf("reading snapshot %s: %w", runId, err)
	}
	defer closer.Close()

	var rec Record
	if err := json.Unmarshal(val, &rec); err != nil {
		return Record{}, false, fmt.Errorf("decoding snapshot %s: %w", runId, err)
	}
	return rec, true, nil
}

// List returns every saved run id in key order. No CLI command calls
// it.
func (s *Store) List() ([]string, error) {
	it, err := s.db.NewIter(nil)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var ids []string
	for it.First(); it.Valid(); it.Next() {
		ids = append(ids, string(append([]byte(nil), it.Key()...)))
	}
	return ids, nil
}

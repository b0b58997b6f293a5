package cache

import (
	"time"

	"civic/sdk/models/constants"
)

/*
	The Store is the process-wide mapping from (type, id) to Record.
	It owns deduplication and merge-on-update : at most one Record
	instance per key is ever live, so holders of a previously returned
	pointer observe later merges transparently.

	The store is deliberately unlocked ; the SDK assumes a
	single-threaded consumer, and concurrent use requires external
	synchronization.
*/

type Store struct {
	records map[Key]*Record

	// per-type registries of every id known upstream, so "all records
	// of a type" can be served from cache after a full sweep
	allIds map[constants.RecordType][]int

	lastUpdated time.Time
}

func NewStore() *Store {
	return &Store{
		records: map[Key]*Record{},
		allIds:  map[constants.RecordType][]int{},
	}
}

// Get is a pure O(1) lookup ; it never triggers network activity.
func (s *Store) Get(recordType constants.RecordType, id int) (*Record, bool) {
	record, ok := s.records[Key{Type: recordType, Id: id}]
	return record, ok
}

// Put inserts the record if its key is absent, otherwise merges the
// incoming attributes into the already-live instance. The returned
// pointer is always the canonical one ; callers must keep it instead
// of the instance they passed in.
func (s *Store) Put(record *Record) *Record {
	key := record.Key()
	existing, ok := s.records[key]
	if !ok {
		s.records[key] = record
		return record
	}
	existing.Merge(record.Attributes, !record.Partial)
	return existing
}

// Replace inserts the record if its key is absent, otherwise swaps
// the canonical instance's attributes for the incoming payload
// wholesale. Hard refreshes go through this instead of Put, so a
// field deleted upstream does not survive locally by merging.
func (s *Store) Replace(record *Record) *Record {
	key := record.Key()
	existing, ok := s.records[key]
	if !ok {
		s.records[key] = record
		return record
	}
	existing.Replace(record.Attributes)
	return existing
}

func (s *Store) Len() int {
	return len(s.records)
}

// Purge empties the store and forgets the last-updated timestamp.
func (s *Store) Purge() {
	s.records = map[Key]*Record{}
	s.allIds = map[constants.RecordType][]int{}
	s.lastUpdated = time.Time{}
}

func (s *Store) LastUpdated() time.Time {
	return s.lastUpdated
}

func (s *Store) SetLastUpdated(t time.Time) {
	s.lastUpdated = t
}

// IsStale reports whether the store's content is older than maxAge.
// An empty store (zero timestamp) is always stale.
func (s *Store) IsStale(maxAge time.Duration) bool {
	if s.lastUpdated.IsZero() {
		return true
	}
	return time.Since(s.lastUpdated) > maxAge
}

func (s *Store) SetAllIds(recordType constants.RecordType, ids []int) {
	s.allIds[recordType] = ids
}

func (s *Store) AllIds(recordType constants.RecordType) ([]int, bool) {
	ids, ok := s.allIds[recordType]
	return ids, ok
}

// RecordsOfType returns every live record of a type, in unspecified
// order.
func (s *Store) RecordsOfType(recordType constants.RecordType) []*Record {
	var records []*Record
	for key, record := range s.records {
		if key.Type == recordType {
			records = append(records, record)
		}
	}
	return records
}

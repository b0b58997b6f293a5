package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"civic/sdk/models/constants"
	errorsDto "civic/sdk/models/dtos/errors"

	"github.com/klauspost/compress/gzip"
)

/*
	On-disk snapshot of the whole store : a gzip-compressed JSON blob
	holding every record, the per-type id registries, and the
	last-updated timestamp. The format is internal ; the only contract
	is that Save followed by Load reproduces an equivalent store.
*/

type snapshot struct {
	SavedAt time.Time                        `json:"savedAt"`
	AllIds  map[constants.RecordType][]int   `json:"allIds"`
	Records []*Record                        `json:"records"`
}

// Save serializes the whole store to path, creating parent
// directories as needed.
func (s *Store) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating snapshot directory : %w", err)
	}

	snap := snapshot{
		SavedAt: s.lastUpdated,
		AllIds:  s.allIds,
		Records: make([]*Record, 0, len(s.records)),
	}
	for _, record := range s.records {
		snap.Records = append(snap.Records, record)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating snapshot file : %w", err)
	}
	defer f.Close()

	zw := gzip.NewWriter(f)
	if err := json.NewEncoder(zw).Encode(&snap); err != nil {
		zw.Close()
		return fmt.Errorf("encoding snapshot : %w", err)
	}
	return zw.Close()
}

// Load replaces the store's content with the snapshot at path.
//
// A missing file surfaces as an os.ErrNotExist ; an unreadable or
// malformed file surfaces as a CorruptCacheError. Both are expected
// to be recovered by the caller with an empty store and a forced
// refresh, never treated as fatal.
func (s *Store) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return err
		}
		return errorsDto.NewCorruptCache(path, err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return errorsDto.NewCorruptCache(path, err)
	}
	defer zr.Close()

	var snap snapshot
	if err := json.NewDecoder(zr).Decode(&snap); err != nil {
		return errorsDto.NewCorruptCache(path, err)
	}

	s.Purge()
	for _, record := range snap.Records {
		if record == nil || record.Type == "" {
			return errorsDto.NewCorruptCache(path, fmt.Errorf("snapshot record missing identity"))
		}
		if record.Attributes == nil {
			record.Attributes = map[string]interface{}{}
		}
		s.records[record.Key()] = record
	}
	if snap.AllIds != nil {
		s.allIds = snap.AllIds
	}
	s.lastUpdated = snap.SavedAt
	return nil
}

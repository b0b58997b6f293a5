package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	recordType "civic/sdk/models/constants/record-type"
	errorsDto "civic/sdk/models/dtos/errors"
)

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.gz")

	saved := NewStore()
	saved.Put(NewRecord(recordType.Gene, 12, map[string]interface{}{"name": "BRAF"}))
	saved.Put(NewRecord(recordType.GeneVariant, 10, map[string]interface{}{"name": "V600E"}))
	saved.SetAllIds(recordType.Gene, []int{12})
	savedAt := time.Now().Truncate(time.Second)
	saved.SetLastUpdated(savedAt)

	assert.NoError(t, saved.Save(path))

	loaded := NewStore()
	assert.NoError(t, loaded.Load(path))

	assert.Equal(t, 2, loaded.Len())
	gene, ok := loaded.Get(recordType.Gene, 12)
	assert.True(t, ok)
	assert.Equal(t, "BRAF", gene.Attributes["name"])
	assert.False(t, gene.Partial)

	ids, ok := loaded.AllIds(recordType.Gene)
	assert.True(t, ok)
	assert.Equal(t, []int{12}, ids)

	// the loaded store inherits the snapshot's age, so a fresh save
	// does not mask staleness
	assert.True(t, loaded.LastUpdated().Equal(savedAt))
}

func TestSnapshotLoadMissingFile(t *testing.T) {
	store := NewStore()
	err := store.Load(filepath.Join(t.TempDir(), "absent.gz"))
	assert.True(t, os.IsNotExist(err))
}

func TestSnapshotLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.gz")
	assert.NoError(t, os.WriteFile(path, []byte("definitely not gzip"), 0o644))

	store := NewStore()
	store.Put(NewRecord(recordType.Gene, 12, nil))

	err := store.Load(path)
	assert.Error(t, err)
	assert.True(t, errorsDto.IsCorruptCache(err))
}

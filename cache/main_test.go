package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	recordType "civic/sdk/models/constants/record-type"
)

func TestStorePut(t *testing.T) {
	t.Run("should keep exactly one live instance per key", func(t *testing.T) {
		store := NewStore()

		partial := NewPartialRecord(recordType.Gene, 12)
		canonical := store.Put(partial)
		assert.Same(t, partial, canonical)

		complete := NewRecord(recordType.Gene, 12, map[string]interface{}{"name": "BRAF"})
		merged := store.Put(complete)

		// the canonical pointer survives ; the later payload merges in
		assert.Same(t, canonical, merged)
		assert.Equal(t, 1, store.Len())

		got, ok := store.Get(recordType.Gene, 12)
		assert.True(t, ok)
		assert.Same(t, canonical, got)
		assert.Equal(t, "BRAF", got.Attributes["name"])
		assert.False(t, got.Partial)
	})

	t.Run("should merge field-wise and keep absent fields untouched", func(t *testing.T) {
		store := NewStore()
		store.Put(NewRecord(recordType.Gene, 12, map[string]interface{}{
			"name":        "BRAF",
			"description": "serine/threonine kinase",
		}))

		store.Put(NewRecord(recordType.Gene, 12, map[string]interface{}{"name": "braf"}))

		got, _ := store.Get(recordType.Gene, 12)
		assert.Equal(t, "braf", got.Attributes["name"])
		assert.Equal(t, "serine/threonine kinase", got.Attributes["description"])
	})

	t.Run("should never downgrade a complete record back to partial", func(t *testing.T) {
		store := NewStore()
		store.Put(NewRecord(recordType.Gene, 12, map[string]interface{}{"name": "BRAF"}))

		store.Put(NewPartialRecord(recordType.Gene, 12))

		got, _ := store.Get(recordType.Gene, 12)
		assert.False(t, got.Partial)
		assert.Equal(t, "BRAF", got.Attributes["name"])
	})

	t.Run("should keep records of different types apart", func(t *testing.T) {
		store := NewStore()
		store.Put(NewRecord(recordType.Gene, 12, nil))
		store.Put(NewRecord(recordType.GeneVariant, 12, nil))

		assert.Equal(t, 2, store.Len())
	})
}

func TestStoreReplace(t *testing.T) {
	t.Run("should drop fields absent from the replacement payload", func(t *testing.T) {
		store := NewStore()
		store.Put(NewRecord(recordType.Gene, 12, map[string]interface{}{
			"name":        "BRAF",
			"description": "serine/threonine kinase",
		}))

		store.Replace(NewRecord(recordType.Gene, 12, map[string]interface{}{"name": "BRAF"}))

		got, _ := store.Get(recordType.Gene, 12)
		assert.Equal(t, "BRAF", got.Attributes["name"])
		assert.NotContains(t, got.Attributes, "description")
	})

	t.Run("should keep the canonical pointer alive across a replacement", func(t *testing.T) {
		store := NewStore()
		canonical := store.Put(NewRecord(recordType.Gene, 12, map[string]interface{}{"name": "BRAF"}))

		replaced := store.Replace(NewRecord(recordType.Gene, 12, map[string]interface{}{"name": "braf"}))

		assert.Same(t, canonical, replaced)
		assert.Equal(t, "braf", canonical.Attributes["name"])
		assert.Equal(t, 1, store.Len())
	})

	t.Run("should insert when the key is new", func(t *testing.T) {
		store := NewStore()
		record := NewRecord(recordType.Gene, 12, map[string]interface{}{"name": "BRAF"})
		assert.Same(t, record, store.Replace(record))
		assert.Equal(t, 1, store.Len())
	})
}

func TestStoreGetIsPure(t *testing.T) {
	store := NewStore()

	_, ok := store.Get(recordType.Gene, 999)
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

func TestStoreStaleness(t *testing.T) {
	maxAge := 7 * 24 * time.Hour

	t.Run("an empty store is always stale", func(t *testing.T) {
		store := NewStore()
		assert.True(t, store.IsStale(maxAge))
	})

	t.Run("a freshly updated store is not stale", func(t *testing.T) {
		store := NewStore()
		store.SetLastUpdated(time.Now())
		assert.False(t, store.IsStale(maxAge))
	})

	t.Run("content older than the window is stale", func(t *testing.T) {
		store := NewStore()
		store.SetLastUpdated(time.Now().Add(-8 * 24 * time.Hour))
		assert.True(t, store.IsStale(maxAge))
	})

	t.Run("purging forgets the timestamp", func(t *testing.T) {
		store := NewStore()
		store.SetLastUpdated(time.Now())
		store.Purge()
		assert.True(t, store.IsStale(maxAge))
	})
}

func TestStoreAllIds(t *testing.T) {
	store := NewStore()

	_, ok := store.AllIds(recordType.Gene)
	assert.False(t, ok)

	store.SetAllIds(recordType.Gene, []int{3, 1, 2})
	ids, ok := store.AllIds(recordType.Gene)
	assert.True(t, ok)
	assert.Equal(t, []int{3, 1, 2}, ids)

	store.Purge()
	_, ok = store.AllIds(recordType.Gene)
	assert.False(t, ok)
}

func TestRecordDecode(t *testing.T) {
	record := NewRecord(recordType.Gene, 12, map[string]interface{}{
		// snapshots travel through encoding/json, so numbers come
		// back as float64
		"id":        float64(12),
		"name":      "BRAF",
		"entrez_id": float64(673),
	})

	var view struct {
		Id       int    `mapstructure:"id"`
		Name     string `mapstructure:"name"`
		EntrezId int    `mapstructure:"entrez_id"`
	}
	assert.NoError(t, record.Decode(&view))
	assert.Equal(t, 12, view.Id)
	assert.Equal(t, "BRAF", view.Name)
	assert.Equal(t, 673, view.EntrezId)
}

func TestRecordFieldAccessors(t *testing.T) {
	record := NewRecord(recordType.MolecularProfile, 5, map[string]interface{}{
		"molecular_profile_id": float64(77),
		"status":               "accepted",
		"evidence_ids":         []interface{}{float64(1), float64(2), 3},
	})

	id, ok := record.IntField("molecular_profile_id")
	assert.True(t, ok)
	assert.Equal(t, 77, id)

	s, ok := record.StringField("status")
	assert.True(t, ok)
	assert.Equal(t, "accepted", s)

	assert.Equal(t, []int{1, 2, 3}, record.IntListField("evidence_ids"))
	assert.Nil(t, record.IntListField("missing"))
}

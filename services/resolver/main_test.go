package resolver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"civic/sdk/cache"
	recordType "civic/sdk/models/constants/record-type"
	errorsDto "civic/sdk/models/dtos/errors"
	"civic/sdk/tests/common"
)

func newResolverUnderTest(maxBatchSize int) (*Resolver, *common.FakeFetcher, *cache.Store) {
	store := cache.NewStore()
	fetcher := common.NewFakeFetcher()
	for id, name := range map[int]string{1: "ALK", 3: "BRAF", 5: "EGFR"} {
		fetcher.Add(recordType.Gene, common.RecordPayload(id, map[string]interface{}{"name": name}))
	}
	return NewResolver(store, fetcher, maxBatchSize), fetcher, store
}

func TestResolveOne(t *testing.T) {
	t.Run("should fetch once and then serve from cache", func(t *testing.T) {
		resolver, fetcher, _ := newResolverUnderTest(10)

		first, err := resolver.ResolveOne(recordType.Gene, 3)
		assert.NoError(t, err)
		assert.Equal(t, "BRAF", first.Attributes["name"])
		assert.Equal(t, 1, fetcher.FetchByIdsCalls)

		second, err := resolver.ResolveOne(recordType.Gene, 3)
		assert.NoError(t, err)
		assert.Same(t, first, second)
		assert.Equal(t, 1, fetcher.FetchByIdsCalls)
	})

	t.Run("should report unknown ids as not found", func(t *testing.T) {
		resolver, _, _ := newResolverUnderTest(10)

		_, err := resolver.ResolveOne(recordType.Gene, 999999)
		assert.True(t, errorsDto.IsNotFound(err))
	})

	t.Run("should complete a partial record instead of duplicating it", func(t *testing.T) {
		resolver, _, store := newResolverUnderTest(10)
		partial := store.Put(cache.NewPartialRecord(recordType.Gene, 5))

		resolved, err := resolver.ResolveOne(recordType.Gene, 5)
		assert.NoError(t, err)
		assert.Same(t, partial, resolved)
		assert.False(t, resolved.Partial)
		assert.Equal(t, "EGFR", resolved.Attributes["name"])
	})
}

func TestResolveMany(t *testing.T) {
	t.Run("should return results in input id order", func(t *testing.T) {
		resolver, _, _ := newResolverUnderTest(10)

		resolutions := resolver.ResolveMany(recordType.Gene, []int{5, 1, 3})
		assert.Len(t, resolutions, 3)
		assert.Equal(t, []int{5, 1, 3}, []int{resolutions[0].Id, resolutions[1].Id, resolutions[2].Id})
		assert.Equal(t, "EGFR", resolutions[0].Record.Attributes["name"])
		assert.Equal(t, "ALK", resolutions[1].Record.Attributes["name"])
		assert.Equal(t, "BRAF", resolutions[2].Record.Attributes["name"])
	})

	t.Run("should fail unknown ids individually without aborting the batch", func(t *testing.T) {
		resolver, _, _ := newResolverUnderTest(10)

		resolutions := resolver.ResolveMany(recordType.Gene, []int{1, 999999, 3})
		assert.NoError(t, resolutions[0].Err)
		assert.True(t, errorsDto.IsNotFound(resolutions[1].Err))
		assert.Nil(t, resolutions[1].Record)
		assert.NoError(t, resolutions[2].Err)
	})

	t.Run("should batch misses instead of fetching per id", func(t *testing.T) {
		resolver, fetcher, _ := newResolverUnderTest(2)

		resolver.ResolveMany(recordType.Gene, []int{1, 3, 5})
		// three misses with a batch cap of two means exactly two calls
		assert.Equal(t, 2, fetcher.FetchByIdsCalls)
		assert.Equal(t, []int{2, 1}, fetcher.RequestedBatchSizes)
	})

	t.Run("should skip cached-complete ids entirely", func(t *testing.T) {
		resolver, fetcher, _ := newResolverUnderTest(10)
		resolver.ResolveMany(recordType.Gene, []int{1, 3, 5})
		callsAfterFirst := fetcher.FetchByIdsCalls

		resolutions := resolver.ResolveMany(recordType.Gene, []int{1, 3, 5})
		assert.Equal(t, callsAfterFirst, fetcher.FetchByIdsCalls)
		for _, resolution := range resolutions {
			assert.NoError(t, resolution.Err)
		}
	})

	t.Run("should attach the shared fetch error to every unresolved id", func(t *testing.T) {
		resolver, fetcher, _ := newResolverUnderTest(10)
		fetcher.Err = errors.New("network down")

		resolutions := resolver.ResolveMany(recordType.Gene, []int{1, 3})
		for _, resolution := range resolutions {
			assert.ErrorIs(t, resolution.Err, fetcher.Err)
		}
	})
}

func TestResolveAllOfType(t *testing.T) {
	t.Run("should sweep once then serve the registry from cache", func(t *testing.T) {
		resolver, fetcher, _ := newResolverUnderTest(10)

		first, err := resolver.ResolveAllOfType(recordType.Gene)
		assert.NoError(t, err)
		assert.Len(t, first, 3)
		assert.Equal(t, 1, fetcher.FetchAllCalls)

		second, err := resolver.ResolveAllOfType(recordType.Gene)
		assert.NoError(t, err)
		assert.Len(t, second, 3)
		assert.Equal(t, 1, fetcher.FetchAllCalls)
	})
}

func TestRecordFromPayload(t *testing.T) {
	t.Run("should flatten nested references and lowercase status", func(t *testing.T) {
		record, err := RecordFromPayload(recordType.Evidence, map[string]interface{}{
			"id":               float64(7),
			"status":           "ACCEPTED",
			"molecularProfile": map[string]interface{}{"id": float64(20)},
			"assertions": map[string]interface{}{
				"nodes": []interface{}{
					map[string]interface{}{"id": float64(31)},
					map[string]interface{}{"id": float64(32)},
				},
			},
		})
		assert.NoError(t, err)
		assert.Equal(t, 7, record.Id)
		assert.False(t, record.Partial)

		s, _ := record.StringField("status")
		assert.Equal(t, "accepted", s)

		profileId, ok := record.IntField("molecular_profile_id")
		assert.True(t, ok)
		assert.Equal(t, 20, profileId)
		assert.Equal(t, []int{31, 32}, record.IntListField("assertion_ids"))

		// the nested shapes themselves are gone
		assert.NotContains(t, record.Attributes, "molecularProfile")
		assert.NotContains(t, record.Attributes, "assertions")
	})

	t.Run("should normalize dash alleles inside variant coordinates", func(t *testing.T) {
		record, err := RecordFromPayload(recordType.GeneVariant, map[string]interface{}{
			"id": float64(10),
			"coordinates": map[string]interface{}{
				"reference_bases": "-",
				"variant_bases":   "T",
			},
		})
		assert.NoError(t, err)

		coordinates := record.Attributes["coordinates"].(map[string]interface{})
		assert.Nil(t, coordinates["reference_bases"])
		assert.Equal(t, "T", coordinates["variant_bases"])
	})

	t.Run("should reject payloads without an id", func(t *testing.T) {
		_, err := RecordFromPayload(recordType.Gene, map[string]interface{}{"name": "BRAF"})
		assert.Error(t, err)
	})
}

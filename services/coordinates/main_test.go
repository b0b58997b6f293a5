package coordinates

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"civic/sdk/cache"
	"civic/sdk/models"
	recordType "civic/sdk/models/constants/record-type"
	searchMode "civic/sdk/models/constants/search-mode"
	errorsDto "civic/sdk/models/dtos/errors"
	"civic/sdk/services/resolver"
	"civic/sdk/tests/common"
)

func newIndexUnderTest(t *testing.T) *Index {
	var records []*cache.Record
	for _, fixture := range common.LoadVariantFixtures() {
		record, err := resolver.RecordFromPayload(recordType.GeneVariant, common.VariantPayload(fixture))
		assert.NoError(t, err)
		records = append(records, record)
	}
	return NewIndex(records)
}

func entryIds(entries []Entry) []int {
	ids := make([]int, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.Key.Id)
	}
	return ids
}

func TestNewIndex(t *testing.T) {
	index := newIndexUnderTest(t)
	assert.Equal(t, 5, index.Len())

	t.Run("should skip records without usable primary coordinates", func(t *testing.T) {
		record, _ := resolver.RecordFromPayload(recordType.GeneVariant, map[string]interface{}{
			"id":          99,
			"coordinates": map[string]interface{}{"chromosome": "", "start": 0, "stop": 0},
		})
		assert.Equal(t, 0, NewIndex([]*cache.Record{record}).Len())
	})

	t.Run("should index secondary coordinates as an extra entry", func(t *testing.T) {
		record, _ := resolver.RecordFromPayload(recordType.FusionVariant, map[string]interface{}{
			"id": 50,
			"coordinates": map[string]interface{}{
				"chromosome": "2", "start": 100, "stop": 200,
				"chromosome2": "4", "start2": 900, "stop2": 950,
			},
		})
		index := NewIndex([]*cache.Record{record})
		assert.Equal(t, 2, index.Len())

		matches, err := index.Search(models.CoordinateQuery{Chr: "4", Start: 890, Stop: 960}, searchMode.Any)
		assert.NoError(t, err)
		assert.Equal(t, []int{50}, entryIds(matches))
	})
}

func TestSearchModes(t *testing.T) {
	index := newIndexUnderTest(t)

	t.Run("any mode matches every overlapping record", func(t *testing.T) {
		matches, err := index.Search(models.CoordinateQuery{Chr: "7", Start: 140453130, Stop: 140453140}, searchMode.Any)
		assert.NoError(t, err)
		assert.Equal(t, []int{12, 10, 11}, entryIds(matches))
	})

	t.Run("query encompassing keeps only records inside the query span", func(t *testing.T) {
		matches, err := index.Search(models.CoordinateQuery{Chr: "7", Start: 140453130, Stop: 140453140}, searchMode.QueryEncompassing)
		assert.NoError(t, err)
		assert.Equal(t, []int{10, 11}, entryIds(matches))
	})

	t.Run("record encompassing keeps only records containing the query span", func(t *testing.T) {
		matches, err := index.Search(models.CoordinateQuery{Chr: "7", Start: 140453130, Stop: 140453140}, searchMode.RecordEncompassing)
		assert.NoError(t, err)
		assert.Equal(t, []int{12}, entryIds(matches))
	})

	t.Run("exact mode requires matching bounds and alleles", func(t *testing.T) {
		matches, err := index.Search(models.CoordinateQuery{
			Chr: "7", Start: 140453136, Stop: 140453136,
			Alt: models.StrPtr("T"), Ref: models.StrPtr("A"),
		}, searchMode.Exact)
		assert.NoError(t, err)
		assert.Equal(t, []int{10}, entryIds(matches))
	})

	t.Run("exact mode with a wildcard allele matches any literal", func(t *testing.T) {
		matches, err := index.Search(models.CoordinateQuery{
			Chr: "7", Start: 140453136, Stop: 140453136,
			Alt: models.StrPtr("*"), Ref: models.StrPtr("*"),
		}, searchMode.Exact)
		assert.NoError(t, err)
		assert.Equal(t, []int{10}, entryIds(matches))
	})

	t.Run("an absent query allele only matches records without one", func(t *testing.T) {
		matches, err := index.Search(models.CoordinateQuery{
			Chr: "7", Start: 140453074, Stop: 140453193,
		}, searchMode.Exact)
		assert.NoError(t, err)
		assert.Equal(t, []int{12}, entryIds(matches))
	})

	t.Run("a dash allele in an exact query is a caller error", func(t *testing.T) {
		_, err := index.Search(models.CoordinateQuery{
			Chr: "7", Start: 140453136, Stop: 140453136, Alt: models.StrPtr("-"),
		}, searchMode.Exact)
		assert.True(t, errorsDto.IsValidation(err))
	})

	t.Run("a non-GRCh37 build is rejected", func(t *testing.T) {
		_, err := index.Search(models.CoordinateQuery{Chr: "7", Start: 1, Stop: 2, Build: "GRCh38"}, searchMode.Any)
		assert.Error(t, err)
	})
}

func TestBulkSearch(t *testing.T) {
	index := newIndexUnderTest(t)

	queries := []models.CoordinateQuery{
		{Chr: "12", Start: 25378561, Stop: 25378561, Key: "kras"},
		{Chr: "7", Start: 55259515, Stop: 55259515, Key: "egfr"},
		{Chr: "7", Start: 140453136, Stop: 140453136, Key: "braf"},
	}
	SortQueries(queries)

	results, err := index.BulkSearch(queries, searchMode.Any)
	assert.NoError(t, err)
	assert.Len(t, results, 3)

	byKey := map[string][]int{}
	for _, result := range results {
		byKey[result.Query.Key] = entryIds(result.Matches)
	}
	assert.Equal(t, []int{14}, byKey["kras"])
	assert.Equal(t, []int{13}, byKey["egfr"])
	assert.ElementsMatch(t, []int{10, 11, 12}, byKey["braf"])

	t.Run("results echo queries in sorted input order", func(t *testing.T) {
		// chromosomes order lexicographically, so "12" sorts before "7"
		assert.Equal(t, "kras", results[0].Query.Key)
		assert.Equal(t, "egfr", results[1].Query.Key)
		assert.Equal(t, "braf", results[2].Query.Key)
	})

	t.Run("overlapping neighbour queries both see shared entries", func(t *testing.T) {
		overlapping := []models.CoordinateQuery{
			{Chr: "12", Start: 25378555, Stop: 25378561, Key: "left"},
			{Chr: "12", Start: 25378561, Stop: 25378570, Key: "right"},
		}
		SortQueries(overlapping)

		results, err := index.BulkSearch(overlapping, searchMode.Any)
		assert.NoError(t, err)
		// the sweep rewinds to where the previous query started
		// matching, so the shared entry is seen twice
		assert.Equal(t, []int{14}, entryIds(results[0].Matches))
		assert.Equal(t, []int{14}, entryIds(results[1].Matches))
	})
}

package coordinates

import (
	"fmt"
	"sort"

	"civic/sdk/cache"
	"civic/sdk/models"
	"civic/sdk/models/constants"
	referenceBuild "civic/sdk/models/constants/reference-build"
	searchMode "civic/sdk/models/constants/search-mode"
	errorsDto "civic/sdk/models/dtos/errors"

	"github.com/mitchellh/mapstructure"
)

/*
	In-memory index over the genomic coordinates of cached variant
	records. Built once per cache refresh, then queried any number of
	times ; entries are kept sorted lexicographically by
	(chromosome, start, stop, variant allele), the same ordering bulk
	callers must pre-sort their queries by.
*/

type Entry struct {
	Chr   string
	Start int
	Stop  int
	Alt   *string
	Ref   *string

	// the variant record this entry indexes
	Key cache.Key
}

type Index struct {
	entries []Entry
}

// BulkMatches pairs one bulk query with the entries it matched,
// echoed back in query-input order.
type BulkMatches struct {
	Query   models.CoordinateQuery
	Matches []Entry
}

// NewIndex builds the index from variant records. Records without a
// usable primary coordinate set are skipped ; a secondary coordinate
// set contributes an extra allele-less entry, so structural variants
// remain findable by either end.
func NewIndex(variants []*cache.Record) *Index {
	var entries []Entry

	for _, record := range variants {
		coords, ok := decodeCoordinates(record)
		if !ok {
			continue
		}
		if coords.HasPrimary() {
			entries = append(entries, Entry{
				Chr:   coords.Chromosome,
				Start: coords.Start,
				Stop:  coords.Stop,
				Alt:   models.NormalizeBases(coords.VariantBases),
				Ref:   models.NormalizeBases(coords.ReferenceBases),
				Key:   record.Key(),
			})
		}
		if coords.HasSecondary() {
			entries = append(entries, Entry{
				Chr:   coords.Chromosome2,
				Start: coords.Start2,
				Stop:  coords.Stop2,
				Key:   record.Key(),
			})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entryLess(entries[i], entries[j])
	})

	return &Index{entries: entries}
}

func decodeCoordinates(record *cache.Record) (*models.Coordinates, bool) {
	raw, ok := record.Attributes["coordinates"]
	if !ok || raw == nil {
		return nil, false
	}
	var coords models.Coordinates
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &coords,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, false
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, false
	}
	return &coords, true
}

func entryLess(a Entry, b Entry) bool {
	if a.Chr != b.Chr {
		return a.Chr < b.Chr
	}
	if a.Start != b.Start {
		return a.Start < b.Start
	}
	if a.Stop != b.Stop {
		return a.Stop < b.Stop
	}
	return altLess(a.Alt, b.Alt)
}

func altLess(a *string, b *string) bool {
	// absent alleles sort before literal ones
	if a == nil {
		return b != nil
	}
	if b == nil {
		return false
	}
	return *a < *b
}

func (ix *Index) Len() int {
	return len(ix.entries)
}

// SortQueries orders coordinate queries the way BulkSearch requires :
// by (chromosome, start, stop, variant allele), matching the index's
// own entry ordering.
func SortQueries(queries []models.CoordinateQuery) {
	sort.SliceStable(queries, func(i, j int) bool {
		a, b := queries[i], queries[j]
		if a.Chr != b.Chr {
			return a.Chr < b.Chr
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.Stop != b.Stop {
			return a.Stop < b.Stop
		}
		return altLess(a.Alt, b.Alt)
	})
}

// Search returns the entries matching a single coordinate query in
// the given search mode, in index order.
func (ix *Index) Search(query models.CoordinateQuery, mode constants.SearchMode) ([]Entry, error) {
	if query.Build != "" && query.Build != referenceBuild.GRCh37 {
		return nil, fmt.Errorf("coordinate search only supports build %s", referenceBuild.GRCh37)
	}
	if err := validateQueryAlleles(query, mode); err != nil {
		return nil, err
	}

	// jump to the query's chromosome, then scan while overlap is
	// still possible ; entries are sorted by start within a
	// chromosome, so the scan ends at the first start past the query
	first := sort.Search(len(ix.entries), func(i int) bool {
		return ix.entries[i].Chr >= query.Chr
	})

	var matches []Entry
	for i := first; i < len(ix.entries); i++ {
		e := ix.entries[i]
		if e.Chr != query.Chr || e.Start > query.Stop {
			break
		}
		if e.Stop < query.Start {
			continue
		}
		if matchesMode(query, e, mode) {
			matches = append(matches, e)
		}
	}
	return matches, nil
}

// BulkSearch performs one coordinated sweep over the index for a
// list of queries that the caller MUST have pre-sorted by
// (chromosome, start, stop, variant allele). Passing an unsorted
// list is a caller error and yields undefined results.
func (ix *Index) BulkSearch(sortedQueries []models.CoordinateQuery, mode constants.SearchMode) ([]BulkMatches, error) {
	results := make([]BulkMatches, len(sortedQueries))
	for i, q := range sortedQueries {
		results[i].Query = q
		if q.Build != "" && q.Build != referenceBuild.GRCh37 {
			return nil, fmt.Errorf("bulk coordinate search only supports build %s", referenceBuild.GRCh37)
		}
		if err := validateQueryAlleles(q, mode); err != nil {
			return nil, err
		}
	}

	var (
		entryPointer = 0
		queryPointer = 0
		lastQuery    = -1
		matchStart   = -1
	)

	for queryPointer < len(sortedQueries) && entryPointer < len(ix.entries) {
		q := sortedQueries[queryPointer]
		if lastQuery != queryPointer {
			// rewind to where the previous query started matching :
			// neighbouring queries may overlap the same entries
			if matchStart >= 0 {
				entryPointer = matchStart
				matchStart = -1
			}
			lastQuery = queryPointer
		}

		e := ix.entries[entryPointer]
		if q.Chr < e.Chr {
			queryPointer++
			continue
		}
		if q.Chr > e.Chr {
			entryPointer++
			continue
		}
		if q.Start > e.Stop {
			entryPointer++
			continue
		}
		if q.Stop < e.Start {
			queryPointer++
			continue
		}

		if matchesMode(q, e, mode) {
			results[queryPointer].Matches = append(results[queryPointer].Matches, e)
		}
		if matchStart < 0 {
			matchStart = entryPointer
		}
		entryPointer++
	}

	return results, nil
}

// matchesMode assumes query and entry already overlap on the same
// chromosome.
func matchesMode(q models.CoordinateQuery, e Entry, mode constants.SearchMode) bool {
	switch mode {
	case searchMode.Any, searchMode.Undefined:
		return true
	case searchMode.QueryEncompassing:
		return q.Start <= e.Start && q.Stop >= e.Stop
	case searchMode.RecordEncompassing:
		return e.Start <= q.Start && e.Stop >= q.Stop
	case searchMode.Exact:
		if q.Start != e.Start || q.Stop != e.Stop {
			return false
		}
		return alleleMatches(q.Alt, e.Alt) && alleleMatches(q.Ref, e.Ref)
	}
	return false
}

// alleleMatches applies the tri-state allele contract : nil only
// matches an absent allele, "*" matches anything, a literal matches
// itself.
func alleleMatches(queryAllele *string, entryAllele *string) bool {
	if queryAllele == nil {
		return entryAllele == nil
	}
	if *queryAllele == "*" {
		return true
	}
	return entryAllele != nil && *queryAllele == *entryAllele
}

func validateQueryAlleles(q models.CoordinateQuery, mode constants.SearchMode) error {
	if mode != searchMode.Exact {
		return nil
	}
	if q.Alt != nil && *q.Alt == "-" {
		return errorsDto.NewValidation("", 0, "unexpected alt `-` in coordinate query, use an absent allele instead")
	}
	if q.Ref != nil && *q.Ref == "-" {
		return errorsDto.NewValidation("", 0, "unexpected ref `-` in coordinate query, use an absent allele instead")
	}
	return nil
}

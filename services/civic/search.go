package civicService

import (
	"fmt"

	. "github.com/ahmetb/go-linq"

	"civic/sdk/cache"
	"civic/sdk/models"
	"civic/sdk/models/constants"
	recordType "civic/sdk/models/constants/record-type"
	"civic/sdk/services/coordinates"
	"civic/sdk/utils"
)

/*
	Cache-backed searches : attribute filters over variant records and
	the coordinate-based lookups. Coordinate searches operate on the
	coordinate index, which is rebuilt whenever the cache content
	changes ; a variant already cached as complete is never re-fetched
	for a search.
*/

// ensureVariantsSwept makes sure the store holds the full variant
// population before an exhaustive search runs against it.
func (c *Client) ensureVariantsSwept() error {
	if err := c.ensureFresh(); err != nil {
		return err
	}
	swept := false
	for _, t := range []constants.RecordType{recordType.GeneVariant, recordType.FusionVariant} {
		if _, ok := c.Store.AllIds(t); !ok {
			if _, err := c.Resolver.ResolveAllOfType(t); err != nil {
				return err
			}
			swept = true
		}
	}
	if swept {
		c.rebuildIndex()
	}
	return nil
}

// SearchVariantsByAttribute scans the cached variant population for
// records whose named raw attribute equals the given value.
func (c *Client) SearchVariantsByAttribute(attribute string, value string) ([]*models.GeneVariant, error) {
	if err := c.ensureVariantsSwept(); err != nil {
		return nil, err
	}

	records, err := c.Resolver.ResolveAllOfType(recordType.GeneVariant)
	if err != nil {
		return nil, err
	}

	var matches []*models.GeneVariant
	From(records).
		WhereT(func(record *cache.Record) bool {
			raw, ok := record.Attributes[attribute]
			return ok && raw != nil && fmt.Sprint(raw) == value
		}).
		SelectT(func(record *cache.Record) *models.GeneVariant {
			view, err := decodeRecord[models.GeneVariant](record)
			if err != nil {
				return nil
			}
			return view
		}).
		WhereT(func(view *models.GeneVariant) bool { return view != nil }).
		ToSlice(&matches)
	return matches, nil
}

func (c *Client) SearchVariantsByName(name string) ([]*models.GeneVariant, error) {
	return c.SearchVariantsByAttribute("name", name)
}

func (c *Client) SearchVariantsByAlleleRegistryId(caid string) ([]*models.GeneVariant, error) {
	return c.SearchVariantsByAttribute("allele_registry_id", caid)
}

// SearchVariantsByHgvs matches against the hgvs_expressions list
// field rather than a scalar attribute.
func (c *Client) SearchVariantsByHgvs(hgvs string) ([]*models.GeneVariant, error) {
	if err := c.ensureVariantsSwept(); err != nil {
		return nil, err
	}

	var matches []*models.GeneVariant
	records, err := c.Resolver.ResolveAllOfType(recordType.GeneVariant)
	if err != nil {
		return nil, err
	}
	for _, record := range records {
		view, err := decodeRecord[models.GeneVariant](record)
		if err != nil {
			continue
		}
		if utils.StringInSlice(hgvs, view.HgvsExpressions) {
			matches = append(matches, view)
		}
	}
	return matches, nil
}

// SearchVariantsByCoordinates returns the gene variants whose
// indexed coordinates match the query under the given search mode.
func (c *Client) SearchVariantsByCoordinates(query models.CoordinateQuery, mode constants.SearchMode) ([]*models.GeneVariant, error) {
	if err := c.ensureVariantsSwept(); err != nil {
		return nil, err
	}
	entries, err := c.Index().Search(query, mode)
	if err != nil {
		return nil, err
	}
	return c.variantsForEntries(entries), nil
}

// CoordinateMatches pairs one bulk query with the variants it
// matched, in query-input order.
type CoordinateMatches struct {
	Query    models.CoordinateQuery
	Variants []*models.GeneVariant
}

// BulkSearchVariantsByCoordinates runs one coordinated sweep over
// the coordinate index. The query list MUST be pre-sorted by
// (chromosome, start, stop, variant allele) ; SortCoordinateQueries
// does that. Unsorted input yields undefined results.
func (c *Client) BulkSearchVariantsByCoordinates(sortedQueries []models.CoordinateQuery, mode constants.SearchMode) ([]CoordinateMatches, error) {
	if err := c.ensureVariantsSwept(); err != nil {
		return nil, err
	}
	bulk, err := c.Index().BulkSearch(sortedQueries, mode)
	if err != nil {
		return nil, err
	}

	results := make([]CoordinateMatches, len(bulk))
	for i, matches := range bulk {
		results[i].Query = matches.Query
		results[i].Variants = c.variantsForEntries(matches.Matches)
	}
	return results, nil
}

// SearchAssertionsByCoordinates resolves coordinate matches onward
// to the assertions attached to the matching variants' molecular
// profiles.
func (c *Client) SearchAssertionsByCoordinates(query models.CoordinateQuery, mode constants.SearchMode) ([]*models.Assertion, error) {
	variants, err := c.SearchVariantsByCoordinates(query, mode)
	if err != nil {
		return nil, err
	}

	seen := map[int]bool{}
	var assertions []*models.Assertion
	for _, v := range variants {
		profiles, _ := c.ProfilesForVariant(v)
		for _, mp := range profiles {
			resolved, _ := c.AssertionsForProfile(mp)
			for _, a := range resolved {
				if seen[a.Id] {
					continue
				}
				seen[a.Id] = true
				assertions = append(assertions, a)
			}
		}
	}
	return assertions, nil
}

// variantsForEntries maps index entries back onto unique variant
// views, preserving entry order. Secondary-coordinate entries can
// point at an already-seen variant, hence the dedup.
func (c *Client) variantsForEntries(entries []coordinates.Entry) []*models.GeneVariant {
	seen := map[cache.Key]bool{}
	var variants []*models.GeneVariant
	for _, entry := range entries {
		if entry.Key.Type != recordType.GeneVariant || seen[entry.Key] {
			continue
		}
		seen[entry.Key] = true
		record, ok := c.Store.Get(entry.Key.Type, entry.Key.Id)
		if !ok {
			continue
		}
		view, err := decodeRecord[models.GeneVariant](record)
		if err != nil {
			continue
		}
		variants = append(variants, view)
	}
	return variants
}

// SortCoordinateQueries orders queries the way BulkSearch requires.
func SortCoordinateQueries(queries []models.CoordinateQuery) {
	coordinates.SortQueries(queries)
}

package resolver

import (
	"fmt"
	"strings"

	"civic/sdk/cache"
	"civic/sdk/models/constants"
	recordType "civic/sdk/models/constants/record-type"
	errorsDto "civic/sdk/models/dtos/errors"
	"civic/sdk/repositories/remote"
	"civic/sdk/utils"
)

/*
	The Resolver turns reference ids embedded in payloads into live
	cache records. Single lookups hit the store first and fall back to
	one fetch ; list lookups partition cached-complete against missing
	ids and batch the misses into as few upstream calls as possible,
	so a fan-out of N references costs ceil(N / MaxBatchSize) round
	trips instead of N.

	Resolution is idempotent : resolving the same reference twice
	returns the same record instance and issues no further network
	calls.
*/

type Resolver struct {
	Store        *cache.Store
	Fetcher      remote.Fetcher
	MaxBatchSize int
}

func NewResolver(store *cache.Store, fetcher remote.Fetcher, maxBatchSize int) *Resolver {
	if maxBatchSize < 1 {
		maxBatchSize = 1
	}
	return &Resolver{
		Store:        store,
		Fetcher:      fetcher,
		MaxBatchSize: maxBatchSize,
	}
}

// Resolution is the outcome for one id of a bulk resolve ; exactly
// one of Record and Err is set.
type Resolution struct {
	Id     int
	Record *cache.Record
	Err    error
}

// ResolveOne resolves a single reference : cache hit, or one
// upstream fetch followed by a cache insert.
func (r *Resolver) ResolveOne(t constants.RecordType, id int) (*cache.Record, error) {
	if record, ok := r.Store.Get(t, id); ok && !record.Partial {
		return record, nil
	}

	payloads, err := r.Fetcher.FetchByIds(t, []int{id})
	if err != nil {
		return nil, err
	}
	if len(payloads) == 0 {
		return nil, errorsDto.NewNotFound(t, id)
	}

	record, err := RecordFromPayload(t, payloads[0])
	if err != nil {
		return nil, err
	}
	return r.Store.Put(record), nil
}

// ResolveMany resolves a reference list in bulk. Results come back
// in input id order, one Resolution per id ; a failed id carries its
// own error and never aborts its siblings.
func (r *Resolver) ResolveMany(t constants.RecordType, ids []int) []Resolution {
	resolutions := make([]Resolution, len(ids))

	// partition cached-and-complete from missing
	var missing []int
	for _, id := range ids {
		if record, ok := r.Store.Get(t, id); ok && !record.Partial {
			continue
		}
		missing = append(missing, id)
	}

	fetched := map[int]*cache.Record{}
	var fetchErr error
	for _, chunk := range utils.ChunkInts(missing, r.MaxBatchSize) {
		payloads, err := r.Fetcher.FetchByIds(t, chunk)
		if err != nil {
			fetchErr = err
			continue
		}
		for _, payload := range payloads {
			record, err := RecordFromPayload(t, payload)
			if err != nil {
				continue
			}
			fetched[record.Id] = r.Store.Put(record)
		}
	}

	for i, id := range ids {
		resolutions[i].Id = id
		if record, ok := r.Store.Get(t, id); ok && !record.Partial {
			resolutions[i].Record = record
			continue
		}
		if _, ok := fetched[id]; ok {
			// inserted above but still partial ; treat as resolved
			resolutions[i].Record = fetched[id]
			continue
		}
		if fetchErr != nil {
			resolutions[i].Err = fetchErr
			continue
		}
		// the batch came back without this id : gone upstream
		resolutions[i].Err = errorsDto.NewNotFound(t, id)
	}

	return resolutions
}

// ResolveAllOfType serves "every record of this type". After a full
// sweep the per-type id registry makes this a pure cache read ;
// otherwise one paginated sweep is issued and registered.
func (r *Resolver) ResolveAllOfType(t constants.RecordType) ([]*cache.Record, error) {
	if ids, ok := r.Store.AllIds(t); ok {
		records := make([]*cache.Record, 0, len(ids))
		for _, id := range ids {
			if record, ok := r.Store.Get(t, id); ok {
				records = append(records, record)
			}
		}
		return records, nil
	}

	payloads, err := r.Fetcher.FetchAll(t, nil)
	if err != nil {
		return nil, err
	}

	records := make([]*cache.Record, 0, len(payloads))
	ids := make([]int, 0, len(payloads))
	for _, payload := range payloads {
		record, err := RecordFromPayload(t, payload)
		if err != nil {
			return nil, err
		}
		canonical := r.Store.Put(record)
		records = append(records, canonical)
		ids = append(ids, canonical.Id)
	}
	r.Store.SetAllIds(t, ids)
	return records, nil
}

// RecordFromPayload builds a complete cache record from one raw
// remote payload, flattening the remote API's nested reference
// shapes into plain id fields the way the rest of the SDK expects
// them.
func RecordFromPayload(t constants.RecordType, payload map[string]interface{}) (*cache.Record, error) {
	id, ok := intField(payload, "id")
	if !ok {
		return nil, fmt.Errorf("%s payload missing id", t)
	}

	attributes := map[string]interface{}{}
	for field, value := range payload {
		attributes[field] = value
	}

	// statuses arrive in SCREAMING case from the remote service
	if s, ok := attributes["status"].(string); ok {
		attributes["status"] = strings.ToLower(s)
	}

	// nested singular references flatten to <field>_id
	flattenRef(attributes, "feature", "feature_id")
	flattenRef(attributes, "molecularProfile", "molecular_profile_id")
	flattenRef(attributes, "assertion", "assertion_id")
	flattenRef(attributes, "organization", "organization_id")

	// nested reference collections flatten to id lists
	flattenRefList(attributes, "variants", "variant_ids")
	flattenRefList(attributes, "evidenceItems", "evidence_ids")
	flattenRefList(attributes, "assertions", "assertion_ids")
	flattenRefList(attributes, "molecularProfiles", "molecular_profile_ids")

	if recordType.IsVariantType(t) {
		normalizeCoordinates(attributes)
	}

	return cache.NewRecord(t, id, attributes), nil
}

func intField(payload map[string]interface{}, field string) (int, bool) {
	switch v := payload[field].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// flattenRef rewrites {"feature": {"id": 7, ...}} to feature_id: 7,
// leaving already-flat payloads untouched.
func flattenRef(attributes map[string]interface{}, field string, target string) {
	nested, ok := attributes[field].(map[string]interface{})
	if !ok {
		return
	}
	if id, ok := intField(nested, "id"); ok {
		attributes[target] = id
		delete(attributes, field)
	}
}

// flattenRefList rewrites {"variants": {"nodes": [{"id": 1}, ...]}}
// (or a bare object list) to variant_ids: [1, ...].
func flattenRefList(attributes map[string]interface{}, field string, target string) {
	var items []interface{}
	switch v := attributes[field].(type) {
	case map[string]interface{}:
		nodes, ok := v["nodes"].([]interface{})
		if !ok {
			return
		}
		items = nodes
	case []interface{}:
		items = v
	default:
		return
	}

	ids := make([]interface{}, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return
		}
		id, ok := intField(obj, "id")
		if !ok {
			return
		}
		ids = append(ids, id)
	}
	attributes[target] = ids
	delete(attributes, field)
}

// normalizeCoordinates maps the remote "-" / "" allele conventions
// onto explicit absence inside an embedded coordinates object.
func normalizeCoordinates(attributes map[string]interface{}) {
	coordinates, ok := attributes["coordinates"].(map[string]interface{})
	if !ok {
		return
	}
	for _, field := range []string{"reference_bases", "variant_bases"} {
		if bases, ok := coordinates[field].(string); ok {
			if bases == "" || bases == "-" {
				coordinates[field] = nil
			}
		}
	}
}

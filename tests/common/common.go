package common

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v2"

	"civic/sdk/models"
	"civic/sdk/models/constants"
	recordType "civic/sdk/models/constants/record-type"
)

/*
	Shared fixtures and fakes for the unit tests : an in-memory
	configuration, a deterministic variant population expressed as
	yaml, and a counting fake of the remote fetcher.
*/

func InitConfig() *models.Config {
	cfg := &models.Config{}
	cfg.Api.Url = "http://localhost:0"
	cfg.Api.LinksUrl = "https://civicdb.org/links"
	cfg.Api.PageSize = 2
	cfg.Api.MaxBatchSize = 2
	cfg.Api.MaxRetries = 2
	cfg.Api.TimeoutSeconds = 5
	cfg.Cache.TimeoutDays = 7
	cfg.Watch.IntervalHours = 24
	return cfg
}

// the deterministic variant population the coordinate and search
// tests run against ; chromosome 7 carries overlapping entries on
// purpose
const variantFixtureYaml = `
- id: 10
  name: V600E
  gene_id: 1
  chromosome: "7"
  start: 140453136
  stop: 140453136
  reference_bases: A
  variant_bases: T
- id: 11
  name: V600K
  gene_id: 1
  chromosome: "7"
  start: 140453136
  stop: 140453137
  reference_bases: AC
  variant_bases: TT
- id: 12
  name: EXON 15 MUTATION
  gene_id: 1
  chromosome: "7"
  start: 140453074
  stop: 140453193
- id: 13
  name: L858R
  gene_id: 2
  chromosome: "7"
  start: 55259515
  stop: 55259515
  reference_bases: T
  variant_bases: G
- id: 14
  name: Y64A
  gene_id: 3
  chromosome: "12"
  start: 25378561
  stop: 25378561
  reference_bases: T
  variant_bases: G
`

type VariantFixture struct {
	Id             int    `yaml:"id"`
	Name           string `yaml:"name"`
	GeneId         int    `yaml:"gene_id"`
	Chromosome     string `yaml:"chromosome"`
	Start          int    `yaml:"start"`
	Stop           int    `yaml:"stop"`
	ReferenceBases string `yaml:"reference_bases"`
	VariantBases   string `yaml:"variant_bases"`
}

func LoadVariantFixtures() []VariantFixture {
	var fixtures []VariantFixture
	if err := yaml.Unmarshal([]byte(variantFixtureYaml), &fixtures); err != nil {
		processError(err)
	}
	return fixtures
}

func processError(err error) {
	fmt.Println(err)
	os.Exit(2)
}

// VariantPayload renders one fixture the way the remote api would.
func VariantPayload(fixture VariantFixture) map[string]interface{} {
	coordinates := map[string]interface{}{
		"reference_build": "GRCH37",
		"chromosome":      fixture.Chromosome,
		"start":           fixture.Start,
		"stop":            fixture.Stop,
	}
	if fixture.ReferenceBases != "" {
		coordinates["reference_bases"] = fixture.ReferenceBases
	}
	if fixture.VariantBases != "" {
		coordinates["variant_bases"] = fixture.VariantBases
	}
	return map[string]interface{}{
		"id":          fixture.Id,
		"name":        fixture.Name,
		"status":      "ACCEPTED",
		"coordinates": coordinates,
		"feature":     map[string]interface{}{"id": fixture.GeneId},
	}
}

func RecordPayload(id int, attributes map[string]interface{}) map[string]interface{} {
	payload := map[string]interface{}{"id": id}
	for key, value := range attributes {
		payload[key] = value
	}
	return payload
}

// FakeFetcher is an in-memory remote.Fetcher with call accounting,
// so tests can assert how often and how coarsely the resolver went
// to the network.
type FakeFetcher struct {
	Payloads map[constants.RecordType][]map[string]interface{}

	// when set, every call fails with this error
	Err error

	FetchByIdsCalls     int
	FetchAllCalls       int
	RequestedBatchSizes []int
}

func NewFakeFetcher() *FakeFetcher {
	return &FakeFetcher{
		Payloads: map[constants.RecordType][]map[string]interface{}{},
	}
}

// Add registers a payload under its record type.
func (f *FakeFetcher) Add(t constants.RecordType, payload map[string]interface{}) {
	f.Payloads[t] = append(f.Payloads[t], payload)
}

// AddVariantFixtures registers the standard variant population.
func (f *FakeFetcher) AddVariantFixtures() {
	for _, fixture := range LoadVariantFixtures() {
		f.Add(recordType.GeneVariant, VariantPayload(fixture))
	}
}

func (f *FakeFetcher) FetchByIds(t constants.RecordType, ids []int) ([]map[string]interface{}, error) {
	f.FetchByIdsCalls++
	f.RequestedBatchSizes = append(f.RequestedBatchSizes, len(ids))
	if f.Err != nil {
		return nil, f.Err
	}

	wanted := map[int]bool{}
	for _, id := range ids {
		wanted[id] = true
	}
	var results []map[string]interface{}
	for _, payload := range f.Payloads[t] {
		if id, ok := payloadId(payload); ok && wanted[id] {
			results = append(results, payload)
		}
	}
	return results, nil
}

func (f *FakeFetcher) FetchAll(t constants.RecordType, filter map[string]interface{}) ([]map[string]interface{}, error) {
	f.FetchAllCalls++
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Payloads[t], nil
}

func (f *FakeFetcher) FetchByAttribute(t constants.RecordType, attribute string, value interface{}) ([]map[string]interface{}, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	var results []map[string]interface{}
	for _, payload := range f.Payloads[t] {
		if fmt.Sprint(payload[attribute]) == fmt.Sprint(value) {
			results = append(results, payload)
		}
	}
	return results, nil
}

func payloadId(payload map[string]interface{}) (int, bool) {
	switch id := payload["id"].(type) {
	case int:
		return id, true
	case float64:
		return int(id), true
	}
	return 0, false
}

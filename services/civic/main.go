package civicService

import (
	"fmt"
	"os"
	"time"

	"civic/sdk/cache"
	"civic/sdk/models"
	"civic/sdk/models/constants"
	recordType "civic/sdk/models/constants/record-type"
	"civic/sdk/models/constants/status"
	errorsDto "civic/sdk/models/dtos/errors"
	"civic/sdk/repositories/remote"
	"civic/sdk/services/coordinates"
	"civic/sdk/services/resolver"

	"github.com/google/uuid"
)

/*
	Client is the SDK facade : an explicitly constructed object owning
	the cache store, the remote fetcher, the resolver and the
	coordinate index, with a defined load / refresh / save lifecycle.
	There is no package-level singleton ; tests construct isolated
	clients around fake fetchers.
*/

type Client struct {
	Config   *models.Config
	Store    *cache.Store
	Fetcher  remote.Fetcher
	Resolver *resolver.Resolver

	// statuses a record must carry to pass the default filters
	IncludeStatus []constants.RecordStatus

	index *coordinates.Index

	// set once the first staleness decision has been taken, so a
	// stale store triggers exactly one refresh attempt, not one per
	// read
	staleChecked bool

	refreshLog []models.RefreshRequest
}

func NewClient(cfg *models.Config) *Client {
	store := cache.NewStore()
	fetcher := remote.NewApiFetcher(cfg)
	return NewClientWithFetcher(cfg, store, fetcher)
}

// NewClientWithFetcher wires a client around an externally supplied
// store and fetcher ; this is the constructor tests use.
func NewClientWithFetcher(cfg *models.Config, store *cache.Store, fetcher remote.Fetcher) *Client {
	c := &Client{
		Config:        cfg,
		Store:         store,
		Fetcher:       fetcher,
		Resolver:      resolver.NewResolver(store, fetcher, cfg.Api.MaxBatchSize),
		IncludeStatus: status.All(),
	}

	if cfg.Cache.Path != "" {
		if err := c.LoadSnapshot(cfg.Cache.Path); err != nil {
			// missing or corrupt snapshots are never fatal ; the
			// empty store is stale and the next access refreshes it
			if errorsDto.IsCorruptCache(err) {
				fmt.Printf("[%s] - Discarding unreadable cache snapshot : %v\n", time.Now(), err)
			}
		}
	}
	return c
}

func (c *Client) maxCacheAge() time.Duration {
	return time.Duration(c.Config.Cache.TimeoutDays) * 24 * time.Hour
}

// ensureFresh applies the staleness policy before a read : a stale
// store gets one full refresh attempt. When the refresh fails
// transiently and stale data exists, the SDK falls back to the
// last-known-good content instead of failing the read.
func (c *Client) ensureFresh() error {
	if c.staleChecked || !c.Store.IsStale(c.maxCacheAge()) {
		return nil
	}
	c.staleChecked = true

	err := c.UpdateCache("stale")
	if err == nil {
		return nil
	}
	if errorsDto.IsTransient(err) && c.Store.Len() > 0 {
		fmt.Printf("[%s] - Knowledgebase unreachable, serving stale cache : %v\n", time.Now(), err)
		return nil
	}
	return err
}

// UpdateCache performs a full hard refresh : one paginated sweep per
// record type, reverse-link wiring, coordinate index rebuild, and a
// snapshot save when a cache path is configured.
func (c *Client) UpdateCache(reason string) error {
	request := models.RefreshRequest{
		Id:        uuid.New(),
		Reason:    reason,
		State:     models.RefreshRunning,
		CreatedAt: time.Now().Format(time.RFC3339),
	}
	fmt.Printf("[%s] - Refreshing knowledgebase cache (request %s, reason: %s)\n", time.Now(), request.Id, reason)

	swept := map[constants.RecordType][]*cache.Record{}
	for _, t := range recordType.FullSweepTypes() {
		payloads, err := c.Fetcher.FetchAll(t, nil)
		if err != nil {
			request.State = models.RefreshError
			request.Message = err.Error()
			request.UpdatedAt = time.Now().Format(time.RFC3339)
			c.refreshLog = append(c.refreshLog, request)
			return err
		}

		records := make([]*cache.Record, 0, len(payloads))
		ids := make([]int, 0, len(payloads))
		for _, payload := range payloads {
			record, err := resolver.RecordFromPayload(t, payload)
			if err != nil {
				// a single malformed payload should not sink the
				// whole sweep
				fmt.Printf("[%s] - Skipping malformed %s payload : %v\n", time.Now(), t, err)
				continue
			}
			// a full refresh replaces local state wholesale ; Put
			// would merge and resurrect fields deleted upstream
			canonical := c.Store.Replace(record)
			records = append(records, canonical)
			ids = append(ids, canonical.Id)
		}
		c.Store.SetAllIds(t, ids)
		swept[t] = records
	}

	c.wireReverseLinks(swept)
	c.Store.SetLastUpdated(time.Now())
	c.rebuildIndex()

	request.State = models.RefreshDone
	request.Records = c.Store.Len()
	request.UpdatedAt = time.Now().Format(time.RFC3339)
	c.refreshLog = append(c.refreshLog, request)

	if c.Config.Cache.Path != "" {
		if err := c.SaveSnapshot(c.Config.Cache.Path); err != nil {
			fmt.Printf("[%s] - Could not persist cache snapshot : %v\n", time.Now(), err)
		}
	}
	return nil
}

// SoftUpdateCache prefers the prebuilt daily snapshot over a full
// API sweep : download, load, rebuild. Falls back to a hard update
// when no remote snapshot is configured.
func (c *Client) SoftUpdateCache() error {
	if c.Config.Cache.RemoteUrl == "" || c.Config.Cache.Path == "" {
		return c.UpdateCache("manual")
	}
	fetcher, ok := c.Fetcher.(*remote.ApiFetcher)
	if !ok {
		return c.UpdateCache("manual")
	}
	if err := remote.DownloadSnapshot(fetcher.Client, c.Config.Cache.RemoteUrl, c.Config.Cache.Path); err != nil {
		return err
	}
	return c.LoadSnapshot(c.Config.Cache.Path)
}

// wireReverseLinks completes the bidirectional reference graph after
// a sweep : features learn their variants, variants their molecular
// profiles, profiles their evidence and assertions. Forward links
// (ids embedded in payloads) are already in place.
func (c *Client) wireReverseLinks(swept map[constants.RecordType][]*cache.Record) {
	variantsByFeature := map[int][]interface{}{}
	for _, t := range []constants.RecordType{recordType.GeneVariant, recordType.FactorVariant, recordType.FusionVariant} {
		for _, variant := range swept[t] {
			if featureId, ok := variant.IntField("feature_id"); ok {
				variantsByFeature[featureId] = append(variantsByFeature[featureId], variant.Id)
			}
		}
	}
	for _, t := range []constants.RecordType{recordType.Gene, recordType.Factor, recordType.Fusion} {
		for _, feature := range swept[t] {
			feature.Attributes["variant_ids"] = variantsByFeature[feature.Id]
		}
	}

	profilesByVariant := map[int][]interface{}{}
	evidenceByProfile := map[int][]interface{}{}
	assertionsByProfile := map[int][]interface{}{}
	for _, profile := range swept[recordType.MolecularProfile] {
		for _, variantId := range profile.IntListField("variant_ids") {
			profilesByVariant[variantId] = append(profilesByVariant[variantId], profile.Id)
		}
	}
	for _, evidence := range swept[recordType.Evidence] {
		if profileId, ok := evidence.IntField("molecular_profile_id"); ok {
			evidenceByProfile[profileId] = append(evidenceByProfile[profileId], evidence.Id)
		}
	}
	for _, assertion := range swept[recordType.Assertion] {
		if profileId, ok := assertion.IntField("molecular_profile_id"); ok {
			assertionsByProfile[profileId] = append(assertionsByProfile[profileId], assertion.Id)
		}
	}

	for _, t := range []constants.RecordType{recordType.GeneVariant, recordType.FactorVariant, recordType.FusionVariant} {
		for _, variant := range swept[t] {
			variant.Attributes["molecular_profile_ids"] = profilesByVariant[variant.Id]
		}
	}
	for _, profile := range swept[recordType.MolecularProfile] {
		profile.Attributes["evidence_ids"] = evidenceByProfile[profile.Id]
		profile.Attributes["assertion_ids"] = assertionsByProfile[profile.Id]
	}
}

func (c *Client) rebuildIndex() {
	var variants []*cache.Record
	for _, t := range []constants.RecordType{recordType.GeneVariant, recordType.FusionVariant} {
		variants = append(variants, c.Store.RecordsOfType(t)...)
	}
	c.index = coordinates.NewIndex(variants)
}

// Index returns the coordinate index, building it on first use.
func (c *Client) Index() *coordinates.Index {
	if c.index == nil {
		c.rebuildIndex()
	}
	return c.index
}

// LoadSnapshot rehydrates the store from disk. Missing files
// surface as os.ErrNotExist, unreadable ones as CorruptCacheError ;
// either way the store is left empty and therefore stale.
func (c *Client) LoadSnapshot(path string) error {
	if err := c.Store.Load(path); err != nil {
		if !os.IsNotExist(err) {
			c.Store.Purge()
		}
		return err
	}
	c.rebuildIndex()
	return nil
}

func (c *Client) SaveSnapshot(path string) error {
	return c.Store.Save(path)
}

// RefreshLog reports the refresh requests this client has run.
func (c *Client) RefreshLog() []models.RefreshRequest {
	return c.refreshLog
}

// SiteLink returns the public web address of a record.
func (c *Client) SiteLink(t constants.RecordType, id int) string {
	return fmt.Sprintf("%s/%s/%d", c.Config.Api.LinksUrl, t, id)
}

func (c *Client) statusAllowed(s constants.RecordStatus) bool {
	return status.Contains(c.IncludeStatus, s)
}

package civicService

import (
	"civic/sdk/cache"
	"civic/sdk/models"
	"civic/sdk/models/constants"
	recordType "civic/sdk/models/constants/record-type"
)

/*
	Typed record retrieval.

	Every getter runs the staleness policy, resolves through the
	cache, and decodes the raw record into its typed view. Bulk
	getters are best-effort : successes come back in input id order,
	failures are enumerated per id instead of aborting the batch.
*/

func decodeRecord[T any](record *cache.Record) (*T, error) {
	var out T
	if err := record.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func getOne[T any](c *Client, t constants.RecordType, id int) (*T, error) {
	if err := c.ensureFresh(); err != nil {
		return nil, err
	}
	record, err := c.Resolver.ResolveOne(t, id)
	if err != nil {
		return nil, err
	}
	return decodeRecord[T](record)
}

func getMany[T any](c *Client, t constants.RecordType, ids []int) ([]*T, map[int]error) {
	failed := map[int]error{}
	if err := c.ensureFresh(); err != nil {
		for _, id := range ids {
			failed[id] = err
		}
		return nil, failed
	}

	var results []*T
	for _, resolution := range c.Resolver.ResolveMany(t, ids) {
		if resolution.Err != nil {
			failed[resolution.Id] = resolution.Err
			continue
		}
		view, err := decodeRecord[T](resolution.Record)
		if err != nil {
			failed[resolution.Id] = err
			continue
		}
		results = append(results, view)
	}
	return results, failed
}

func getAll[T any](c *Client, t constants.RecordType) ([]*T, error) {
	if err := c.ensureFresh(); err != nil {
		return nil, err
	}
	records, err := c.Resolver.ResolveAllOfType(t)
	if err != nil {
		return nil, err
	}
	views := make([]*T, 0, len(records))
	for _, record := range records {
		view, err := decodeRecord[T](record)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// -- features

func (c *Client) GetGeneById(id int) (*models.Gene, error) {
	return getOne[models.Gene](c, recordType.Gene, id)
}

func (c *Client) GetGenesByIds(ids []int) ([]*models.Gene, map[int]error) {
	return getMany[models.Gene](c, recordType.Gene, ids)
}

func (c *Client) GetAllGenes() ([]*models.Gene, error) {
	return getAll[models.Gene](c, recordType.Gene)
}

func (c *Client) GetFactorById(id int) (*models.Factor, error) {
	return getOne[models.Factor](c, recordType.Factor, id)
}

func (c *Client) GetAllFactors() ([]*models.Factor, error) {
	return getAll[models.Factor](c, recordType.Factor)
}

func (c *Client) GetFusionById(id int) (*models.Fusion, error) {
	return getOne[models.Fusion](c, recordType.Fusion, id)
}

func (c *Client) GetAllFusions() ([]*models.Fusion, error) {
	return getAll[models.Fusion](c, recordType.Fusion)
}

// -- variants

func (c *Client) GetGeneVariantById(id int) (*models.GeneVariant, error) {
	return getOne[models.GeneVariant](c, recordType.GeneVariant, id)
}

func (c *Client) GetGeneVariantsByIds(ids []int) ([]*models.GeneVariant, map[int]error) {
	return getMany[models.GeneVariant](c, recordType.GeneVariant, ids)
}

// GetAllGeneVariants returns every gene variant backed by at least
// one evidence item passing the client's include-status filter ;
// variants without usable evidence are left out, matching the
// knowledgebase's own browse behavior.
func (c *Client) GetAllGeneVariants() ([]*models.GeneVariant, error) {
	variants, err := getAll[models.GeneVariant](c, recordType.GeneVariant)
	if err != nil {
		return nil, err
	}
	var kept []*models.GeneVariant
	for _, v := range variants {
		if c.variantHasIncludedEvidence(v.MolecularProfileIds) {
			kept = append(kept, v)
		}
	}
	return kept, nil
}

func (c *Client) GetFactorVariantById(id int) (*models.FactorVariant, error) {
	return getOne[models.FactorVariant](c, recordType.FactorVariant, id)
}

func (c *Client) GetFusionVariantById(id int) (*models.FusionVariant, error) {
	return getOne[models.FusionVariant](c, recordType.FusionVariant, id)
}

// variantHasIncludedEvidence walks variant -> molecular profiles ->
// evidence using the cached reverse links. When the links are not
// wired (no full sweep yet), the variant is kept rather than
// silently dropped.
func (c *Client) variantHasIncludedEvidence(profileIds []int) bool {
	if _, linksWired := c.Store.AllIds(recordType.MolecularProfile); !linksWired {
		return true
	}
	for _, profileId := range profileIds {
		profile, ok := c.Store.Get(recordType.MolecularProfile, profileId)
		if !ok {
			continue
		}
		for _, evidenceId := range profile.IntListField("evidence_ids") {
			evidence, ok := c.Store.Get(recordType.Evidence, evidenceId)
			if !ok {
				continue
			}
			if s, ok := evidence.StringField("status"); ok && c.statusAllowed(constants.RecordStatus(s)) {
				return true
			}
		}
	}
	return false
}

// -- molecular profiles

func (c *Client) GetMolecularProfileById(id int) (*models.MolecularProfile, error) {
	return getOne[models.MolecularProfile](c, recordType.MolecularProfile, id)
}

func (c *Client) GetMolecularProfilesByIds(ids []int) ([]*models.MolecularProfile, map[int]error) {
	return getMany[models.MolecularProfile](c, recordType.MolecularProfile, ids)
}

func (c *Client) GetAllMolecularProfiles() ([]*models.MolecularProfile, error) {
	return getAll[models.MolecularProfile](c, recordType.MolecularProfile)
}

// -- evidence and assertions

func (c *Client) GetEvidenceById(id int) (*models.Evidence, error) {
	return getOne[models.Evidence](c, recordType.Evidence, id)
}

func (c *Client) GetEvidenceByIds(ids []int) ([]*models.Evidence, map[int]error) {
	return getMany[models.Evidence](c, recordType.Evidence, ids)
}

func (c *Client) GetAllEvidence() ([]*models.Evidence, error) {
	evidence, err := getAll[models.Evidence](c, recordType.Evidence)
	if err != nil {
		return nil, err
	}
	var kept []*models.Evidence
	for _, e := range evidence {
		if c.statusAllowed(e.Status) {
			kept = append(kept, e)
		}
	}
	return kept, nil
}

func (c *Client) GetAssertionById(id int) (*models.Assertion, error) {
	return getOne[models.Assertion](c, recordType.Assertion, id)
}

func (c *Client) GetAssertionsByIds(ids []int) ([]*models.Assertion, map[int]error) {
	return getMany[models.Assertion](c, recordType.Assertion, ids)
}

func (c *Client) GetAllAssertions() ([]*models.Assertion, error) {
	assertions, err := getAll[models.Assertion](c, recordType.Assertion)
	if err != nil {
		return nil, err
	}
	var kept []*models.Assertion
	for _, a := range assertions {
		if c.statusAllowed(a.Status) {
			kept = append(kept, a)
		}
	}
	return kept, nil
}

// -- remaining record kinds

func (c *Client) GetVariantGroupById(id int) (*models.VariantGroup, error) {
	return getOne[models.VariantGroup](c, recordType.VariantGroup, id)
}

func (c *Client) GetAllVariantGroups() ([]*models.VariantGroup, error) {
	return getAll[models.VariantGroup](c, recordType.VariantGroup)
}

func (c *Client) GetSourceById(id int) (*models.Source, error) {
	return getOne[models.Source](c, recordType.Source, id)
}

func (c *Client) GetDiseaseById(id int) (*models.Disease, error) {
	return getOne[models.Disease](c, recordType.Disease, id)
}

func (c *Client) GetTherapyById(id int) (*models.Therapy, error) {
	return getOne[models.Therapy](c, recordType.Therapy, id)
}

func (c *Client) GetPhenotypeById(id int) (*models.Phenotype, error) {
	return getOne[models.Phenotype](c, recordType.Phenotype, id)
}

func (c *Client) GetOrganizationById(id int) (*models.Organization, error) {
	return getOne[models.Organization](c, recordType.Organization, id)
}

func (c *Client) GetUserById(id int) (*models.User, error) {
	return getOne[models.User](c, recordType.User, id)
}

func (c *Client) GetApprovalById(id int) (*models.Approval, error) {
	return getOne[models.Approval](c, recordType.Approval, id)
}

// -- reference accessors ; one per cross-reference field, resolving
//    lazily through the cache

func (c *Client) GeneForVariant(v *models.GeneVariant) (*models.Gene, error) {
	return c.GetGeneById(v.FeatureId)
}

func (c *Client) VariantsForGene(g *models.Gene) ([]*models.GeneVariant, map[int]error) {
	return c.GetGeneVariantsByIds(g.VariantIds)
}

func (c *Client) ProfilesForVariant(v *models.GeneVariant) ([]*models.MolecularProfile, map[int]error) {
	return c.GetMolecularProfilesByIds(v.MolecularProfileIds)
}

func (c *Client) VariantsForProfile(mp *models.MolecularProfile) ([]*models.GeneVariant, map[int]error) {
	return c.GetGeneVariantsByIds(mp.VariantIds)
}

func (c *Client) EvidenceForProfile(mp *models.MolecularProfile) ([]*models.Evidence, map[int]error) {
	evidence, failed := c.GetEvidenceByIds(mp.EvidenceIds)
	return c.filterEvidence(evidence), failed
}

func (c *Client) AssertionsForProfile(mp *models.MolecularProfile) ([]*models.Assertion, map[int]error) {
	assertions, failed := c.GetAssertionsByIds(mp.AssertionIds)
	return c.filterAssertions(assertions), failed
}

func (c *Client) EvidenceForAssertion(a *models.Assertion) ([]*models.Evidence, map[int]error) {
	evidence, failed := c.GetEvidenceByIds(a.EvidenceIds)
	return c.filterEvidence(evidence), failed
}

func (c *Client) AssertionsForEvidence(e *models.Evidence) ([]*models.Assertion, map[int]error) {
	assertions, failed := c.GetAssertionsByIds(e.AssertionIds)
	return c.filterAssertions(assertions), failed
}

func (c *Client) ProfileForEvidence(e *models.Evidence) (*models.MolecularProfile, error) {
	return c.GetMolecularProfileById(e.MolecularProfileId)
}

func (c *Client) ProfileForAssertion(a *models.Assertion) (*models.MolecularProfile, error) {
	return c.GetMolecularProfileById(a.MolecularProfileId)
}

func (c *Client) VariantsForGroup(vg *models.VariantGroup) ([]*models.GeneVariant, map[int]error) {
	return c.GetGeneVariantsByIds(vg.VariantIds)
}

func (c *Client) AssertionForApproval(ap *models.Approval) (*models.Assertion, error) {
	return c.GetAssertionById(ap.AssertionId)
}

func (c *Client) OrganizationForApproval(ap *models.Approval) (*models.Organization, error) {
	return c.GetOrganizationById(ap.OrganizationId)
}

// GetApprovalsReadyForClinvarSubmission returns the approvals of one
// organization whose assertions are cleared for ClinVar submission.
func (c *Client) GetApprovalsReadyForClinvarSubmission(organizationId int) ([]*models.Approval, error) {
	approvals, err := getAll[models.Approval](c, recordType.Approval)
	if err != nil {
		return nil, err
	}
	var kept []*models.Approval
	for _, ap := range approvals {
		if ap.OrganizationId == organizationId && ap.ReadyForClinvarSubmission {
			kept = append(kept, ap)
		}
	}
	return kept, nil
}

func (c *Client) filterEvidence(evidence []*models.Evidence) []*models.Evidence {
	var kept []*models.Evidence
	for _, e := range evidence {
		if c.statusAllowed(e.Status) {
			kept = append(kept, e)
		}
	}
	return kept
}

func (c *Client) filterAssertions(assertions []*models.Assertion) []*models.Assertion {
	var kept []*models.Assertion
	for _, a := range assertions {
		if c.statusAllowed(a.Status) {
			kept = append(kept, a)
		}
	}
	return kept
}

package civicService

import (
	"fmt"
	"time"

	"civic/sdk/exports/gks"
	"civic/sdk/exports/vcf"
	"civic/sdk/models"
)

/*
	Export assembly : the writers consume fully resolved annotation
	bundles, so the client walks the reference graph here and hands
	them plain views. Resolution failures on optional annotations are
	tolerated ; a variant with unreachable evidence still exports with
	what could be resolved.
*/

// AnnotateVariantForVcf resolves the gene, molecular profiles,
// evidence and assertions of one variant into a VCF export bundle.
func (c *Client) AnnotateVariantForVcf(v *models.GeneVariant) (vcf.AnnotatedVariant, error) {
	gene, err := c.GeneForVariant(v)
	if err != nil {
		return vcf.AnnotatedVariant{}, err
	}

	annotated := vcf.AnnotatedVariant{Variant: v, Gene: gene}
	profiles, _ := c.ProfilesForVariant(v)
	for _, mp := range profiles {
		evidence, _ := c.EvidenceForProfile(mp)
		assertions, _ := c.AssertionsForProfile(mp)
		annotated.Profiles = append(annotated.Profiles, vcf.ProfileAnnotation{
			Profile:    mp,
			Evidence:   evidence,
			Assertions: assertions,
		})
	}
	return annotated, nil
}

// AnnotatedVariantsForVcf bundles every exportable gene variant. The
// validity check itself belongs to the writer ; this only drops
// variants whose gene cannot be resolved.
func (c *Client) AnnotatedVariantsForVcf() ([]vcf.AnnotatedVariant, error) {
	variants, err := c.GetAllGeneVariants()
	if err != nil {
		return nil, err
	}
	var bundles []vcf.AnnotatedVariant
	for _, v := range variants {
		annotated, err := c.AnnotateVariantForVcf(v)
		if err != nil {
			fmt.Printf("[%s] - Skipping variant %d in VCF export : %v\n", time.Now(), v.Id, err)
			continue
		}
		bundles = append(bundles, annotated)
	}
	return bundles, nil
}

// AnnotateAssertionForGks resolves the full context of one assertion
// into a GKS export bundle.
func (c *Client) AnnotateAssertionForGks(a *models.Assertion) (gks.AnnotatedAssertion, error) {
	profile, err := c.ProfileForAssertion(a)
	if err != nil {
		return gks.AnnotatedAssertion{}, err
	}

	annotated := gks.AnnotatedAssertion{Assertion: a, Profile: profile}
	evidence, _ := c.EvidenceForAssertion(a)
	annotated.Evidence = evidence

	if len(profile.VariantIds) == 1 {
		if variant, err := c.GetGeneVariantById(profile.VariantIds[0]); err == nil {
			annotated.Variant = variant
			if gene, err := c.GeneForVariant(variant); err == nil {
				annotated.Gene = gene
			}
		}
	}
	return annotated, nil
}

// AnnotatedAssertionsForClinvar bundles the assertions an
// organization has approved for ClinVar submission. The organization
// is looked up first so an unknown id fails fast.
func (c *Client) AnnotatedAssertionsForClinvar(organizationId int) ([]gks.AnnotatedAssertion, error) {
	organization, err := c.GetOrganizationById(organizationId)
	if err != nil {
		return nil, err
	}
	approvals, err := c.GetApprovalsReadyForClinvarSubmission(organizationId)
	if err != nil {
		return nil, err
	}

	var bundles []gks.AnnotatedAssertion
	for _, approval := range approvals {
		assertion, err := c.AssertionForApproval(approval)
		if err != nil {
			fmt.Printf("[%s] - Skipping approval %d in GKS export : %v\n", time.Now(), approval.Id, err)
			continue
		}
		annotated, err := c.AnnotateAssertionForGks(assertion)
		if err != nil {
			fmt.Printf("[%s] - Skipping assertion %d in GKS export : %v\n", time.Now(), assertion.Id, err)
			continue
		}
		annotated.Approval = approval
		annotated.Organization = organization
		bundles = append(bundles, annotated)
	}
	return bundles, nil
}

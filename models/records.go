package models

import (
	"fmt"
	"regexp"
	"strings"

	"civic/sdk/models/constants"
)

/*
	Typed views over cached knowledgebase records.

	The cache itself stores raw attribute maps keyed by (type, id) ;
	these structs are decoded projections of those maps, used by the
	coordinate index, the export writers and the public client
	surface. Reference fields (ids and id lists) are kept verbatim ;
	resolving them into records is the client's job.
*/

// -- features

type Gene struct {
	Id          int      `json:"id" mapstructure:"id"`
	Name        string   `json:"name" mapstructure:"name"`
	Description string   `json:"description" mapstructure:"description"`
	EntrezId    int      `json:"entrez_id" mapstructure:"entrez_id"`
	Aliases     []string `json:"aliases" mapstructure:"aliases"`
	Sources     []Source `json:"sources" mapstructure:"sources"`
	VariantIds  []int    `json:"variant_ids" mapstructure:"variant_ids"`
}

type Factor struct {
	Id          int      `json:"id" mapstructure:"id"`
	Name        string   `json:"name" mapstructure:"name"`
	FullName    string   `json:"full_name" mapstructure:"full_name"`
	Description string   `json:"description" mapstructure:"description"`
	NcitId      string   `json:"ncit_id" mapstructure:"ncit_id"`
	Aliases     []string `json:"aliases" mapstructure:"aliases"`
	VariantIds  []int    `json:"variant_ids" mapstructure:"variant_ids"`
}

type Fusion struct {
	Id               int      `json:"id" mapstructure:"id"`
	Name             string   `json:"name" mapstructure:"name"`
	Description      string   `json:"description" mapstructure:"description"`
	FivePrimeGeneId  int      `json:"five_prime_gene_id" mapstructure:"five_prime_gene_id"`
	ThreePrimeGeneId int      `json:"three_prime_gene_id" mapstructure:"three_prime_gene_id"`
	Aliases          []string `json:"aliases" mapstructure:"aliases"`
	VariantIds       []int    `json:"variant_ids" mapstructure:"variant_ids"`
}

// -- variants

type VariantType struct {
	Id   int    `json:"id" mapstructure:"id"`
	Name string `json:"name" mapstructure:"name"`
	SoId string `json:"so_id" mapstructure:"so_id"`
	Url  string `json:"url" mapstructure:"url"`
}

type GeneVariant struct {
	Id                              int           `json:"id" mapstructure:"id"`
	Name                            string        `json:"name" mapstructure:"name"`
	FeatureId                       int           `json:"feature_id" mapstructure:"feature_id"`
	EntrezName                      string        `json:"entrez_name" mapstructure:"entrez_name"`
	EntrezId                        int           `json:"entrez_id" mapstructure:"entrez_id"`
	AlleleRegistryId                string        `json:"allele_registry_id" mapstructure:"allele_registry_id"`
	ClinvarEntries                  []string      `json:"clinvar_entries" mapstructure:"clinvar_entries"`
	HgvsExpressions                 []string      `json:"hgvs_expressions" mapstructure:"hgvs_expressions"`
	VariantAliases                  []string      `json:"variant_aliases" mapstructure:"variant_aliases"`
	VariantTypes                    []VariantType `json:"variant_types" mapstructure:"variant_types"`
	Coordinates                     Coordinates   `json:"coordinates" mapstructure:"coordinates"`
	SingleVariantMolecularProfileId int           `json:"single_variant_molecular_profile_id" mapstructure:"single_variant_molecular_profile_id"`
	MolecularProfileIds             []int         `json:"molecular_profile_ids" mapstructure:"molecular_profile_ids"`
}

type FactorVariant struct {
	Id                              int           `json:"id" mapstructure:"id"`
	Name                            string        `json:"name" mapstructure:"name"`
	FeatureId                       int           `json:"feature_id" mapstructure:"feature_id"`
	NcitId                          string        `json:"ncit_id" mapstructure:"ncit_id"`
	VariantAliases                  []string      `json:"variant_aliases" mapstructure:"variant_aliases"`
	VariantTypes                    []VariantType `json:"variant_types" mapstructure:"variant_types"`
	SingleVariantMolecularProfileId int           `json:"single_variant_molecular_profile_id" mapstructure:"single_variant_molecular_profile_id"`
	MolecularProfileIds             []int         `json:"molecular_profile_ids" mapstructure:"molecular_profile_ids"`
}

type FusionVariant struct {
	Id                              int           `json:"id" mapstructure:"id"`
	Name                            string        `json:"name" mapstructure:"name"`
	FeatureId                       int           `json:"feature_id" mapstructure:"feature_id"`
	ViccCompliantName               string        `json:"vicc_compliant_name" mapstructure:"vicc_compliant_name"`
	VariantAliases                  []string      `json:"variant_aliases" mapstructure:"variant_aliases"`
	VariantTypes                    []VariantType `json:"variant_types" mapstructure:"variant_types"`
	Coordinates                     Coordinates   `json:"coordinates" mapstructure:"coordinates"`
	SingleVariantMolecularProfileId int           `json:"single_variant_molecular_profile_id" mapstructure:"single_variant_molecular_profile_id"`
	MolecularProfileIds             []int         `json:"molecular_profile_ids" mapstructure:"molecular_profile_ids"`
}

// IsInsertion reports whether the variant gains bases relative to
// the reference.
func (v *GeneVariant) IsInsertion() bool {
	ref := v.Coordinates.ReferenceBases
	alt := v.Coordinates.VariantBases
	if ref == nil && alt != nil {
		return true
	}
	return ref != nil && alt != nil && len(*ref) < len(*alt)
}

// IsDeletion reports whether the variant loses bases relative to
// the reference.
func (v *GeneVariant) IsDeletion() bool {
	ref := v.Coordinates.ReferenceBases
	alt := NormalizeBases(v.Coordinates.VariantBases)
	if ref != nil && alt == nil {
		return true
	}
	return ref != nil && alt != nil && len(*ref) > len(*alt)
}

func validBases(bases *string) bool {
	if bases == nil {
		return true
	}
	for _, c := range strings.ToUpper(*bases) {
		switch c {
		case 'A', 'C', 'G', 'T', 'N':
		default:
			return false
		}
	}
	return true
}

func (v *GeneVariant) HasValidReferenceBases() bool {
	return validBases(v.Coordinates.ReferenceBases)
}

func (v *GeneVariant) HasValidVariantBases() bool {
	return validBases(v.Coordinates.VariantBases)
}

var protSubstitutionRegex = regexp.MustCompile(`^([A-Z]+)([0-9]+)(=)(.*)$`)

// SanitizedName rewrites synonymous-substitution names of the form
// "V600=" to the explicit "V600V" form used in CSQ annotations.
func (v *GeneVariant) SanitizedName() string {
	match := protSubstitutionRegex.FindStringSubmatch(v.Name)
	if match == nil {
		return v.Name
	}
	return match[1] + match[2] + match[1] + match[4]
}

// HgvsC returns the coding HGVS expression on the representative
// transcript, if exactly one exists.
func (v *GeneVariant) HgvsC() string {
	return v.hgvsOn(":c.")
}

// HgvsP returns the protein HGVS expression on the representative
// transcript, if exactly one exists.
func (v *GeneVariant) HgvsP() string {
	return v.hgvsOn(":p.")
}

func (v *GeneVariant) hgvsOn(marker string) string {
	transcript := v.Coordinates.RepresentativeTranscript
	if transcript == "" {
		return ""
	}
	var matches []string
	for _, e := range v.HgvsExpressions {
		if strings.Contains(e, marker) && strings.Contains(e, transcript) {
			matches = append(matches, e)
		}
	}
	if len(matches) == 1 {
		return matches[0]
	}
	return ""
}

// -- molecular profiles

type MolecularProfile struct {
	Id                    int      `json:"id" mapstructure:"id"`
	Name                  string   `json:"name" mapstructure:"name"`
	Description           string   `json:"description" mapstructure:"description"`
	MolecularProfileScore float64  `json:"molecular_profile_score" mapstructure:"molecular_profile_score"`
	Aliases               []string `json:"aliases" mapstructure:"aliases"`
	VariantIds            []int    `json:"variant_ids" mapstructure:"variant_ids"`
	EvidenceIds           []int    `json:"evidence_ids" mapstructure:"evidence_ids"`
	AssertionIds          []int    `json:"assertion_ids" mapstructure:"assertion_ids"`
}

// IsSimple reports whether the profile involves exactly one variant
// (no AND/OR/NOT composition).
func (mp *MolecularProfile) IsSimple() bool {
	return len(mp.VariantIds) == 1
}

// -- evidence and assertions

type Evidence struct {
	Id                     int                    `json:"id" mapstructure:"id"`
	Name                   string                 `json:"name" mapstructure:"name"`
	Description            string                 `json:"description" mapstructure:"description"`
	EvidenceType           string                 `json:"evidence_type" mapstructure:"evidence_type"`
	EvidenceLevel          string                 `json:"evidence_level" mapstructure:"evidence_level"`
	EvidenceDirection      string                 `json:"evidence_direction" mapstructure:"evidence_direction"`
	Significance           string                 `json:"significance" mapstructure:"significance"`
	Status                 constants.RecordStatus `json:"status" mapstructure:"status"`
	Rating                 int                    `json:"rating" mapstructure:"rating"`
	VariantOrigin          string                 `json:"variant_origin" mapstructure:"variant_origin"`
	TherapyInteractionType string                 `json:"therapy_interaction_type" mapstructure:"therapy_interaction_type"`
	MolecularProfileId     int                    `json:"molecular_profile_id" mapstructure:"molecular_profile_id"`
	AssertionIds           []int                  `json:"assertion_ids" mapstructure:"assertion_ids"`
	Source                 *Source                `json:"source" mapstructure:"source"`
	Disease                *Disease               `json:"disease" mapstructure:"disease"`
	Therapies              []Therapy              `json:"therapies" mapstructure:"therapies"`
	Phenotypes             []Phenotype            `json:"phenotypes" mapstructure:"phenotypes"`
}

type EvidenceCode struct {
	Id          int    `json:"id" mapstructure:"id"`
	Code        string `json:"code" mapstructure:"code"`
	Description string `json:"description" mapstructure:"description"`
}

type Assertion struct {
	Id                     int                    `json:"id" mapstructure:"id"`
	Name                   string                 `json:"name" mapstructure:"name"`
	Summary                string                 `json:"summary" mapstructure:"summary"`
	Description            string                 `json:"description" mapstructure:"description"`
	AssertionType          string                 `json:"assertion_type" mapstructure:"assertion_type"`
	AssertionDirection     string                 `json:"assertion_direction" mapstructure:"assertion_direction"`
	Significance           string                 `json:"significance" mapstructure:"significance"`
	Status                 constants.RecordStatus `json:"status" mapstructure:"status"`
	AmpLevel               string                 `json:"amp_level" mapstructure:"amp_level"`
	NccnGuideline          string                 `json:"nccn_guideline" mapstructure:"nccn_guideline"`
	NccnGuidelineVersion   string                 `json:"nccn_guideline_version" mapstructure:"nccn_guideline_version"`
	RegulatoryApproval     bool                   `json:"regulatory_approval" mapstructure:"regulatory_approval"`
	FdaCompanionTest       bool                   `json:"fda_companion_test" mapstructure:"fda_companion_test"`
	VariantOrigin          string                 `json:"variant_origin" mapstructure:"variant_origin"`
	TherapyInteractionType string                 `json:"therapy_interaction_type" mapstructure:"therapy_interaction_type"`
	MolecularProfileId     int                    `json:"molecular_profile_id" mapstructure:"molecular_profile_id"`
	EvidenceIds            []int                  `json:"evidence_ids" mapstructure:"evidence_ids"`
	Disease                *Disease               `json:"disease" mapstructure:"disease"`
	Therapies              []Therapy              `json:"therapies" mapstructure:"therapies"`
	Phenotypes             []Phenotype            `json:"phenotypes" mapstructure:"phenotypes"`
	AcmgCodes              []EvidenceCode         `json:"acmg_codes" mapstructure:"acmg_codes"`
	ClingenCodes           []EvidenceCode         `json:"clingen_codes" mapstructure:"clingen_codes"`
}

func (a *Assertion) FormatNccnGuideline() string {
	if a.NccnGuideline == "" {
		return ""
	}
	return fmt.Sprintf("%s (v%s)", a.NccnGuideline, a.NccnGuidelineVersion)
}

// -- supporting records

type ClinicalTrial struct {
	Id          int    `json:"id" mapstructure:"id"`
	Name        string `json:"name" mapstructure:"name"`
	Description string `json:"description" mapstructure:"description"`
	NctId       string `json:"nct_id" mapstructure:"nct_id"`
	Url         string `json:"url" mapstructure:"url"`
}

type Source struct {
	Id               int             `json:"id" mapstructure:"id"`
	Name             string          `json:"name" mapstructure:"name"`
	Title            string          `json:"title" mapstructure:"title"`
	Citation         string          `json:"citation" mapstructure:"citation"`
	CitationId       string          `json:"citation_id" mapstructure:"citation_id"`
	SourceType       string          `json:"source_type" mapstructure:"source_type"`
	Abstract         string          `json:"abstract" mapstructure:"abstract"`
	AscoAbstractId   string          `json:"asco_abstract_id" mapstructure:"asco_abstract_id"`
	AuthorString     string          `json:"author_string" mapstructure:"author_string"`
	FullJournalTitle string          `json:"full_journal_title" mapstructure:"full_journal_title"`
	Journal          string          `json:"journal" mapstructure:"journal"`
	PmcId            string          `json:"pmc_id" mapstructure:"pmc_id"`
	PublicationDate  string          `json:"publication_date" mapstructure:"publication_date"`
	SourceUrl        string          `json:"source_url" mapstructure:"source_url"`
	ClinicalTrials   []ClinicalTrial `json:"clinical_trials" mapstructure:"clinical_trials"`
}

func (s *Source) String() string {
	return fmt.Sprintf("%s (%s %s)", s.Citation, s.SourceType, s.CitationId)
}

type Disease struct {
	Id          int      `json:"id" mapstructure:"id"`
	Name        string   `json:"name" mapstructure:"name"`
	DisplayName string   `json:"display_name" mapstructure:"display_name"`
	Doid        string   `json:"doid" mapstructure:"doid"`
	DiseaseUrl  string   `json:"disease_url" mapstructure:"disease_url"`
	Aliases     []string `json:"aliases" mapstructure:"aliases"`
}

func (d *Disease) String() string {
	if d.Doid == "" {
		return d.Name
	}
	return fmt.Sprintf("%s (DOID %s)", d.Name, d.Doid)
}

type Therapy struct {
	Id         int      `json:"id" mapstructure:"id"`
	Name       string   `json:"name" mapstructure:"name"`
	NcitId     string   `json:"ncit_id" mapstructure:"ncit_id"`
	TherapyUrl string   `json:"therapy_url" mapstructure:"therapy_url"`
	Aliases    []string `json:"aliases" mapstructure:"aliases"`
}

func (t *Therapy) String() string {
	if t.NcitId == "" {
		return t.Name
	}
	return fmt.Sprintf("%s (NCIt ID %s)", t.Name, t.NcitId)
}

type Phenotype struct {
	Id    int    `json:"id" mapstructure:"id"`
	Name  string `json:"name" mapstructure:"name"`
	HpoId string `json:"hpo_id" mapstructure:"hpo_id"`
	Url   string `json:"url" mapstructure:"url"`
}

func (p *Phenotype) String() string {
	return fmt.Sprintf("%s (HPO ID %s)", p.Name, p.HpoId)
}

type VariantGroup struct {
	Id          int      `json:"id" mapstructure:"id"`
	Name        string   `json:"name" mapstructure:"name"`
	Description string   `json:"description" mapstructure:"description"`
	VariantIds  []int    `json:"variant_ids" mapstructure:"variant_ids"`
	Sources     []Source `json:"sources" mapstructure:"sources"`
}

type Organization struct {
	Id          int    `json:"id" mapstructure:"id"`
	Name        string `json:"name" mapstructure:"name"`
	Url         string `json:"url" mapstructure:"url"`
	Description string `json:"description" mapstructure:"description"`
}

type User struct {
	Id          int    `json:"id" mapstructure:"id"`
	Name        string `json:"name" mapstructure:"name"`
	Username    string `json:"username" mapstructure:"username"`
	DisplayName string `json:"display_name" mapstructure:"display_name"`
	Role        string `json:"role" mapstructure:"role"`
	OrcId       string `json:"orcid" mapstructure:"orcid"`
	Url         string `json:"url" mapstructure:"url"`
}

type Approval struct {
	Id                        int                    `json:"id" mapstructure:"id"`
	AssertionId               int                    `json:"assertion_id" mapstructure:"assertion_id"`
	OrganizationId            int                    `json:"organization_id" mapstructure:"organization_id"`
	Status                    constants.RecordStatus `json:"status" mapstructure:"status"`
	ReadyForClinvarSubmission bool                   `json:"ready_for_clinvar_submission" mapstructure:"ready_for_clinvar_submission"`
}

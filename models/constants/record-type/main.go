package recordType

import (
	"civic/sdk/models/constants"
	"strings"
)

const (
	Unknown constants.RecordType = ""

	Gene   constants.RecordType = "gene"
	Factor constants.RecordType = "factor"
	Fusion constants.RecordType = "fusion"

	GeneVariant   constants.RecordType = "gene_variant"
	FactorVariant constants.RecordType = "factor_variant"
	FusionVariant constants.RecordType = "fusion_variant"

	MolecularProfile constants.RecordType = "molecular_profile"
	Evidence         constants.RecordType = "evidence"
	Assertion        constants.RecordType = "assertion"
	Source           constants.RecordType = "source"
	Disease          constants.RecordType = "disease"
	Therapy          constants.RecordType = "therapy"
	Phenotype        constants.RecordType = "phenotype"
	VariantGroup     constants.RecordType = "variant_group"
	Organization     constants.RecordType = "organization"
	User             constants.RecordType = "user"
	Approval         constants.RecordType = "approval"
)

// record types swept in full by a cache update, in dependency order
func FullSweepTypes() []constants.RecordType {
	return []constants.RecordType{
		Gene, Factor, Fusion,
		GeneVariant, FactorVariant, FusionVariant,
		MolecularProfile, Evidence, Assertion, VariantGroup,
	}
}

func IsVariantType(t constants.RecordType) bool {
	switch t {
	case GeneVariant, FactorVariant, FusionVariant:
		return true
	}
	return false
}

func IsFeatureType(t constants.RecordType) bool {
	switch t {
	case Gene, Factor, Fusion:
		return true
	}
	return false
}

func CastToRecordType(text string) constants.RecordType {
	switch strings.ToLower(text) {
	case "gene":
		return Gene
	case "factor":
		return Factor
	case "fusion":
		return Fusion
	case "gene_variant", "variant":
		return GeneVariant
	case "factor_variant":
		return FactorVariant
	case "fusion_variant":
		return FusionVariant
	case "molecular_profile":
		return MolecularProfile
	case "evidence", "evidence_item":
		return Evidence
	case "assertion":
		return Assertion
	case "source":
		return Source
	case "disease":
		return Disease
	case "therapy", "drug":
		return Therapy
	case "phenotype":
		return Phenotype
	case "variant_group":
		return VariantGroup
	case "organization":
		return Organization
	case "user":
		return User
	case "approval":
		return Approval
	default:
		return Unknown
	}
}

// Pluralize returns the collection name used by the remote
// knowledgebase API for a given record type, i.e. the key under
// `data` in a paginated "all records" response.
func Pluralize(t constants.RecordType) string {
	switch t {
	case Evidence:
		return "evidenceItems"
	default:
		return string(t) + "s"
	}
}

package models

import (
	"civic/sdk/models/constants"
)

/*
	Genomic coordinates are embedded sub-objects of variant records ;
	they are never cached or fetched on their own.

	Reference and variant bases are tri-state : nil means the allele is
	absent (insertions omit reference bases, deletions omit variant
	bases), "*" acts as a wildcard in queries, anything else is a
	literal allele.
*/

type Coordinates struct {
	EnsemblVersion          int                      `json:"ensembl_version" mapstructure:"ensembl_version"`
	ReferenceBuild          constants.ReferenceBuild `json:"reference_build" mapstructure:"reference_build"`
	ReferenceBases          *string                  `json:"reference_bases" mapstructure:"reference_bases"`
	VariantBases            *string                  `json:"variant_bases" mapstructure:"variant_bases"`
	RepresentativeTranscript string                  `json:"representative_transcript" mapstructure:"representative_transcript"`
	Chromosome              string                   `json:"chromosome" mapstructure:"chromosome"`
	Start                   int                      `json:"start" mapstructure:"start"`
	Stop                    int                      `json:"stop" mapstructure:"stop"`

	// some structural variants carry a second set of coordinates
	RepresentativeTranscript2 string `json:"representative_transcript2" mapstructure:"representative_transcript2"`
	Chromosome2               string `json:"chromosome2" mapstructure:"chromosome2"`
	Start2                    int    `json:"start2" mapstructure:"start2"`
	Stop2                     int    `json:"stop2" mapstructure:"stop2"`
}

func (c *Coordinates) HasPrimary() bool {
	return c.Chromosome != "" && c.Start > 0 && c.Stop > 0
}

func (c *Coordinates) HasSecondary() bool {
	return c.Chromosome2 != "" && c.Start2 > 0 && c.Stop2 > 0
}

// CoordinateQuery describes a genomic position filter against
// variant records, for use with single and bulk coordinate searches.
type CoordinateQuery struct {
	Chr   string
	Start int
	Stop  int
	Alt   *string
	Ref   *string
	Build constants.ReferenceBuild

	// a caller-defined handle echoed back with bulk search results
	Key string
}

// StrPtr is a convenience for building queries with literal alleles.
func StrPtr(s string) *string {
	return &s
}

// NormalizeBases maps the remote API's empty-string and dash
// conventions onto the absent state.
func NormalizeBases(s *string) *string {
	if s == nil {
		return nil
	}
	if *s == "" || *s == "-" {
		return nil
	}
	return s
}

// BasesEqual compares two tri-state alleles ; a nil only
// matches a nil.
func BasesEqual(a *string, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

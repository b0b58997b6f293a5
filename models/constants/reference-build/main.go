package referenceBuild

import (
	"civic/sdk/models/constants"
	"strings"
)

const (
	Unknown constants.ReferenceBuild = "Unknown"

	GRCh38 constants.ReferenceBuild = "GRCh38"
	GRCh37 constants.ReferenceBuild = "GRCh37"
	NCBI36 constants.ReferenceBuild = "NCBI36"
)

func CastToReferenceBuild(text string) constants.ReferenceBuild {
	switch strings.ToLower(text) {
	case "grch38":
		return GRCh38
	case "grch37":
		return GRCh37
	case "ncbi36":
		return NCBI36
	default:
		return Unknown
	}
}

func IsKnownReferenceBuild(text string) bool {
	// attempt to cast to referenceBuild and
	// return if unknown referenceBuild
	return CastToReferenceBuild(text) != Unknown
}

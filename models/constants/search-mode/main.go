package searchMode

import (
	"civic/sdk/models/constants"
	"strings"
)

const (
	Undefined constants.SearchMode = ""

	// any overlap between a query and a variant is a match
	Any constants.SearchMode = "any"

	// variants must match coordinates precisely, as well as
	// reference allele(s) and alternate allele(s)
	Exact constants.SearchMode = "exact"

	// variant records must fit within the coordinates of the query
	QueryEncompassing constants.SearchMode = "query_encompassing"

	// variant records must encompass the coordinates of the query
	RecordEncompassing constants.SearchMode = "record_encompassing"
)

func CastToSearchMode(text string) constants.SearchMode {
	switch strings.ToLower(text) {
	case "any":
		return Any
	case "exact":
		return Exact
	case "query_encompassing":
		return QueryEncompassing
	case "record_encompassing":
		return RecordEncompassing
	default:
		return Undefined
	}
}

package constants

/*
	Defines a set of base level
	constants and enums to be used
	throughout the SDK and it's
	associated services.
*/
type RecordType string
type RecordStatus string
type SearchMode string

type ReferenceBuild string

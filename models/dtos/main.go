package dtos

// ExportSummaryDto enumerates what a best-effort batch export
// actually did : written record count plus the ids it skipped and
// why. A batch export never aborts on one bad record.
type ExportSummaryDto struct {
	Written int               `json:"written"`
	Skipped map[int]string    `json:"skipped"` // record id -> reason
}

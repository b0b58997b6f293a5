package status

import (
	"civic/sdk/models/constants"
	"strings"
)

const (
	Undefined constants.RecordStatus = ""

	Accepted  constants.RecordStatus = "accepted"
	Submitted constants.RecordStatus = "submitted"
	Rejected  constants.RecordStatus = "rejected"
)

func CastToRecordStatus(text string) constants.RecordStatus {
	switch strings.ToLower(text) {
	case "accepted":
		return Accepted
	case "submitted":
		return Submitted
	case "rejected":
		return Rejected
	default:
		return Undefined
	}
}

// all statuses ; the default include-status filter
func All() []constants.RecordStatus {
	return []constants.RecordStatus{Accepted, Submitted, Rejected}
}

func Contains(statuses []constants.RecordStatus, s constants.RecordStatus) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

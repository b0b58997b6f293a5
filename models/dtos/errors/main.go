package errors

import (
	"errors"
	"fmt"

	"civic/sdk/models/constants"
)

/*
	Error taxonomy for the SDK :

	- NotFound      : the requested id does not exist upstream (or was
	                  deleted) ; surfaced per-id, never aborts batch
	                  siblings.
	- Transient     : network / service unavailability ; safe to retry,
	                  and staleness logic may fall back to last-known-good
	                  cached data instead of failing outright.
	- CorruptCache  : a snapshot file could not be read or decoded ;
	                  recovered locally by starting from an empty store
	                  plus a forced refresh.
	- Validation    : a record lacks fields required by an export format ;
	                  surfaced through validity predicates, not mid-write.
*/

type NotFoundError struct {
	RecordType constants.RecordType
	Id         int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.RecordType, e.Id)
}

func NewNotFound(recordType constants.RecordType, id int) *NotFoundError {
	return &NotFoundError{RecordType: recordType, Id: id}
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

type TransientError struct {
	Operation string
	Cause     error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient failure during %s : %v", e.Operation, e.Cause)
}

func (e *TransientError) Unwrap() error {
	return e.Cause
}

func NewTransient(operation string, cause error) *TransientError {
	return &TransientError{Operation: operation, Cause: cause}
}

func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

type CorruptCacheError struct {
	Path  string
	Cause error
}

func (e *CorruptCacheError) Error() string {
	return fmt.Sprintf("cache snapshot at %s unreadable : %v", e.Path, e.Cause)
}

func (e *CorruptCacheError) Unwrap() error {
	return e.Cause
}

func NewCorruptCache(path string, cause error) *CorruptCacheError {
	return &CorruptCacheError{Path: path, Cause: cause}
}

func IsCorruptCache(err error) bool {
	var cc *CorruptCacheError
	return errors.As(err, &cc)
}

type ValidationError struct {
	RecordType constants.RecordType
	Id         int
	Reason     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %d not exportable : %s", e.RecordType, e.Id, e.Reason)
}

func NewValidation(recordType constants.RecordType, id int, reason string) *ValidationError {
	return &ValidationError{RecordType: recordType, Id: id, Reason: reason}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

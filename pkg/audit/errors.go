package audit

import "fmt"

// StorageError reports a failure in a storage backend operation.
type StorageError struct {
	Backend   string // "sqlite" or "memory"
	Operation string // "store", "query", "delete", ...
	Cause     error
}

// NewStorageError wraps cause with the backend and operation that failed.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{Backend: backend, Operation: operation, Cause: cause}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("audit storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

func (e *StorageError) Unwrap() error { return e.Cause }

// RecorderError reports a record that could not be handed to the async
// recorder, usually because the buffer was full or the recorder stopped.
type RecorderError struct {
	RecordID string
	Cause    error
}

// NewRecorderError wraps cause with the ID of the record that was lost.
func NewRecorderError(recordID string, cause error) *RecorderError {
	return &RecorderError{RecordID: recordID, Cause: cause}
}

func (e *RecorderError) Error() string {
	if e.RecordID == "" {
		return fmt.Sprintf("audit recorder error: %v", e.Cause)
	}
	return fmt.Sprintf("audit recorder error [record_id=%s]: %v", e.RecordID, e.Cause)
}

func (e *RecorderError) Unwrap() error { return e.Cause }

// RetentionError reports a failed pruning run.
type RetentionError struct {
	RetentionDays int
	Cause         error
}

// NewRetentionError wraps cause with the retention window being enforced.
func NewRetentionError(retentionDays int, cause error) *RetentionError {
	return &RetentionError{RetentionDays: retentionDays, Cause: cause}
}

func (e *RetentionError) Error() string {
	return fmt.Sprintf("audit retention error [retention_days=%d]: %v", e.RetentionDays, e.Cause)
}

func (e *RetentionError) Unwrap() error { return e.Cause }

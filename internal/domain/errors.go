package domain

import "fmt"

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing resources.
var ErrNotFound = NotFoundError{}

// ValidationError marks input that cannot be processed safely: a record
// without a stable platform id, or a transform result without a title.
// The record is skipped, never retried, and the surrounding batch continues.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e ValidationError) Is(target error) bool {
	_, ok := target.(ValidationError)
	if ok {
		return true
	}
	_, ok = target.(*ValidationError)
	return ok
}

var ErrValidation = ValidationError{}

// ConfigurationError marks operator mistakes: no rule registered for a
// (domain, platform) pair, or a missing/malformed rule file. Retrying
// cannot fix it.
type ConfigurationError struct {
	Subject string
	Reason  string
}

func (e ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Subject, e.Reason)
}

func (e ConfigurationError) Is(target error) bool {
	_, ok := target.(ConfigurationError)
	if ok {
		return true
	}
	_, ok = target.(*ConfigurationError)
	return ok
}

var ErrConfiguration = ConfigurationError{}

// TransformError wraps a failure inside the mapping pipeline for one
// record. It is isolated per record and recorded on the attempt row.
type TransformError struct {
	RuleID string
	Err    error
}

func (e TransformError) Error() string {
	return fmt.Sprintf("transform failed (rule %s): %v", e.RuleID, e.Err)
}

func (e TransformError) Unwrap() error { return e.Err }

func (e TransformError) Is(target error) bool {
	_, ok := target.(TransformError)
	if ok {
		return true
	}
	_, ok = target.(*TransformError)
	return ok
}

var ErrTransform = TransformError{}

// PersistenceError wraps a storage-level failure (constraint violation,
// connection loss) surfacing as a failed attempt.
type PersistenceError struct {
	Op  string
	Err error
}

func (e PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure in %s: %v", e.Op, e.Err)
}

func (e PersistenceError) Unwrap() error { return e.Err }

func (e PersistenceError) Is(target error) bool {
	_, ok := target.(PersistenceError)
	if ok {
		return true
	}
	_, ok = target.(*PersistenceError)
	return ok
}

var ErrPersistence = PersistenceError{}

// ExternalServiceError marks a crawl-target failure. Callers retry a
// bounded number of times with fixed backoff, then skip the item.
type ExternalServiceError struct {
	Target string
	Err    error
}

func (e ExternalServiceError) Error() string {
	return fmt.Sprintf("external service %s: %v", e.Target, e.Err)
}

func (e ExternalServiceError) Unwrap() error { return e.Err }

func (e ExternalServiceError) Is(target error) bool {
	_, ok := target.(ExternalServiceError)
	if ok {
		return true
	}
	_, ok = target.(*ExternalServiceError)
	return ok
}

var ErrExternalService = ExternalServiceError{}

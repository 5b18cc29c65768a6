package apperrors

// Factories for the failure classes the pipeline distinguishes.
// Repository-level sentinel errors stay in their own packages; these wrap
// them once a failure crosses a service boundary.

// ErrNotFound wraps a repository miss (e.g. gorm.ErrRecordNotFound).
func ErrNotFound(err error) *AppError {
	return Wrap(err, CodeNotFound, "resource", "resource not found")
}

// ErrDatabase wraps a persistence-layer failure. A tick that hits this
// aborts and retries on the next tick.
func ErrDatabase(err error, message string) *AppError {
	return Wrap(err, CodeDatabaseError, "storage", message)
}

// ErrProvider wraps a single job-source failure. The source contributes
// zero results for that call; the other sources continue.
func ErrProvider(err error, provider string) *AppError {
	return Wrap(err, CodeProviderFailure, provider, "provider query failed")
}

// ErrDelivery marks exhaustion of every email transport. The digest rows
// stay unnotified and become eligible again on the next cycle.
func ErrDelivery(err error) *AppError {
	return Wrap(err, CodeDeliveryFailure, "delivery", "all email transports failed")
}

// ErrInvalidStatus flags a ledger transition the state machine forbids.
func ErrInvalidStatus(domain, message string) *AppError {
	return New(CodeInvalidStatus, domain, message)
}

// ValidationError reports invalid configuration or preference input.
func ValidationError(domain string, err error) *AppError {
	return Wrap(err, CodeValidationFailed, domain, "validation failed")
}

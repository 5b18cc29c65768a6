package apperrors

// ErrorCode identifies a class of failure across the pipeline.
type ErrorCode string

const (
	// System and unknown failures
	CodeInternalError        ErrorCode = "INTERNAL_ERROR"
	CodeDatabaseError        ErrorCode = "DATABASE_ERROR"
	CodeExternalServiceError ErrorCode = "EXTERNAL_SERVICE_ERROR"

	// Generic business-logic codes
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeAlreadyExists    ErrorCode = "ALREADY_EXISTS"
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeConflict         ErrorCode = "CONFLICT"
	CodeInvalidStatus    ErrorCode = "INVALID_STATUS"
	CodeInvalidOperation ErrorCode = "INVALID_OPERATION"

	// Pipeline taxonomy
	CodeExtractionFailure ErrorCode = "EXTRACTION_FAILURE"
	CodeProviderFailure   ErrorCode = "PROVIDER_FAILURE"
	CodeDuplicateConflict ErrorCode = "DUPLICATE_CONFLICT"
	CodeDeliveryFailure   ErrorCode = "DELIVERY_FAILURE"
)

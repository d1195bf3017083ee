package errors

// Error codes carried next to the message for clients that branch on them.
const (
	// Authentication errors
	ErrCodeAuthenticationRequired = "authentication_required"
	ErrCodeInvalidToken           = "invalid_token"

	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeMissingField     = "missing_field"

	// Resource errors
	ErrCodeNotFound = "not_found"

	// Server errors
	ErrCodeUpstreamError = "upstream_error"
)

package errors

// Error codes for standardized error responses
const (
	// Validation errors
	ErrCodeInvalidRequest = "invalid_request"
	ErrCodeInvalidOption  = "invalid_option"

	// Resource errors
	ErrCodeUserNotFound  = "user_not_found"
	ErrCodeUsernameTaken = "username_taken"

	// Content errors
	ErrCodeContentUnavailable = "content_unavailable"

	// Server errors
	ErrCodeInternalError = "internal_error"
	ErrCodeUpstreamError = "upstream_error"
)

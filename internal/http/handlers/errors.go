// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and stable; clients branch on them. Generic
// codes mirror HTTP status semantics, the rest name a failure of this API.
//
// Example response:
//
//	{
//	  "success": false,
//	  "error": "Failed to process submission",
//	  "code": "store_failure",
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeTooLarge         = "payload_too_large"
	ErrCodeInternal         = "internal_error"

	// Domain-specific:
	ErrCodeValidation          = "validation_failed"
	ErrCodeStoreFailure        = "store_failure"
	ErrCodeEmptyMessage        = "empty_message"
	ErrCodeInvalidHistory      = "invalid_history"
	ErrCodeUpstreamUnavailable = "upstream_unavailable"
	ErrCodeUpstreamTimeout     = "upstream_timeout"
)

// User-facing messages. Error details never cross the HTTP boundary.
const (
	msgValidationFailed = "Validation failed"
	msgOnboardFailed    = "Failed to process submission"
	msgContactFailed    = "Failed to process message"
	msgOnboardReceived  = "Submission received successfully"
	msgContactReceived  = "Message received successfully"
	msgInvalidJSON      = "Invalid JSON body"
	msgBodyTooLarge     = "Request body too large"
	msgMessageRequired  = "Message is required"
	msgInvalidHistory   = "History entries need a user or assistant role and content"
	msgChatUnavailable  = "The assistant is unavailable right now. Please try again."
	msgChatTimeout      = "The assistant took too long to respond. Please try again."
	msgChatInterrupted  = "The response was interrupted. Please try again."
)

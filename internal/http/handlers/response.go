// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response envelopes shared by the endpoints and the
// helpers that write them. Form endpoints answer with
//
//	201 {"success":true,"id":"...","message":"Submission received successfully"}
//	400 {"success":false,"error":"Validation failed","details":[...],"code":"validation_failed","request_id":"..."}
//	500 {"success":false,"error":"Failed to process submission","code":"store_failure","request_id":"..."}
//
// while the chat endpoint rejects with {"error":"...","code":"...","request_id":"..."}
// before a stream is opened.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-compliance-backend/internal/http/middleware"
	"github.com/tbourn/go-compliance-backend/internal/validation"
)

// SubmissionResponse is returned when a form submission is stored.
type SubmissionResponse struct {
	Success bool   `json:"success" example:"true"`
	ID      string `json:"id"      example:"3fa85f64-5717-4562-b3fc-2c963f66afa6"`
	Message string `json:"message" example:"Submission received successfully"`
}

// ErrorResponse is the failure envelope of the form endpoints and of
// router-level errors. Details is present for validation failures only.
type ErrorResponse struct {
	Success   bool                    `json:"success"              example:"false"`
	Error     string                  `json:"error"                example:"Validation failed"`
	Details   []validation.FieldError `json:"details,omitempty"`
	Code      string                  `json:"code"                 example:"validation_failed"`
	RequestID string                  `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
}

// ChatErrorResponse is returned by the chat endpoint when no stream is opened.
type ChatErrorResponse struct {
	Error     string `json:"error"                example:"Message is required"`
	Code      string `json:"code"                 example:"empty_message"`
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
}

func requestID(c *gin.Context) string {
	if rid := middleware.GetRequestID(c); rid != "" {
		return rid
	}
	return c.Writer.Header().Get("X-Request-ID")
}

// fail aborts the request with the form error envelope. 5xx responses are
// logged with the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Success:   false,
		Error:     msg,
		Code:      code,
		RequestID: requestID(c),
	})
}

// Fail is the exported variant of fail, used by the router for 404/405.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failValidation answers 400 with one detail per failing field. Validation
// failures are the caller's to fix and are logged at debug only.
func failValidation(c *gin.Context, ve *validation.Error) {
	middleware.LoggerFrom(c).Debug().
		Int("fields", len(ve.Fields)).
		Msg("validation failed")
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		Success:   false,
		Error:     msgValidationFailed,
		Details:   ve.Fields,
		Code:      ErrCodeValidation,
		RequestID: requestID(c),
	})
}

// failChat aborts a chat request before any stream was committed.
func failChat(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, ChatErrorResponse{
		Error:     msg,
		Code:      code,
		RequestID: requestID(c),
	})
}

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// Package response defines the JSON envelope returned by every HTTP endpoint.
package response

import (
	"net/http"
	"time"

	"github.com/kart-io/coursemind/pkg/errors"
)

// Response is the unified API response structure.
type Response struct {
	// Code is the business error code (0 = success)
	Code int `json:"code"`

	// Message is a human-readable message
	Message string `json:"message"`

	// Data contains the response payload (nil for errors)
	Data any `json:"data,omitempty"`

	// RequestID is the unique request identifier for tracing
	RequestID string `json:"request_id,omitempty"`

	// Timestamp is the response timestamp (Unix milliseconds)
	Timestamp int64 `json:"timestamp,omitempty"`

	httpStatus int
}

// Success creates a successful response with data.
func Success(data any) *Response {
	return &Response{
		Code:       errors.OK.Code,
		Message:    "success",
		Data:       data,
		Timestamp:  time.Now().UnixMilli(),
		httpStatus: http.StatusOK,
	}
}

// Err creates an error response from an Errno, localized by lang.
func Err(e *errors.Errno, lang string) *Response {
	if e == nil {
		return Success(nil)
	}
	return &Response{
		Code:       e.Code,
		Message:    e.Message(lang),
		Timestamp:  time.Now().UnixMilli(),
		httpStatus: e.HTTPStatus(),
	}
}

// WithRequestID adds request ID to the response.
func (r *Response) WithRequestID(requestID string) *Response {
	r.RequestID = requestID
	return r
}

// HTTPStatus returns the HTTP status code for this response.
func (r *Response) HTTPStatus() int {
	if r.httpStatus == 0 {
		return http.StatusOK
	}
	return r.httpStatus
}

// IsSuccess returns true if the response indicates success.
func (r *Response) IsSuccess() bool {
	return r.Code == 0
}

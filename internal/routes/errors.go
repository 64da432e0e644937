package routes

import (
	"errors"
	"net/http"

	"parkwise/internal/booking"
	"parkwise/internal/entry"
	"parkwise/internal/plate"
	"parkwise/internal/storage"
)

// HTTPError represents an error with an associated HTTP status code and user message
type HTTPError struct {
	Err        error    // The underlying error
	StatusCode int      // HTTP status code
	Message    string   // User-friendly message
	StopCodes  []string // Optional stop codes for client-side handling
	Internal   bool     // Whether this is an internal error (hide details from user)
}

// ErrorInfo contains error metadata for user-facing errors
type ErrorInfo struct {
	Message   string   // User-friendly message
	StopCodes []string // Optional stop codes for client-side application
}

// Error implements the error interface
func (e *HTTPError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *HTTPError) Unwrap() error {
	return e.Err
}

// NewHTTPError creates a new HTTPError
func NewHTTPError(statusCode int, err error, message string, stopCodes ...string) *HTTPError {
	return &HTTPError{
		Err:        err,
		StatusCode: statusCode,
		Message:    message,
		StopCodes:  stopCodes,
		Internal:   statusCode >= 500,
	}
}

// Routes-specific errors (that don't conflict with other packages)
var (
	ErrForbidden = errors.New("forbidden")
	ErrNotFound  = errors.New("not found")

	// Validation errors
	ErrInvalidRequest   = errors.New("invalid request")
	ErrMissingParameter = errors.New("missing required parameter")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrPayloadTooLarge  = errors.New("payload too large")

	// Internal errors
	ErrInternalServer = errors.New("internal server error")
)

type errorRule struct {
	err    error
	status int
	info   ErrorInfo
}

// errorRules maps errors to HTTP status codes, user-friendly messages and
// optional stop codes. Rules are matched in order, so server side failures
// come first: a wrapped storage.ErrNotFound inside a failed slot update is
// still a 500.
var errorRules = []errorRule{
	// 500 Internal Server Error (no stop codes for internal errors)
	{booking.ErrSlotSync, http.StatusInternalServerError, ErrorInfo{
		Message:   "Booking could not be saved consistently, no changes were made",
		StopCodes: []string{"SLOT_SYNC_FAILED"},
	}},
	{entry.ErrStoreUnavailable, http.StatusInternalServerError, ErrorInfo{Message: "Reservation service is not available"}},
	{booking.ErrInternal, http.StatusInternalServerError, ErrorInfo{Message: "An internal error occurred"}},
	{ErrInternalServer, http.StatusInternalServerError, ErrorInfo{Message: "An internal error occurred"}},

	// 400 Bad Request
	{plate.ErrInvalidImage, http.StatusBadRequest, ErrorInfo{
		Message:   "Image is missing or could not be decoded",
		StopCodes: []string{"INVALID_IMAGE"},
	}},
	{booking.ErrValidation, http.StatusBadRequest, ErrorInfo{
		Message:   "Invalid booking data",
		StopCodes: []string{"VALIDATION_FAILED"},
	}},
	{ErrInvalidRequest, http.StatusBadRequest, ErrorInfo{
		Message:   "Invalid request format",
		StopCodes: []string{"INVALID_REQUEST"},
	}},
	{ErrMissingParameter, http.StatusBadRequest, ErrorInfo{
		Message:   "Required parameter is missing",
		StopCodes: []string{"MISSING_PARAMETER"},
	}},
	{ErrInvalidParameter, http.StatusBadRequest, ErrorInfo{
		Message:   "Invalid parameter value",
		StopCodes: []string{"INVALID_PARAMETER"},
	}},

	// 403 Forbidden
	{ErrForbidden, http.StatusForbidden, ErrorInfo{
		Message:   "Access denied",
		StopCodes: []string{"FORBIDDEN"},
	}},

	// 404 Not Found
	{booking.ErrBookingNotFound, http.StatusNotFound, ErrorInfo{
		Message:   "Booking not found",
		StopCodes: []string{"BOOKING_NOT_FOUND"},
	}},
	{booking.ErrSlotNotFound, http.StatusNotFound, ErrorInfo{
		Message:   "Parking slot not found",
		StopCodes: []string{"SLOT_NOT_FOUND"},
	}},
	{storage.ErrNotFound, http.StatusNotFound, ErrorInfo{Message: "Not found"}},
	{ErrNotFound, http.StatusNotFound, ErrorInfo{Message: "Not found"}},

	// 409 Conflict
	{booking.ErrSlotUnavailable, http.StatusConflict, ErrorInfo{
		Message:   "Parking slot is already reserved",
		StopCodes: []string{"SLOT_UNAVAILABLE"},
	}},

	// 413 Request Entity Too Large
	{ErrPayloadTooLarge, http.StatusRequestEntityTooLarge, ErrorInfo{
		Message:   "Upload is too large",
		StopCodes: []string{"PAYLOAD_TOO_LARGE"},
	}},
}

func findRule(err error) (errorRule, bool) {
	for _, rule := range errorRules {
		if errors.Is(err, rule.err) {
			return rule, true
		}
	}
	return errorRule{}, false
}

// GetErrorStatus returns the HTTP status code for an error
func GetErrorStatus(err error) int {
	// Check if it's already an HTTPError
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}

	if rule, ok := findRule(err); ok {
		return rule.status
	}

	// Default to 500 Internal Server Error
	return http.StatusInternalServerError
}

// GetErrorInfo returns error information including message and stop codes
func GetErrorInfo(err error) ErrorInfo {
	// Check if it's an HTTPError with custom info
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return ErrorInfo{
			Message:   httpErr.Message,
			StopCodes: httpErr.StopCodes,
		}
	}

	rule, ok := findRule(err)

	// Validation errors name the field, which is useful to the client
	var validationErr *booking.ValidationError
	if errors.As(err, &validationErr) && (!ok || rule.status < 500) {
		return ErrorInfo{
			Message:   validationErr.Error(),
			StopCodes: []string{"VALIDATION_FAILED"},
		}
	}

	if ok {
		return rule.info
	}

	// For unknown errors, return a generic message for 5xx, specific for others
	status := GetErrorStatus(err)
	if status >= 500 {
		return ErrorInfo{Message: "An internal error occurred"}
	}
	return ErrorInfo{Message: err.Error()}
}

package models

import "fmt"

// Error codes used in envelopes and internal error handling.
const (
	ErrCodeTimeout       = "MEASURE_TIMEOUT"
	ErrCodeNavigation    = "NAVIGATION_FAILED"
	ErrCodeExtraction    = "RESULT_EXTRACTION_FAILED"
	ErrCodeBrowserCrash  = "BROWSER_CRASH"
	ErrCodeValidation    = "INVALID_TARGET"
	ErrCodePoolExhausted = "SESSION_POOL_EXHAUSTED"
	ErrCodeRateLimited   = "RATE_LIMITED"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeInternal      = "INTERNAL_ERROR"
)

// MeasureError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type MeasureError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *MeasureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *MeasureError) Unwrap() error {
	return e.Err
}

// NewMeasureError creates a new MeasureError.
func NewMeasureError(code, message string, err error) *MeasureError {
	return &MeasureError{Code: code, Message: message, Err: err}
}

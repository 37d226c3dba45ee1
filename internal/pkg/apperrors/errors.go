// Package apperrors holds the infrastructure-level error type used for
// startup and connection failures (DB, cache, config). It is deliberately
// not used for per-record analysis outcomes — those are the closed
// result.AnalysisResult enum, never a Go error crossing a package boundary.
package apperrors

import "fmt"

type AppError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	StatusCode int                    `json:"-"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    make(map[string]interface{}),
	}
}

func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

package apperrors

import "net/http"

var (
	ErrDatabaseError = New(
		"DATABASE_ERROR",
		"target map database operation failed",
		http.StatusInternalServerError,
	)

	ErrCacheError = New(
		"CACHE_ERROR",
		"result cache operation failed",
		http.StatusInternalServerError,
	)

	ErrConfigInvalid = New(
		"CONFIG_INVALID",
		"configuration failed validation",
		http.StatusInternalServerError,
	)

	ErrMapBoundsUnavailable = New(
		"MAP_BOUNDS_UNAVAILABLE",
		"unable to compute target map bounds",
		http.StatusInternalServerError,
	)

	ErrInputFileInvalid = New(
		"INPUT_FILE_INVALID",
		"input JSON file could not be read",
		http.StatusBadRequest,
	)
)

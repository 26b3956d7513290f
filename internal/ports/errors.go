package ports

import "errors"

// Standard application-level errors.
// Adapters wrap underlying infrastructure errors with these sentinels so
// callers can discriminate with errors.Is.
var (
	// General Errors
	ErrUnknown            = errors.New("unknown error occurred")
	ErrInvalidRequest     = errors.New("invalid request parameters or format")
	ErrNotFound           = errors.New("resource not found")
	ErrTimeout            = errors.New("operation timed out")
	ErrContextCanceled    = errors.New("operation canceled via context")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Simulation Errors
	ErrInvalidTimeSpec = errors.New("malformed entry day or open time")
	ErrNoPriceData     = errors.New("no candle at the requested entry instant")

	// Data Source Errors
	ErrDataSourceUnavailable = errors.New("market data source is unavailable")
	ErrRateLimited           = errors.New("API rate limit exceeded")
	ErrAuthenticationFailed  = errors.New("data source authentication failed")

	// Database Specific Errors
	ErrPersistenceFailed = errors.New("failed to persist record")
	ErrDuplicateEntry    = errors.New("database record already exists")
	ErrDBConnection      = errors.New("database connection error")
	ErrQueryFailed       = errors.New("database query failed")
	ErrUpdateFailed      = errors.New("database update failed")
)

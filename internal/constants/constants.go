package constants

import "time"

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 60 * time.Second
)

const (
	// DefaultFetchPacing spaces outbound Steam calls so a burst of library
	// fetches does not trip upstream throttling.
	DefaultFetchPacing = 175 * time.Millisecond

	DefaultEnrichLimit = 100
	DefaultThreshold   = 0.8
	DefaultCountryCode = "us"

	// GetPlayerSummaries accepts at most 100 ids per call.
	SummaryBatchSize = 100
)

const (
	AppDetailsCacheTTL = 24 * time.Hour
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

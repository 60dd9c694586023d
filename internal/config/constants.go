package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Background job intervals
const AbandonJobInterval = 5 * time.Minute

// Default rate limiting
const DefaultRateLimitPerMin = 60

// PerMinuteRate is the fixed billing rate applied to completed sessions.
// Callers computing costs client-side must reproduce this exactly.
const PerMinuteRate = 0.1

// Presigned audio upload URLs stay valid for this long.
const AudioUploadURLTTL = 15 * time.Minute

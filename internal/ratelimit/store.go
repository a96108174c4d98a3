// Package ratelimit protects the ingest endpoint from runaway sensors.
// A camera stuck in a reconnect loop can replay thousands of observations
// a second; the limiter sheds that load before it reaches the pipeline.
package ratelimit

import (
	"context"
	"time"
)

// Result reports the outcome of one rate limit check.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
	Limit     int
}

// Store counts requests per key. Implementations are interface-driven so
// tests run against memory and deployments share counters through Redis.
type Store interface {
	// Allow records one request under key and reports whether it fits
	// inside limit per window.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}

// Package ratelimit throttles the public relayer API per client IP.
package ratelimit

import (
	"context"
	"time"
)

// Class categorizes endpoints for differentiated limits.
type Class string

const (
	// ClassRead covers lookups (GET).
	ClassRead Class = "read"
	// ClassWrite covers relayed calls, which spend relayer funds.
	ClassWrite Class = "write"
)

// Result is the outcome of one Allow call.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Store counts requests per key over a window.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}

// Limits holds the per-window allowance of each class.
type Limits struct {
	Read   int
	Write  int
	Window time.Duration
}

// DefaultLimits allows 100 reads and 20 relayed writes per IP per minute.
var DefaultLimits = Limits{Read: 100, Write: 20, Window: time.Minute}

func (l Limits) of(class Class) int {
	if class == ClassWrite {
		return l.Write
	}
	return l.Read
}
